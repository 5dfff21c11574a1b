package entity

// CleaningStatus состояние имитации очистки
type CleaningStatus string

const (
	StatusIdle      CleaningStatus = "idle"      // Готов к очистке
	StatusCleaning  CleaningStatus = "cleaning"  // Дрон обходит пятна
	StatusCompleted CleaningStatus = "completed" // Очистка завершена, показываем результат
)

func (s CleaningStatus) String() string {
	return string(s)
}

// Controls состояние кнопки управления дроном и строка статуса
type Controls struct {
	StatusText  string
	ButtonLabel string
	Enabled     bool
	Hint        string
}

// ControlsFor возвращает подпись и доступность кнопки для текущего состояния.
// Кнопка недоступна только в idle без найденных пятен.
func ControlsFor(status CleaningStatus, hasDetections bool) Controls {
	var c Controls
	switch status {
	case StatusCleaning:
		c = Controls{StatusText: "Drone Cleaning in Progress...", ButtonLabel: "Stop Cleaning"}
	case StatusCompleted:
		c = Controls{StatusText: "Cleaning Completed!", ButtonLabel: "Start New Cleaning"}
	default:
		c = Controls{StatusText: "Ready for Cleaning", ButtonLabel: "Start Cleaning"}
	}

	c.Enabled = CanStartCleaning(status, hasDetections)
	if !c.Enabled {
		c.Hint = "Upload an image with dust detection to enable cleaning"
	}
	return c
}

// CanStartCleaning разрешает запуск при наличии пятен или из любого не-idle состояния
func CanStartCleaning(status CleaningStatus, hasDetections bool) bool {
	return hasDetections || status != StatusIdle
}
