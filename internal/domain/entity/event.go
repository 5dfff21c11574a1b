package entity

// EventKind тип события сессии
type EventKind string

const (
	EventLoadingStarted    EventKind = "loading_started"
	EventLoadingFinished   EventKind = "loading_finished"
	EventCleaningStarted   EventKind = "cleaning_started"
	EventTargetVisited     EventKind = "target_visited"
	EventCleaningCompleted EventKind = "cleaning_completed"
	EventCleaningIdle      EventKind = "cleaning_idle"
)

// Event уведомление об изменении состояния чата
type Event struct {
	Kind   EventKind
	ChatID int64
	RunID  string // идентификатор запуска очистки, пустой для событий загрузки

	// Для EventTargetVisited
	Target    int
	Total     int
	Detection Detection
	Frame     Frame // пятна и цель на момент посещения, для отрисовки кадра
}
