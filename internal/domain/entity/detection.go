package entity

// HighConfidence порог уверенности, выше которого пятно считается сильным загрязнением.
const HighConfidence = 0.7

// Detection одно пятно пыли, найденное моделью
type Detection struct {
	X           float64 `json:"x"`      // центр области по X, пиксели
	Y           float64 `json:"y"`      // центр области по Y, пиксели
	Width       float64 `json:"width"`  // ширина области
	Height      float64 `json:"height"` // высота области
	Confidence  float64 `json:"confidence"`
	Class       string  `json:"class,omitempty"`
	ClassID     int     `json:"class_id,omitempty"`
	DetectionID string  `json:"detection_id,omitempty"`
}

// TopLeft возвращает левый верхний угол области
func (d Detection) TopLeft() (x, y float64) {
	return d.X - d.Width/2, d.Y - d.Height/2
}

// Center возвращает координаты центра области
func (d Detection) Center() (x, y float64) {
	return d.X, d.Y
}

// IsHigh сообщает, превышает ли уверенность порог HighConfidence
func (d Detection) IsHigh() bool {
	return d.Confidence > HighConfidence
}

// DustLevel степень загрязнения панели
type DustLevel string

const (
	DustClean    DustLevel = "clean"
	DustModerate DustLevel = "moderate"
	DustHigh     DustLevel = "high"
)

// ClassifyDust вычисляет степень загрязнения по средней уверенности.
// Пустой список: всегда clean, до какого-либо деления.
func ClassifyDust(detections []Detection) DustLevel {
	if len(detections) == 0 {
		return DustClean
	}

	var sum float64
	for _, d := range detections {
		sum += d.Confidence
	}

	if sum/float64(len(detections)) > HighConfidence {
		return DustHigh
	}
	return DustModerate
}
