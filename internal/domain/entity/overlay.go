package entity

import (
	"fmt"
	"math"
	"strings"
)

// LabelOffset смещение подписи над рамкой, пиксели
const LabelOffset = 25

// MarkerColor цвет рамки пятна
type MarkerColor string

const (
	MarkerRed   MarkerColor = "red"
	MarkerAmber MarkerColor = "amber"
)

// Marker описывает, как нарисовать одно пятно поверх изображения
type Marker struct {
	Left      float64
	Top       float64
	Width     float64
	Height    float64
	Color     MarkerColor
	Label     string // уверенность в процентах, например "90%"
	LabelLeft float64
	LabelTop  float64
}

// Overlay производное представление списка пятен
type Overlay struct {
	Level   DustLevel
	Markers []Marker
}

// BuildOverlay строит описание разметки. Чистая функция: вход не изменяется.
func BuildOverlay(detections []Detection) Overlay {
	markers := make([]Marker, 0, len(detections))
	for _, d := range detections {
		left, top := d.TopLeft()
		color := MarkerAmber
		if d.IsHigh() {
			color = MarkerRed
		}
		markers = append(markers, Marker{
			Left:      left,
			Top:       top,
			Width:     d.Width,
			Height:    d.Height,
			Color:     color,
			Label:     ConfidenceLabel(d.Confidence),
			LabelLeft: left,
			LabelTop:  top - LabelOffset,
		})
	}

	return Overlay{
		Level:   ClassifyDust(detections),
		Markers: markers,
	}
}

// ConfidenceLabel форматирует уверенность как целый процент
func ConfidenceLabel(confidence float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(confidence*100)))
}

// Summary строка статуса над изображением; пустая, если пятен нет
func (o Overlay) Summary() string {
	if len(o.Markers) == 0 {
		return ""
	}
	return fmt.Sprintf("%d dust spot(s) detected - %s level", len(o.Markers), strings.ToUpper(string(o.Level)))
}
