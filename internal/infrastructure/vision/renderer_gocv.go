//go:build gocv
// +build gocv

package vision

import "solar-drone-bot/internal/domain/port"

// NewRenderer возвращает рендерер на OpenCV
func NewRenderer() port.OverlayRenderer {
	return NewGoCVRenderer()
}
