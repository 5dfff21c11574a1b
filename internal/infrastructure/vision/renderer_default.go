//go:build !gocv
// +build !gocv

package vision

import "solar-drone-bot/internal/domain/port"

// NewRenderer возвращает рендерер без OpenCV
func NewRenderer() port.OverlayRenderer {
	return NewImageRenderer()
}
