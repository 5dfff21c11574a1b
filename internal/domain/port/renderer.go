package port

import "solar-drone-bot/internal/domain/entity"

// OverlayRenderer рисует разметку поверх изображения
type OverlayRenderer interface {
	// Render возвращает новое изображение с рамками пятен и дроном над target (если target >= 0)
	Render(img *entity.Image, overlay entity.Overlay, target int) ([]byte, error)
}
