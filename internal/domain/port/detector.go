package port

import (
	"context"

	"solar-drone-bot/internal/domain/entity"
)

// DustDetector интерфейс внешней модели поиска пыли
type DustDetector interface {
	// Detect отправляет изображение в модель и возвращает найденные пятна
	Detect(ctx context.Context, img *entity.Image) ([]entity.Detection, error)
}
