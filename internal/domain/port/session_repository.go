package port

import (
	"context"

	"solar-drone-bot/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий чатов
type SessionRepository interface {
	// Get возвращает сессию чата, создаёт новую если не найдена
	Get(ctx context.Context, chatID int64) (*entity.Session, error)

	// Len возвращает число сессий
	Len() int
}
