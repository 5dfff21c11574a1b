package port

import "solar-drone-bot/internal/domain/entity"

// Notifier получает события сессий. Реализация не должна блокировать вызывающего.
type Notifier interface {
	Notify(event entity.Event)
}
