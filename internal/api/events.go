package telegram

import (
	"sync/atomic"

	"go.uber.org/zap"

	"solar-drone-bot/internal/domain/entity"
	"solar-drone-bot/internal/domain/port"
)

// EventQueue буфер событий сессий для отправки в чаты.
// Notify не блокирует: при переполнении событие отбрасывается.
type EventQueue struct {
	ch      chan entity.Event
	dropped atomic.Int64
	log     *zap.Logger
}

// NewEventQueue создаёт очередь указанного размера
func NewEventQueue(size int, log *zap.Logger) *EventQueue {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventQueue{
		ch:  make(chan entity.Event, size),
		log: log.Named("events"),
	}
}

// Notify ставит событие в очередь
func (q *EventQueue) Notify(e entity.Event) {
	select {
	case q.ch <- e:
	default:
		q.dropped.Add(1)
		q.log.Warn("event queue is full, event dropped",
			zap.String("kind", string(e.Kind)),
			zap.Int64("chat_id", e.ChatID),
		)
	}
}

// Events канал для чтения событий
func (q *EventQueue) Events() <-chan entity.Event {
	return q.ch
}

// Dropped число отброшенных событий
func (q *EventQueue) Dropped() int64 {
	return q.dropped.Load()
}

// Проверка реализации интерфейса
var _ port.Notifier = (*EventQueue)(nil)
