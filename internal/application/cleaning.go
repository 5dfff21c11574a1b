package app

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"solar-drone-bot/internal/domain/entity"
	"solar-drone-bot/internal/domain/port"
	"solar-drone-bot/internal/infrastructure/metrics"
)

// ErrNothingToClean запуск из idle без найденных пятен
var ErrNothingToClean = errors.New("no dust detected: upload an image first")

// Timings длительности имитации очистки
type Timings struct {
	Tick          time.Duration // интервал между пятнами
	CompleteAfter time.Duration // минимальное время от старта до завершения
	ResetAfter    time.Duration // сколько показываем completed перед возвратом в idle
}

// DefaultTimings значения по умолчанию: 1с на пятно, 3с до завершения, 2с показа результата
func DefaultTimings() Timings {
	return Timings{
		Tick:          time.Second,
		CompleteAfter: 3 * time.Second,
		ResetAfter:    2 * time.Second,
	}
}

// CleaningSimulator планирует цепочку таймеров очистки для сессий.
//
// Состояние и проверка поколения живут в entity.Session, поэтому таймер
// устаревшего запуска ничего не меняет, даже если его не успели остановить.
// Таймеры чата помечены поколением запуска: новый запуск останавливает только более старые.
type CleaningSimulator struct {
	clock    clock.Clock
	timings  Timings
	notifier port.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger

	mu      sync.Mutex
	pending map[int64]*pendingTimers
}

// pendingTimers таймеры последнего запуска чата
type pendingTimers struct {
	generation uint64
	timers     []*clock.Timer
}

func (p *pendingTimers) stop() {
	for _, t := range p.timers {
		t.Stop()
	}
}

// NewCleaningSimulator создаёт симулятор. notifier, m и log могут быть nil.
func NewCleaningSimulator(clk clock.Clock, timings Timings, notifier port.Notifier, m *metrics.Metrics, log *zap.Logger) *CleaningSimulator {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CleaningSimulator{
		clock:    clk,
		timings:  timings,
		notifier: notifier,
		metrics:  m,
		log:      log.Named("cleaning"),
		pending:  make(map[int64]*pendingTimers),
	}
}

// Start переводит сессию в cleaning и запускает обход пятен.
// Незавершённые таймеры прошлого запуска этой сессии останавливаются.
func (s *CleaningSimulator) Start(session *entity.Session) (string, error) {
	run, err := s.begin(session)
	if err != nil {
		return "", err
	}
	s.launch(run)
	return run.id, nil
}

// StopAll останавливает таймеры всех сессий при завершении работы. Состояние сессий не меняется.
func (s *CleaningSimulator) StopAll() {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[int64]*pendingTimers)
	s.mu.Unlock()

	for _, p := range pending {
		p.stop()
	}
}

// begin открывает новое поколение сессии
func (s *CleaningSimulator) begin(session *entity.Session) (*cleaningRun, error) {
	generation, total, ok := session.BeginCleaning()
	if !ok {
		return nil, ErrNothingToClean
	}
	return &cleaningRun{
		sim:        s,
		session:    session,
		id:         uuid.NewString(),
		generation: generation,
		total:      total,
	}, nil
}

// launch снимает таймеры более старых запусков и ставит первый шаг.
// Если сессию уже перезапустили, устаревший запуск ничего не планирует.
func (s *CleaningSimulator) launch(run *cleaningRun) {
	chatID := run.session.ChatID
	s.cancelOlder(chatID, run.generation)

	var scheduled bool
	if run.total == 0 {
		scheduled = s.schedule(run, s.timings.CompleteAfter, run.complete)
	} else {
		scheduled = s.schedule(run, s.timings.Tick, func() { run.visit(0) })
	}
	if !scheduled {
		s.log.Debug("stale cleaning run skipped",
			zap.Int64("chat_id", chatID),
			zap.String("run_id", run.id),
		)
		return
	}

	s.metrics.CleaningTransition(entity.StatusCleaning.String())
	s.log.Info("cleaning started",
		zap.Int64("chat_id", chatID),
		zap.String("run_id", run.id),
		zap.Int("spots", run.total),
	)
	s.notify(entity.Event{
		Kind:   entity.EventCleaningStarted,
		ChatID: chatID,
		RunID:  run.id,
		Total:  run.total,
	})
}

// schedule ставит таймер запуска. Таймер устаревшего запуска не ставится, тогда false.
func (s *CleaningSimulator) schedule(run *cleaningRun, d time.Duration, fn func()) bool {
	chatID := run.session.ChatID

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pending[chatID]
	switch {
	case p == nil || p.generation < run.generation:
		if p != nil {
			p.stop()
		}
		p = &pendingTimers{generation: run.generation}
		s.pending[chatID] = p
	case p.generation > run.generation:
		return false
	}
	p.timers = append(p.timers, s.clock.AfterFunc(d, fn))
	return true
}

// cancelOlder останавливает таймеры запусков старше generation
func (s *CleaningSimulator) cancelOlder(chatID int64, generation uint64) {
	s.mu.Lock()
	p := s.pending[chatID]
	if p == nil || p.generation >= generation {
		s.mu.Unlock()
		return
	}
	delete(s.pending, chatID)
	s.mu.Unlock()

	p.stop()
}

// release забывает таймеры завершённого запуска
func (s *CleaningSimulator) release(chatID int64, generation uint64) {
	s.mu.Lock()
	if p := s.pending[chatID]; p != nil && p.generation == generation {
		delete(s.pending, chatID)
	}
	s.mu.Unlock()
}

func (s *CleaningSimulator) notify(e entity.Event) {
	if s.notifier != nil {
		s.notifier.Notify(e)
	}
}

// cleaningRun один запуск очистки, привязанный к поколению сессии
type cleaningRun struct {
	sim        *CleaningSimulator
	session    *entity.Session
	id         string
	generation uint64
	total      int
}

// visit ставит дрон над пятном index и планирует следующий шаг.
// Завершение наступает не раньше CompleteAfter и не раньше обхода всех пятен.
func (r *cleaningRun) visit(index int) {
	frame, ok := r.session.Visit(r.generation, index)
	if !ok {
		return
	}

	timings := r.sim.timings
	completeNow := false
	if next := index + 1; next < r.total {
		r.sim.schedule(r, timings.Tick, func() { r.visit(next) })
	} else {
		remaining := timings.CompleteAfter - time.Duration(r.total)*timings.Tick
		if remaining > 0 {
			r.sim.schedule(r, remaining, r.complete)
		} else {
			completeNow = true
		}
	}

	r.sim.log.Debug("drone moved",
		zap.Int64("chat_id", r.session.ChatID),
		zap.String("run_id", r.id),
		zap.Int("target", index),
	)
	r.sim.notify(entity.Event{
		Kind:      entity.EventTargetVisited,
		ChatID:    r.session.ChatID,
		RunID:     r.id,
		Target:    index,
		Total:     r.total,
		Detection: frame.Detection(),
		Frame:     frame,
	})

	if completeNow {
		r.complete()
	}
}

func (r *cleaningRun) complete() {
	if !r.session.Complete(r.generation) {
		return
	}

	r.sim.schedule(r, r.sim.timings.ResetAfter, r.reset)

	r.sim.metrics.CleaningTransition(entity.StatusCompleted.String())
	r.sim.log.Info("cleaning completed",
		zap.Int64("chat_id", r.session.ChatID),
		zap.String("run_id", r.id),
	)
	r.sim.notify(entity.Event{
		Kind:   entity.EventCleaningCompleted,
		ChatID: r.session.ChatID,
		RunID:  r.id,
		Total:  r.total,
	})
}

func (r *cleaningRun) reset() {
	if !r.session.Reset(r.generation) {
		return
	}
	r.sim.release(r.session.ChatID, r.generation)

	r.sim.metrics.CleaningTransition(entity.StatusIdle.String())
	r.sim.log.Debug("cleaning status reset",
		zap.Int64("chat_id", r.session.ChatID),
		zap.String("run_id", r.id),
	)
	r.sim.notify(entity.Event{
		Kind:   entity.EventCleaningIdle,
		ChatID: r.session.ChatID,
		RunID:  r.id,
	})
}
