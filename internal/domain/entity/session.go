package entity

import "sync"

// AppState снимок состояния одного чата
type AppState struct {
	Image          *Image
	Detections     []Detection
	IsLoading      bool
	CleaningStatus CleaningStatus
	Target         int // индекс пятна, над которым сейчас дрон; -1 если нет
}

// HasDetections сообщает, есть ли пятна в снимке
func (s AppState) HasDetections() bool {
	return len(s.Detections) > 0
}

// Session владеет состоянием чата. Все изменения проходят через её методы.
//
// Переходы очистки привязаны к поколению: BeginCleaning увеличивает счётчик,
// а Visit, Complete и Reset со старым поколением ничего не делают.
type Session struct {
	ChatID int64

	mu         sync.Mutex
	image      *Image
	detections []Detection
	inflight   int
	status     CleaningStatus
	target     int
	generation uint64
}

// NewSession создаёт сессию чата в состоянии idle
func NewSession(chatID int64) *Session {
	return &Session{
		ChatID: chatID,
		status: StatusIdle,
		target: -1,
	}
}

// Snapshot возвращает копию текущего состояния
func (s *Session) Snapshot() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()

	var detections []Detection
	if len(s.detections) > 0 {
		detections = make([]Detection, len(s.detections))
		copy(detections, s.detections)
	}

	return AppState{
		Image:          s.image,
		Detections:     detections,
		IsLoading:      s.inflight > 0,
		CleaningStatus: s.status,
		Target:         s.target,
	}
}

// SetImage заменяет текущее изображение. Пятна остаются до ответа модели.
func (s *Session) SetImage(img *Image) {
	s.mu.Lock()
	s.image = img
	s.mu.Unlock()
}

// BeginRequest отмечает начало запроса к модели
func (s *Session) BeginRequest() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

// EndRequest отмечает завершение запроса, успешного или нет
func (s *Session) EndRequest() {
	s.mu.Lock()
	if s.inflight > 0 {
		s.inflight--
	}
	s.mu.Unlock()
}

// ReplaceDetections атомарно заменяет список пятен.
// Без изображения вызов игнорируется и возвращает false.
func (s *Session) ReplaceDetections(detections []Detection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil {
		return false
	}
	s.detections = make([]Detection, len(detections))
	copy(s.detections, detections)
	return true
}

// BeginCleaning переводит сессию в cleaning и открывает новое поколение.
// Возвращает номер поколения и число пятен для обхода.
func (s *Session) BeginCleaning() (generation uint64, total int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !CanStartCleaning(s.status, len(s.detections) > 0) {
		return 0, 0, false
	}

	s.generation++
	s.status = StatusCleaning
	s.target = -1
	return s.generation, len(s.detections), true
}

// Frame кадр очистки: копия пятен и цель на момент посещения
type Frame struct {
	Detections []Detection
	Target     int // -1, если цели нет
}

// Detection пятно под дроном; пустое, если цели нет
func (f Frame) Detection() Detection {
	if f.Target < 0 || f.Target >= len(f.Detections) {
		return Detection{}
	}
	return f.Detections[f.Target]
}

// Visit ставит дрон над пятном index и возвращает кадр. ok=false, если поколение устарело.
// Если список пятен успели заменить и индекса уже нет, цель сбрасывается в -1.
func (s *Session) Visit(generation uint64, index int) (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.status != StatusCleaning {
		return Frame{Target: -1}, false
	}

	if index < 0 || index >= len(s.detections) {
		s.target = -1
	} else {
		s.target = index
	}

	detections := make([]Detection, len(s.detections))
	copy(detections, s.detections)
	return Frame{Detections: detections, Target: s.target}, true
}

// Complete завершает очистку и очищает список пятен
func (s *Session) Complete(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.status != StatusCleaning {
		return false
	}

	s.status = StatusCompleted
	s.detections = nil
	s.target = -1
	return true
}

// Reset возвращает сессию в idle после показа результата
func (s *Session) Reset(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.status != StatusCompleted {
		return false
	}

	s.status = StatusIdle
	return true
}
