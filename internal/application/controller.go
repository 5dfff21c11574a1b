package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solar-drone-bot/internal/domain/entity"
	"solar-drone-bot/internal/domain/port"
	"solar-drone-bot/internal/infrastructure/metrics"
)

// ErrNoImage в чате ещё нет загруженного изображения
var ErrNoImage = errors.New("no image uploaded yet")

// DetectionError ошибка обращения к модели. Пятна при этом не меняются.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return "detection failed: " + e.Err.Error()
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// View производное состояние чата для отображения
type View struct {
	State    entity.AppState
	Overlay  entity.Overlay
	Controls entity.Controls
}

// ControllerDeps зависимости контроллера. Notifier, Metrics и Logger необязательны.
type ControllerDeps struct {
	Sessions  port.SessionRepository
	Ingest    *ImageIngest
	Detector  port.DustDetector
	Renderer  port.OverlayRenderer
	Simulator *CleaningSimulator
	Notifier  port.Notifier
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Controller связывает загрузку, модель и имитацию очистки для каждого чата
type Controller struct {
	sessions  port.SessionRepository
	ingest    *ImageIngest
	detector  port.DustDetector
	renderer  port.OverlayRenderer
	simulator *CleaningSimulator
	notifier  port.Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewController создаёт контроллер
func NewController(deps ControllerDeps) *Controller {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ingest := deps.Ingest
	if ingest == nil {
		ingest = NewImageIngest(DefaultMaxUploadBytes)
	}
	simulator := deps.Simulator
	if simulator == nil {
		simulator = NewCleaningSimulator(nil, DefaultTimings(), deps.Notifier, deps.Metrics, log)
	}

	return &Controller{
		sessions:  deps.Sessions,
		ingest:    ingest,
		detector:  deps.Detector,
		renderer:  deps.Renderer,
		simulator: simulator,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		log:       log.Named("controller"),
	}
}

// Upload принимает изображение, отправляет его в модель и сохраняет найденные пятна.
//
// Отклонённый файл не меняет состояние. При ошибке модели пятна остаются прежними.
// Если ответы на две загрузки пришли не по порядку, побеждает последний пришедший.
func (c *Controller) Upload(ctx context.Context, chatID int64, declaredType string, data []byte) (entity.Overlay, error) {
	img, err := c.ingest.Accept(declaredType, data)
	if err != nil {
		c.metrics.UploadRejected(rejectReason(err))
		c.log.Info("upload rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		return entity.Overlay{}, err
	}

	if c.detector == nil {
		return entity.Overlay{}, errors.New("detector is not configured")
	}

	session, err := c.session(ctx, chatID)
	if err != nil {
		return entity.Overlay{}, err
	}

	session.SetImage(img)
	session.BeginRequest()
	c.notify(entity.Event{Kind: entity.EventLoadingStarted, ChatID: chatID})
	defer func() {
		session.EndRequest()
		c.notify(entity.Event{Kind: entity.EventLoadingFinished, ChatID: chatID})
	}()

	detections, err := c.detector.Detect(ctx, img)
	if err != nil {
		c.log.Warn("detection failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return entity.Overlay{}, &DetectionError{Err: err}
	}

	session.ReplaceDetections(detections)
	overlay := entity.BuildOverlay(detections)

	c.log.Info("detections received",
		zap.Int64("chat_id", chatID),
		zap.Int("spots", len(detections)),
		zap.String("level", string(overlay.Level)),
	)
	return overlay, nil
}

// StartCleaning запускает (или перезапускает) имитацию очистки
func (c *Controller) StartCleaning(ctx context.Context, chatID int64) (entity.CleaningStatus, error) {
	session, err := c.session(ctx, chatID)
	if err != nil {
		return "", err
	}

	if _, err := c.simulator.Start(session); err != nil {
		return session.Snapshot().CleaningStatus, err
	}
	return entity.StatusCleaning, nil
}

// State возвращает снимок состояния чата и производные от него данные
func (c *Controller) State(ctx context.Context, chatID int64) (View, error) {
	session, err := c.session(ctx, chatID)
	if err != nil {
		return View{}, err
	}

	st := session.Snapshot()
	return View{
		State:    st,
		Overlay:  entity.BuildOverlay(st.Detections),
		Controls: entity.ControlsFor(st.CleaningStatus, st.HasDetections()),
	}, nil
}

// Render рисует текущее изображение чата с разметкой и дроном
func (c *Controller) Render(ctx context.Context, chatID int64) ([]byte, error) {
	view, err := c.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return c.render(view.State.Image, view.Overlay, view.State.Target)
}

// RenderFrame рисует изображение чата с пятнами и целью из кадра очистки,
// а не из текущего состояния: к моменту отрисовки очистка могла уже завершиться.
func (c *Controller) RenderFrame(ctx context.Context, chatID int64, frame entity.Frame) ([]byte, error) {
	session, err := c.session(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return c.render(session.Snapshot().Image, entity.BuildOverlay(frame.Detections), frame.Target)
}

func (c *Controller) render(img *entity.Image, overlay entity.Overlay, target int) ([]byte, error) {
	if c.renderer == nil {
		return nil, errors.New("renderer is not configured")
	}
	if img == nil {
		return nil, ErrNoImage
	}
	return c.renderer.Render(img, overlay, target)
}

// Shutdown останавливает таймеры очистки
func (c *Controller) Shutdown() {
	c.simulator.StopAll()
}

func (c *Controller) session(ctx context.Context, chatID int64) (*entity.Session, error) {
	session, err := c.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	c.metrics.SetSessions(c.sessions.Len())
	return session, nil
}

func (c *Controller) notify(e entity.Event) {
	if c.notifier != nil {
		c.notifier.Notify(e)
	}
}
