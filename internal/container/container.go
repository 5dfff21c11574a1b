package container

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	app "solar-drone-bot/internal/application"
	"solar-drone-bot/internal/domain/port"
	"solar-drone-bot/internal/infrastructure/metrics"
)

// Options параметры сборки сервисов
type Options struct {
	MaxUploadBytes int64
	Timings        app.Timings
	Clock          clock.Clock // nil: системные часы
}

type Container struct {
	Controller *app.Controller
	Simulator  *app.CleaningSimulator
	Ingest     *app.ImageIngest
}

func New(
	sessions port.SessionRepository,
	detector port.DustDetector,
	renderer port.OverlayRenderer,
	notifier port.Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
	opts Options,
) *Container {
	ingest := app.NewImageIngest(opts.MaxUploadBytes)
	simulator := app.NewCleaningSimulator(opts.Clock, opts.Timings, notifier, m, log)
	controller := app.NewController(app.ControllerDeps{
		Sessions:  sessions,
		Ingest:    ingest,
		Detector:  detector,
		Renderer:  renderer,
		Simulator: simulator,
		Notifier:  notifier,
		Metrics:   m,
		Logger:    log,
	})

	return &Container{
		Controller: controller,
		Simulator:  simulator,
		Ingest:     ingest,
	}
}
