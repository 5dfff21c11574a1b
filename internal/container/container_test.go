package container

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	app "solar-drone-bot/internal/application"
	"solar-drone-bot/internal/domain/entity"
	"solar-drone-bot/internal/infrastructure/storage"
)

type staticDetector []entity.Detection

func (d staticDetector) Detect(ctx context.Context, img *entity.Image) ([]entity.Detection, error) {
	return d, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(entity.Event) {}

func TestNew_WiresOptions(t *testing.T) {
	mock := clock.NewMock()
	c := New(
		storage.NewMemorySessionRepository(),
		staticDetector{{Confidence: 0.9}},
		nil,
		noopNotifier{},
		nil,
		nil,
		Options{MaxUploadBytes: 4, Timings: app.DefaultTimings(), Clock: mock},
	)
	require.Equal(t, int64(4), c.Ingest.MaxBytes)

	ctx := context.Background()
	_, err := c.Controller.Upload(ctx, 1, "image/png", []byte{1, 2, 3, 4, 5})
	require.ErrorIs(t, err, app.ErrImageTooLarge)

	_, err = c.Controller.Upload(ctx, 1, "image/png", []byte{1, 2, 3})
	require.NoError(t, err)

	status, err := c.Controller.StartCleaning(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, entity.StatusCleaning, status)

	c.Controller.Shutdown()
	mock.Add(10 * time.Second)
	view, err := c.Controller.State(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, entity.StatusCleaning, view.State.CleaningStatus)
}
