package telegram

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	app "solar-drone-bot/internal/application"
	"solar-drone-bot/internal/domain/entity"
)

func TestErrorText(t *testing.T) {
	require.Equal(t, "⚠️ Please upload an image file.", errorText(app.ErrNotImage))
	require.Contains(t, errorText(fmt.Errorf("%w: 6 bytes", app.ErrImageTooLarge)), "too large")
	require.Equal(t, "⚠️ Detection failed: internal (status 500)",
		errorText(&app.DetectionError{Err: errors.New("internal (status 500)")}))
	require.Equal(t, msgInternalError, errorText(errors.New("boom")))
}

func TestViewCaption(t *testing.T) {
	dets := []entity.Detection{{Confidence: 0.9}, {Confidence: 0.8}}
	view := app.View{
		Overlay:  entity.BuildOverlay(dets),
		Controls: entity.ControlsFor(entity.StatusIdle, true),
	}
	require.Equal(t, "🔎 2 dust spot(s) detected - HIGH level\n🚁 Ready for Cleaning", viewCaption(view))

	view = app.View{
		Overlay:  entity.BuildOverlay(nil),
		Controls: entity.ControlsFor(entity.StatusIdle, false),
	}
	caption := viewCaption(view)
	require.Contains(t, caption, msgNoDust)
	require.Contains(t, caption, "Upload an image with dust detection to enable cleaning")
}

func TestStatusText_NoImage(t *testing.T) {
	view := app.View{Controls: entity.ControlsFor(entity.StatusIdle, false)}
	require.Equal(t, msgNoImage+"\n🚁 Ready for Cleaning", statusText(view))
}

func TestVisitCaption(t *testing.T) {
	e := entity.Event{
		Kind:      entity.EventTargetVisited,
		Target:    1,
		Total:     3,
		Detection: entity.Detection{Confidence: 0.876},
	}
	require.Equal(t, "🚁 Cleaning spot 2 of 3 (88%)", visitCaption(e))
}

func TestEventText(t *testing.T) {
	require.Contains(t, eventText(entity.Event{Kind: entity.EventCleaningStarted, Total: 2}), "2 spot(s)")
	require.Equal(t, "✨ Cleaning Completed!", eventText(entity.Event{Kind: entity.EventCleaningCompleted}))
	require.Empty(t, eventText(entity.Event{Kind: entity.EventLoadingFinished}))
}

func TestControlsKeyboard(t *testing.T) {
	require.Nil(t, controlsKeyboard(entity.ControlsFor(entity.StatusIdle, false)))

	kb := controlsKeyboard(entity.ControlsFor(entity.StatusCleaning, true))
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	button := kb.InlineKeyboard[0][0]
	require.Equal(t, "Stop Cleaning", button.Text)
	require.NotNil(t, button.CallbackData)
	require.Equal(t, callbackClean, *button.CallbackData)
}
