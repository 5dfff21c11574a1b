package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "solar-drone-bot/internal/application"
	"solar-drone-bot/internal/domain/entity"
)

// callbackClean данные inline-кнопки управления дроном
const callbackClean = "clean"

const (
	msgStart = `👋 Hi! I inspect solar panels for dust.

📸 Send me a photo of a panel and I will mark every dust spot I find.
🚁 Then press the button and a drone will fly over each spot.

📋 Commands:
/clean — start or restart cleaning
/status — current state
/help — help`

	msgHelp = `ℹ️ How to use the bot:

1️⃣ Send a photo of a solar panel (as a photo or as an image file)
2️⃣ The model marks dust spots: red boxes are high confidence, amber are moderate
3️⃣ Press "Start Cleaning" and watch the drone visit every spot

📋 Commands:
/clean — start or restart cleaning
/status — current state`

	msgSendPhoto      = "📸 Please send a photo of a solar panel."
	msgUnknownCommand = "❓ Unknown command. Use /help."
	msgNoDust         = "✅ No dust detected. The panel looks clean."
	msgNoImage        = "📸 No image yet. Send a photo of a solar panel."
	msgDownloadError  = "⚠️ Could not download the file. Please try again."
	msgInternalError  = "⚠️ Something went wrong. Please try again."
)

// errorText сообщение об ошибке для пользователя
func errorText(err error) string {
	var detErr *app.DetectionError
	switch {
	case errors.Is(err, app.ErrNotImage):
		return "⚠️ Please upload an image file."
	case errors.Is(err, app.ErrEmptyImage):
		return "⚠️ The file is empty."
	case errors.Is(err, app.ErrImageTooLarge):
		return "⚠️ The image is too large. Please send a smaller one."
	case errors.Is(err, app.ErrNothingToClean):
		return "🧹 Nothing to clean. Upload an image with dust first."
	case errors.Is(err, app.ErrNoImage):
		return msgNoImage
	case errors.As(err, &detErr):
		return "⚠️ Detection failed: " + detErr.Err.Error()
	default:
		return msgInternalError
	}
}

// viewCaption подпись к изображению: уровень загрязнения и статус дрона
func viewCaption(view app.View) string {
	var sb strings.Builder
	if summary := view.Overlay.Summary(); summary != "" {
		sb.WriteString("🔎 ")
		sb.WriteString(summary)
	} else {
		sb.WriteString(msgNoDust)
	}

	sb.WriteString("\n🚁 ")
	sb.WriteString(view.Controls.StatusText)
	if view.Controls.Hint != "" {
		sb.WriteString("\n💡 ")
		sb.WriteString(view.Controls.Hint)
	}
	return sb.String()
}

// statusText ответ на /status
func statusText(view app.View) string {
	st := view.State
	if st.Image == nil {
		return msgNoImage + "\n🚁 " + view.Controls.StatusText
	}

	lines := []string{
		fmt.Sprintf("🖼 Image: %s, %d bytes", st.Image.MediaType, len(st.Image.Data)),
	}
	if st.IsLoading {
		lines = append(lines, "⏳ Analyzing...")
	}
	lines = append(lines, viewCaption(view))
	return strings.Join(lines, "\n")
}

// visitCaption подпись к кадру с дроном над пятном
func visitCaption(e entity.Event) string {
	return fmt.Sprintf("🚁 Cleaning spot %d of %d (%s)", e.Target+1, e.Total, entity.ConfidenceLabel(e.Detection.Confidence))
}

// eventText текстовое сообщение о событии; пустая строка: событие не озвучивается
func eventText(e entity.Event) string {
	switch e.Kind {
	case entity.EventCleaningStarted:
		if e.Total == 0 {
			return "🚁 Drone Cleaning in Progress..."
		}
		return fmt.Sprintf("🚁 Drone Cleaning in Progress... %d spot(s) to visit", e.Total)
	case entity.EventCleaningCompleted:
		return "✨ Cleaning Completed!"
	case entity.EventCleaningIdle:
		return "✅ Ready for Cleaning. Send a new photo to inspect another panel."
	default:
		return ""
	}
}

// controlsKeyboard кнопка управления; nil, если кнопка недоступна
func controlsKeyboard(c entity.Controls) *tgbotapi.InlineKeyboardMarkup {
	if !c.Enabled {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.ButtonLabel, callbackClean),
		),
	)
	return &kb
}
