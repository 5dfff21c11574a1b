package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "solar-drone-bot/internal/application"
	"solar-drone-bot/internal/domain/entity"
)

// sender часть BotAPI, через которую бот отвечает в чаты
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	out        sender
	controller *app.Controller
	queue      *EventQueue
	http       *resty.Client
	log        *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, controller *app.Controller, queue *EventQueue, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("authorized on account", zap.String("username", api.Self.UserName))

	return &Bot{
		api:        api,
		out:        api,
		controller: controller,
		queue:      queue,
		http:       resty.New().SetTimeout(time.Minute),
		log:        log.Named("telegram"),
	}, nil
}

// Run запускает основной цикл обработки сообщений и рассылку событий.
// Возвращается после отмены ctx, дождавшись обработчиков.
func (b *Bot) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.dispatchEvents(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			wg.Wait()
			return nil

		case update, ok := <-updates:
			if !ok {
				cancel()
				wg.Wait()
				return errors.New("updates channel closed")
			}

			// Каждое обновление в своей горутине: запрос к модели не блокирует остальные чаты
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	// Файл, отправленный документом
	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "clean":
		b.startCleaning(ctx, chatID)

	case "status":
		view, err := b.controller.State(ctx, chatID)
		if err != nil {
			b.log.Error("get state", zap.Int64("chat_id", chatID), zap.Error(err))
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendMessageWithControls(chatID, statusText(view), view.Controls)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает нажатие inline-кнопки
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.out.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Warn("answer callback", zap.Error(err))
	}
	if cq.Message == nil || cq.Data != callbackClean {
		return
	}
	b.startCleaning(ctx, cq.Message.Chat.ID)
}

// handlePhoto обрабатывает входящее фото. Telegram всегда пересылает фото как JPEG.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.Error("download photo", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgDownloadError)
		return
	}

	b.upload(ctx, msg.Chat.ID, "image/jpeg", imageData)
}

// handleDocument обрабатывает изображение, отправленное файлом
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document

	// Заведомо не изображение: отклоняем, не скачивая
	if doc.MimeType != "" && !strings.HasPrefix(doc.MimeType, "image/") {
		b.upload(ctx, msg.Chat.ID, doc.MimeType, nil)
		return
	}

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		b.log.Error("download document", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgDownloadError)
		return
	}

	b.upload(ctx, msg.Chat.ID, doc.MimeType, data)
}

// upload передаёт файл контроллеру и отвечает размеченным изображением
func (b *Bot) upload(ctx context.Context, chatID int64, declaredType string, data []byte) {
	if _, err := b.controller.Upload(ctx, chatID, declaredType, data); err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}
	b.sendView(ctx, chatID)
}

func (b *Bot) startCleaning(ctx context.Context, chatID int64) {
	if _, err := b.controller.StartCleaning(ctx, chatID); err != nil {
		if !errors.Is(err, app.ErrNothingToClean) {
			b.log.Error("start cleaning", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		b.sendMessage(chatID, errorText(err))
	}
}

// sendView отправляет текущее изображение чата с разметкой, статусом и кнопкой
func (b *Bot) sendView(ctx context.Context, chatID int64) {
	view, err := b.controller.State(ctx, chatID)
	if err != nil {
		b.log.Error("get state", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendMessage(chatID, errorText(err))
		return
	}
	b.sendRendered(ctx, chatID, viewCaption(view), view.Controls)
}

// sendRendered рисует текущее изображение чата и отправляет его с подписью
func (b *Bot) sendRendered(ctx context.Context, chatID int64, caption string, controls entity.Controls) {
	data, err := b.controller.Render(ctx, chatID)
	b.sendImage(chatID, data, err, caption, controls)
}

// sendImage отправляет отрисованное изображение.
// Если нарисовать не удалось, отправляется только текст.
func (b *Bot) sendImage(chatID int64, data []byte, renderErr error, caption string, controls entity.Controls) {
	if renderErr != nil {
		if !errors.Is(renderErr, app.ErrNoImage) {
			b.log.Warn("render overlay", zap.Int64("chat_id", chatID), zap.Error(renderErr))
		}
		b.sendMessageWithControls(chatID, caption, controls)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "panel.png", Bytes: data})
	photo.Caption = caption
	if kb := controlsKeyboard(controls); kb != nil {
		photo.ReplyMarkup = kb
	}
	if _, err := b.out.Send(photo); err != nil {
		b.log.Error("send photo", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// dispatchEvents пересылает события сессий в чаты
func (b *Bot) dispatchEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.queue.Events():
			b.handleEvent(ctx, e)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, e entity.Event) {
	switch e.Kind {
	case entity.EventLoadingStarted:
		if _, err := b.out.Request(tgbotapi.NewChatAction(e.ChatID, tgbotapi.ChatUploadPhoto)); err != nil {
			b.log.Debug("send chat action", zap.Int64("chat_id", e.ChatID), zap.Error(err))
		}

	case entity.EventTargetVisited:
		// Кадр берётся из события: последний визит совпадает с завершением, и в сессии пятен уже нет
		data, err := b.controller.RenderFrame(ctx, e.ChatID, e.Frame)
		b.sendImage(e.ChatID, data, err, visitCaption(e), entity.Controls{})

	case entity.EventCleaningCompleted:
		view, err := b.controller.State(ctx, e.ChatID)
		if err != nil {
			b.log.Error("get state", zap.Int64("chat_id", e.ChatID), zap.Error(err))
			return
		}
		b.sendRendered(ctx, e.ChatID, eventText(e), view.Controls)

	case entity.EventCleaningStarted, entity.EventCleaningIdle:
		view, err := b.controller.State(ctx, e.ChatID)
		if err != nil {
			b.log.Error("get state", zap.Int64("chat_id", e.ChatID), zap.Error(err))
			return
		}
		b.sendMessageWithControls(e.ChatID, eventText(e), view.Controls)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	resp, err := b.http.R().
		SetContext(ctx).
		Get(file.Link(b.api.Token))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode())
	}

	return resp.Body(), nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		b.log.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// sendMessageWithControls отправляет текст с кнопкой управления, если она доступна
func (b *Bot) sendMessageWithControls(chatID int64, text string, controls entity.Controls) {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb := controlsKeyboard(controls); kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.out.Send(msg); err != nil {
		b.log.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
