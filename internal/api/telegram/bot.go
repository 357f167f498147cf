package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	app "ui2html/internal/application"
	"ui2html/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я превращаю скриншоты интерфейсов в HTML.

📸 Отправьте мне скриншот, и я пришлю контуры найденных компонентов и готовую страницу.

📋 Команды:
/convert — начать конвертацию
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте скриншот (фото или файлом PNG/JPG/GIF)
2️⃣ Бот найдёт компоненты и сгенерирует разметку
3️⃣ Вы получите картинку с контурами и файл index.html

💡 Рекомендации:
• Отправляйте файлом, чтобы Telegram не сжимал картинку
• Обрезайте лишнее: панели браузера и рамки окна

📋 Команды:
/convert — начать конвертацию
/cancel — отменить операцию`

	msgAwaitingScreenshot = "📸 Отправьте скриншот интерфейса."
	msgCancelled          = "❌ Операция отменена. Отправьте /convert для новой конвертации."
	msgSendScreenshot     = "📸 Пожалуйста, отправьте скриншот интерфейса."
	msgUnknownCommand     = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing         = "⏳ Обрабатываю скриншот (%s)..."
	msgBusy               = "⏳ Предыдущий скриншот ещё обрабатывается, подождите."
	msgNotImage           = "⚠️ Это не картинка. Пришлите PNG, JPG или GIF."
	msgDownloadError      = "⚠️ Не удалось скачать файл. Попробуйте ещё раз."
	msgConvertError       = "⚠️ Не удалось сконвертировать скриншот: %s"
	msgDone               = "✅ Найденные компоненты. HTML во вложении."
)

// botAPI часть tgbotapi.BotAPI, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Converter конвейер конвертации скриншота в бандл
type Converter interface {
	Convert(ctx context.Context, imagePath, outputDir string) (string, error)
	Lookup(ctx context.Context, dir string) (entity.BundleFiles, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api       botAPI
	stop      func()
	updates   func() tgbotapi.UpdatesChannel
	users     *app.UserService
	converter Converter
	outputDir string
	client    *http.Client
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, converter Converter, outputDir string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	b := newBot(api, users, converter, outputDir)
	b.stop = api.StopReceivingUpdates
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	return b, nil
}

func newBot(api botAPI, users *app.UserService, converter Converter, outputDir string) *Bot {
	return &Bot{
		api:       api,
		users:     users,
		converter: converter,
		outputDir: outputDir,
		client:    http.DefaultClient,
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	updates := b.updates()

	for {
		select {
		case <-ctx.Done():
			b.stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}

			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Фото: берём максимальное разрешение
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		go b.handleScreenshot(ctx, msg, photo.FileID, "jpg", int64(photo.FileSize))
		return
	}

	// Картинка файлом
	if msg.Document != nil {
		ext, ok := documentExt(msg.Document)
		if !ok {
			b.sendMessage(msg.Chat.ID, msgNotImage)
			return
		}
		go b.handleScreenshot(ctx, msg, msg.Document.FileID, ext, int64(msg.Document.FileSize))
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendScreenshot)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		if !user.Busy() {
			b.users.Cancel(ctx, user.ID, msg.Chat.ID)
		}
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "convert":
		if user.Busy() {
			b.sendMessage(msg.Chat.ID, msgBusy)
			return
		}
		b.users.BeginConvert(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgAwaitingScreenshot)

	case "cancel":
		if user.Busy() {
			b.sendMessage(msg.Chat.ID, msgBusy)
			return
		}
		b.users.Cancel(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handleScreenshot скачивает картинку, гоняет конвейер и отправляет оверлей и index.html
func (b *Bot) handleScreenshot(ctx context.Context, msg *tgbotapi.Message, fileID, ext string, size int64) {
	chatID := msg.Chat.ID

	_, ok, err := b.users.StartProcessing(ctx, msg.From.ID, chatID)
	if err != nil {
		log.Printf("Error updating user: %v", err)
		return
	}
	if !ok {
		b.sendMessage(chatID, msgBusy)
		return
	}
	defer func() {
		if err := b.users.Finish(ctx, msg.From.ID); err != nil {
			log.Printf("Error updating user: %v", err)
		}
	}()

	b.sendMessage(chatID, fmt.Sprintf(msgProcessing, humanize.Bytes(uint64(size))))

	input, err := b.downloadFile(ctx, fileID, ext)
	if err != nil {
		log.Printf("Error downloading screenshot: %v", err)
		b.sendMessage(chatID, msgDownloadError)
		return
	}
	defer os.Remove(input)

	runID := uuid.NewString()[:8]
	dir := filepath.Join(b.outputDir, fmt.Sprintf("tg_%d_%s", chatID, runID))

	htmlPath, err := b.converter.Convert(ctx, input, dir)
	if err != nil {
		log.Printf("Error converting screenshot for chat %d: %v", chatID, err)
		b.sendMessage(chatID, fmt.Sprintf(msgConvertError, err))
		return
	}

	files, err := b.converter.Lookup(ctx, dir)
	if err != nil {
		log.Printf("Error reading bundle %s: %v", dir, err)
		b.sendMessage(chatID, fmt.Sprintf(msgConvertError, err))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(filepath.Join(dir, files.Overlay)))
	photo.Caption = msgDone
	if _, err := b.api.Send(photo); err != nil {
		log.Printf("Error sending overlay: %v", err)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(htmlPath))
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("Error sending html: %v", err)
	}
}

// downloadFile скачивает файл из Telegram во временный файл с нужным расширением
func (b *Bot) downloadFile(ctx context.Context, fileID, ext string) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "ui2html_*."+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("read file: %w", err)
	}

	log.Printf("Received screenshot: %s", humanize.Bytes(uint64(n)))
	return f.Name(), nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// documentExt расширение картинки из документа; ok=false если это не картинка
func documentExt(doc *tgbotapi.Document) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(doc.FileName), "."))
	switch ext {
	case "png", "jpg", "jpeg", "gif", "bmp", "webp":
		return ext, true
	}

	if mime, ok := strings.CutPrefix(doc.MimeType, "image/"); ok && mime != "" {
		return entity.ImageExt(mime), true
	}
	return "", false
}
