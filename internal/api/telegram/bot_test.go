package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "ui2html/internal/application"
	"ui2html/internal/domain/entity"
	"ui2html/internal/infrastructure/storage"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	fileURL string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("file not found")
	}
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeConverter struct {
	*storage.FileBundleRepository
	err    error
	input  []byte
	inExt  string
	outDir string
}

func (f *fakeConverter) Convert(ctx context.Context, imagePath, outputDir string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	f.input = data
	f.inExt = filepath.Ext(imagePath)
	f.outDir = outputDir
	if f.err != nil {
		return "", f.err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	for _, name := range []string{"frame.jpg", "detected_components.jpg", "index.html"} {
		if err := os.WriteFile(filepath.Join(outputDir, name), []byte(name), 0o644); err != nil {
			return "", err
		}
	}
	return filepath.Join(outputDir, "index.html"), nil
}

func newTestBot(t *testing.T, conv *fakeConverter) (*Bot, *fakeAPI, *app.UserService) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("screenshot-bytes"))
	}))
	t.Cleanup(srv.Close)

	api := &fakeAPI{fileURL: srv.URL}
	users := app.NewUserService(storage.NewMemoryUserRepository())
	conv.FileBundleRepository = storage.NewFileBundleRepository()
	return newBot(api, users, conv, t.TempDir()), api, users
}

func photoMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 42},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", FileSize: 10},
			{FileID: "large", FileSize: 16},
		},
	}
}

func commandMessage(cmd string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 42},
		Text: "/" + cmd,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(cmd) + 1},
		},
	}
}

func TestBot_Commands(t *testing.T) {
	bot, api, users := newTestBot(t, &fakeConverter{})
	ctx := context.Background()

	bot.handleMessage(ctx, commandMessage("convert"))
	user, err := users.Get(ctx, 7, 42)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingScreenshot, user.State)

	bot.handleMessage(ctx, commandMessage("cancel"))
	user, err = users.Get(ctx, 7, 42)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	bot.handleMessage(ctx, commandMessage("nope"))
	bot.handleMessage(ctx, &tgbotapi.Message{From: &tgbotapi.User{ID: 7}, Chat: &tgbotapi.Chat{ID: 42}, Text: "hi"})

	require.Equal(t, []string{msgAwaitingScreenshot, msgCancelled, msgUnknownCommand, msgSendScreenshot}, api.texts())
}

func TestBot_ScreenshotSuccess(t *testing.T) {
	conv := &fakeConverter{}
	bot, api, users := newTestBot(t, conv)
	ctx := context.Background()

	bot.handleScreenshot(ctx, photoMessage(), "large", "jpg", 16)

	require.Equal(t, "screenshot-bytes", string(conv.input))
	require.Equal(t, ".jpg", conv.inExt)
	require.Regexp(t, regexp.MustCompile(`tg_42_[0-9a-f]{8}$`), conv.outDir)

	require.Len(t, api.sent, 3)
	photo, ok := api.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Equal(t, msgDone, photo.Caption)
	require.Equal(t, tgbotapi.FilePath(filepath.Join(conv.outDir, "detected_components.jpg")), photo.File)

	doc, ok := api.sent[2].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	require.Equal(t, tgbotapi.FilePath(filepath.Join(conv.outDir, "index.html")), doc.File)

	user, err := users.Get(ctx, 7, 42)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestBot_ScreenshotBusy(t *testing.T) {
	conv := &fakeConverter{}
	bot, api, users := newTestBot(t, conv)
	ctx := context.Background()

	_, ok, err := users.StartProcessing(ctx, 7, 42)
	require.NoError(t, err)
	require.True(t, ok)

	bot.handleScreenshot(ctx, photoMessage(), "large", "jpg", 16)
	require.Equal(t, []string{msgBusy}, api.texts())
	require.Nil(t, conv.input)
}

func TestBot_ScreenshotConvertError(t *testing.T) {
	conv := &fakeConverter{err: errors.New("could not generate HTML: quota")}
	bot, api, users := newTestBot(t, conv)
	ctx := context.Background()

	bot.handleScreenshot(ctx, photoMessage(), "large", "jpg", 16)

	texts := api.texts()
	require.Len(t, texts, 2)
	require.Contains(t, texts[1], "could not generate HTML: quota")

	user, err := users.Get(ctx, 7, 42)
	require.NoError(t, err)
	require.False(t, user.Busy())
}

func TestDocumentExt(t *testing.T) {
	tests := []struct {
		doc  tgbotapi.Document
		ext  string
		isOK bool
	}{
		{tgbotapi.Document{FileName: "shot.PNG"}, "png", true},
		{tgbotapi.Document{FileName: "scan", MimeType: "image/jpeg"}, "jpg", true},
		{tgbotapi.Document{FileName: "notes.txt", MimeType: "text/plain"}, "", false},
	}

	for _, tt := range tests {
		ext, ok := documentExt(&tt.doc)
		require.Equal(t, tt.isOK, ok, tt.doc.FileName)
		require.Equal(t, tt.ext, ext, tt.doc.FileName)
	}
}
