package web

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"ui2html/config"
	"ui2html/internal/infrastructure/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeConverter struct {
	*storage.FileBundleRepository

	err     error
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	inputs  []string
	dirs    []string
	ctxErrs []error
}

func newFakeConverter() *fakeConverter {
	return &fakeConverter{FileBundleRepository: storage.NewFileBundleRepository()}
}

func (f *fakeConverter) Convert(ctx context.Context, imagePath, outputDir string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.inputs = append(f.inputs, imagePath)
	f.dirs = append(f.dirs, outputDir)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	htmlPath := filepath.Join(outputDir, "index.html")
	if err := os.WriteFile(filepath.Join(outputDir, "frame.png"), []byte("png"), 0o644); err != nil {
		return "", err
	}
	return htmlPath, os.WriteFile(htmlPath, []byte("<!DOCTYPE html><p>generated</p>"), 0o644)
}

func newTestServer(t *testing.T, conv Converter) (*Server, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		WebAddr:           "127.0.0.1:0",
		UploadDir:         filepath.Join(dir, "uploads"),
		WebOutputDir:      filepath.Join(dir, "outputs"),
		MaxUploadBytes:    config.DefaultMaxUploadBytes,
		AllowedExtensions: config.DefaultAllowedExtensions(),
	}
	srv, err := NewServer(cfg, conv)
	require.NoError(t, err)
	return srv, cfg
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("other", "value"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// followForm открывает форму с cookie из ответа и возвращает тело страницы.
func followForm(t *testing.T, srv *Server, prev *httptest.ResponseRecorder) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range prev.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestUploadForm(t *testing.T) {
	srv, _ := newTestServer(t, newFakeConverter())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `name="file"`)
	require.Contains(t, rec.Body.String(), `accept="image/*"`)
	require.NotContains(t, rec.Body.String(), "flash-message")
}

func TestUpload_InvalidExtension(t *testing.T) {
	conv := newFakeConverter()
	srv, cfg := newTestServer(t, conv)

	rec := serve(srv, uploadRequest(t, "file", "notes.txt", []byte("hello")))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Zero(t, conv.calls.Load())
	require.NoDirExists(t, cfg.WebOutputDir)

	page := followForm(t, srv, rec)
	require.Contains(t, page, "Invalid file type. Please upload a PNG, JPG, JPEG, or GIF file.")

	// сообщение показывается один раз
	page = followForm(t, srv, rec)
	require.NotContains(t, page, "Invalid file type")
}

func TestUpload_NoFile(t *testing.T) {
	conv := newFakeConverter()
	srv, cfg := newTestServer(t, conv)

	rec := serve(srv, uploadRequest(t, "file", "", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Zero(t, conv.calls.Load())
	require.NoDirExists(t, cfg.WebOutputDir)
	require.Contains(t, followForm(t, srv, rec), "No file selected")
}

func TestUpload_TooLarge(t *testing.T) {
	conv := newFakeConverter()
	srv, _ := newTestServer(t, conv)
	srv.maxUploadBytes = 100

	rec := serve(srv, uploadRequest(t, "file", "big.png", bytes.Repeat([]byte{1}, 1024)))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Zero(t, conv.calls.Load())
	require.Contains(t, followForm(t, srv, rec), "File is too large (max 100 B).")
}

func TestUpload_TooLargeWithoutContentLength(t *testing.T) {
	conv := newFakeConverter()
	srv, _ := newTestServer(t, conv)
	srv.maxUploadBytes = 100

	req := uploadRequest(t, "file", "big.png", bytes.Repeat([]byte{1}, 1024))
	req.ContentLength = -1

	rec := serve(srv, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Zero(t, conv.calls.Load())
	require.Contains(t, followForm(t, srv, rec), "File is too large (max 100 B).")
}

func TestUpload_Success(t *testing.T) {
	conv := newFakeConverter()
	srv, cfg := newTestServer(t, conv)

	rec := serve(srv, uploadRequest(t, "file", "My Screen.png", []byte("image-bytes")))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/result/My_Screen", rec.Header().Get("Location"))

	require.Equal(t, int32(1), conv.calls.Load())
	require.Equal(t, filepath.Join(cfg.UploadDir, "My_Screen.png"), conv.inputs[0])
	require.Equal(t, filepath.Join(cfg.WebOutputDir, "My_Screen"), conv.dirs[0])

	saved, err := os.ReadFile(conv.inputs[0])
	require.NoError(t, err)
	require.Equal(t, "image-bytes", string(saved))

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/result/My_Screen", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `src="/output/My_Screen/frame.png"`)
	require.Contains(t, body, `src="/output/My_Screen/grayscale_frame.png"`)
	require.Contains(t, body, `src="/output/My_Screen/detected_components.png"`)
	require.Contains(t, body, `<iframe src="/output/My_Screen/index.html">`)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/output/My_Screen/index.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<!DOCTYPE html><p>generated</p>", rec.Body.String())
}

func TestUpload_PipelineFailure(t *testing.T) {
	conv := newFakeConverter()
	conv.err = errors.New("could not generate HTML: invalid api key")
	srv, _ := newTestServer(t, conv)

	rec := serve(srv, uploadRequest(t, "file", "ui.jpg", []byte("x")))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Contains(t, followForm(t, srv, rec), "Error processing file: could not generate HTML: invalid api key")
}

func TestUpload_SameNameSharesRun(t *testing.T) {
	conv := newFakeConverter()
	conv.started = make(chan struct{}, 2)
	conv.release = make(chan struct{})
	srv, _ := newTestServer(t, conv)

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = serve(srv, uploadRequest(t, "file", "same.png", []byte("x"))).Code
		}(i)
		if i == 0 {
			<-conv.started
		}
	}

	time.Sleep(100 * time.Millisecond)
	close(conv.release)
	wg.Wait()

	require.Equal(t, int32(1), conv.calls.Load())
	require.Equal(t, []int{http.StatusSeeOther, http.StatusSeeOther}, codes)
}

func TestUpload_SameNameOtherContentRunsSeparately(t *testing.T) {
	conv := newFakeConverter()
	conv.started = make(chan struct{}, 2)
	conv.release = make(chan struct{})
	srv, cfg := newTestServer(t, conv)

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i, content := range []string{"first", "second"} {
		wg.Add(1)
		go func(i int, content string) {
			defer wg.Done()
			codes[i] = serve(srv, uploadRequest(t, "file", "same.png", []byte(content))).Code
		}(i, content)
		if i == 0 {
			<-conv.started
		}
	}

	// второй запуск ждёт, пока первый освободит каталог
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), conv.calls.Load())

	close(conv.release)
	wg.Wait()

	require.Equal(t, int32(2), conv.calls.Load())
	require.Equal(t, []int{http.StatusSeeOther, http.StatusSeeOther}, codes)

	saved, err := os.ReadFile(filepath.Join(cfg.UploadDir, "same.png"))
	require.NoError(t, err)
	require.Equal(t, "second", string(saved))
}

func TestUpload_ConversionOutlivesRequestContext(t *testing.T) {
	conv := newFakeConverter()
	srv, _ := newTestServer(t, conv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := uploadRequest(t, "file", "ui.png", []byte("x")).WithContext(ctx)

	rec := serve(srv, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/result/ui", rec.Header().Get("Location"))
	require.Equal(t, []error{nil}, conv.ctxErrs)
}

func TestResult_Missing(t *testing.T) {
	srv, _ := newTestServer(t, newFakeConverter())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/result/nothing", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Contains(t, followForm(t, srv, rec), "HTML output not found")
}

func TestOutput_RejectsTraversal(t *testing.T) {
	srv, cfg := newTestServer(t, newFakeConverter())
	require.NoError(t, os.MkdirAll(cfg.WebOutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(cfg.WebOutputDir), "secret.txt"), []byte("secret"), 0o644))

	for _, path := range []string{
		"/output/../secret.txt",
		"/output/x/..",
		"/output/..%2F..%2Fsecret.txt/x",
		"/output/missing/index.html",
	} {
		rec := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code, path)
		require.NotContains(t, rec.Body.String(), "secret", path)
	}
}
