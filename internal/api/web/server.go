package web

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"ui2html/config"
	"ui2html/internal/domain/entity"
)

const (
	msgNoFile        = "No file selected"
	msgInvalidType   = "Invalid file type. Please upload a PNG, JPG, JPEG, or GIF file."
	msgHTMLNotFound  = "HTML output not found"
	msgProcessingErr = "Error processing file: %s"
	msgTooLarge      = "File is too large (max %s)."

	shutdownTimeout = 10 * time.Second
)

//go:embed templates/*.html
var templatesFS embed.FS

// Converter то, что веб-слою нужно от конвейера.
type Converter interface {
	Convert(ctx context.Context, imagePath, outputDir string) (string, error)
	Lookup(ctx context.Context, dir string) (entity.BundleFiles, error)
}

// Server веб-интерфейс: форма загрузки, страница результата и раздача файлов бандла.
type Server struct {
	addr           string
	uploadDir      string
	outputDir      string
	maxUploadBytes int64
	allowed        []string

	converter Converter
	flashes   *FlashStore
	runs      singleflight.Group
	locks     sync.Map // bundle id -> *sync.Mutex
	baseCtx   context.Context
	router    *gin.Engine
}

func NewServer(cfg *config.Config, converter Converter) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse web templates: %w", err)
	}

	s := &Server{
		addr:           cfg.WebAddr,
		uploadDir:      cfg.UploadDir,
		outputDir:      cfg.WebOutputDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		allowed:        cfg.AllowedExtensions,
		converter:      converter,
		flashes:        NewFlashStore(),
		baseCtx:        context.Background(),
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.uploadForm)
	r.POST("/", s.upload)
	r.GET("/result/:bundle", s.result)
	r.GET("/output/:bundle/:filename", s.outputFile)

	s.router = r
	return s, nil
}

// Handler http.Handler сервера, нужен для тестов.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run слушает адрес до отмены контекста. Конвертации живут на ctx, а не на контексте запроса.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Web interface listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) uploadForm(c *gin.Context) {
	c.HTML(http.StatusOK, "upload.html", gin.H{
		"Flashes": s.flashes.Pop(c),
	})
}

func (s *Server) upload(c *gin.Context) {
	if c.Request.ContentLength > s.maxUploadBytes {
		s.fail(c, fmt.Sprintf(msgTooLarge, humanize.Bytes(uint64(s.maxUploadBytes))))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, fmt.Sprintf(msgTooLarge, humanize.Bytes(uint64(s.maxUploadBytes))))
			return
		}
		s.fail(c, msgNoFile)
		return
	}
	if header.Filename == "" {
		s.fail(c, msgNoFile)
		return
	}

	name := SecureFilename(header.Filename)
	if !allowedFile(header.Filename, s.allowed) || !allowedFile(name, s.allowed) || bundleID(name) == "" {
		s.fail(c, msgInvalidType)
		return
	}
	id := bundleID(name)

	log.Printf("Upload %s (%s) -> bundle %s", header.Filename, humanize.Bytes(uint64(header.Size)), id)

	sum, err := contentHash(header)
	if err != nil {
		s.fail(c, msgNoFile)
		return
	}

	// Одинаковый файл под тем же именем делит один запуск, разный ждёт своей очереди на каталог.
	_, err, _ = s.runs.Do(id+":"+sum, func() (any, error) {
		lock := s.bundleLock(id)
		lock.Lock()
		defer lock.Unlock()

		if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
		uploadPath := filepath.Join(s.uploadDir, name)
		if err := c.SaveUploadedFile(header, uploadPath); err != nil {
			return nil, fmt.Errorf("save upload: %w", err)
		}
		return s.converter.Convert(s.baseCtx, uploadPath, filepath.Join(s.outputDir, id))
	})
	if err != nil {
		log.Printf("Error processing %s: %v", name, err)
		s.fail(c, fmt.Sprintf(msgProcessingErr, err.Error()))
		return
	}

	c.Redirect(http.StatusSeeOther, "/result/"+id)
}

func (s *Server) bundleLock(id string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func contentHash(header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Server) result(c *gin.Context) {
	id := c.Param("bundle")
	if !validElement(id) {
		s.fail(c, msgHTMLNotFound)
		return
	}

	files, err := s.converter.Lookup(c.Request.Context(), filepath.Join(s.outputDir, id))
	if err != nil {
		s.fail(c, msgHTMLNotFound)
		return
	}

	c.HTML(http.StatusOK, "result.html", gin.H{
		"Bundle": id,
		"Files":  files,
	})
}

// outputFile отдаёт файл бандла как есть. http.ServeFile не подходит: он редиректит /index.html.
func (s *Server) outputFile(c *gin.Context) {
	id, filename := c.Param("bundle"), c.Param("filename")
	if !validElement(id) || !validElement(filename) {
		c.Status(http.StatusNotFound)
		return
	}

	f, err := os.Open(filepath.Join(s.outputDir, id, filename))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		c.Status(http.StatusNotFound)
		return
	}

	http.ServeContent(c.Writer, c.Request, filename, info.ModTime(), f)
}

// fail показывает сообщение на форме загрузки.
func (s *Server) fail(c *gin.Context, message string) {
	s.flashes.Add(c, categoryError, message)
	c.Redirect(http.StatusSeeOther, "/")
}
