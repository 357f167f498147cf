package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	sessionCookie = "ui2html_session"
	sessionKey    = "session_id"
	flashLifetime = 10 * time.Minute
	flashJanitor  = 20 * time.Minute
	categoryError = "error"
	sessionMaxAge = int(flashLifetime / time.Second)
)

// Flash одноразовое сообщение для следующей отрисовки страницы.
type Flash struct {
	Category string
	Message  string
}

// FlashStore хранит flash-сообщения по id сессии из cookie.
type FlashStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewFlashStore() *FlashStore {
	return &FlashStore{cache: cache.New(flashLifetime, flashJanitor)}
}

// Add добавляет сообщение; при отсутствии сессии выдаёт новую cookie.
func (s *FlashStore) Add(c *gin.Context, category, message string) {
	id := s.sessionID(c, true)

	s.mu.Lock()
	defer s.mu.Unlock()

	var flashes []Flash
	if v, ok := s.cache.Get(id); ok {
		flashes = v.([]Flash)
	}
	flashes = append(flashes, Flash{Category: category, Message: message})
	s.cache.Set(id, flashes, cache.DefaultExpiration)
}

// Pop забирает и удаляет все сообщения сессии.
func (s *FlashStore) Pop(c *gin.Context) []Flash {
	id := s.sessionID(c, false)
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	s.cache.Delete(id)
	return v.([]Flash)
}

func (s *FlashStore) sessionID(c *gin.Context, create bool) string {
	if id := c.GetString(sessionKey); id != "" {
		return id
	}
	if id, err := c.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	if !create {
		return ""
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, sessionMaxAge, "/", "", false, true)
	c.Set(sessionKey, id)
	return id
}
