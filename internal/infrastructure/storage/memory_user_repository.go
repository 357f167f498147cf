package storage

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"ui2html/internal/domain/entity"
	"ui2html/internal/domain/port"
)

const (
	// DefaultUserIdleTTL через столько неактивный пользователь забывается
	DefaultUserIdleTTL = 24 * time.Hour
	userCleanupPeriod  = time.Hour
)

// MemoryUserRepository in-memory хранилище диалоговых состояний поверх go-cache.
// Наружу отдаются копии, менять состояние можно только через Save/UpdateState.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users *cache.Cache
}

// NewMemoryUserRepository создаёт хранилище с TTL по умолчанию
func NewMemoryUserRepository() *MemoryUserRepository {
	return NewMemoryUserRepositoryWithTTL(DefaultUserIdleTTL)
}

// NewMemoryUserRepositoryWithTTL создаёт хранилище, где записи живут ttl с последнего изменения
func NewMemoryUserRepositoryWithTTL(ttl time.Duration) *MemoryUserRepository {
	return &MemoryUserRepository{
		users: cache.New(ttl, userCleanupPeriod),
	}
}

// Get возвращает копию пользователя, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.users.Get(userKey(userID)); ok {
		user := v.(entity.User)
		return &user, nil
	}

	user := entity.NewUser(userID, chatID)
	r.users.SetDefault(userKey(userID), *user)
	return user, nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users.SetDefault(userKey(user.ID), *user)
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние; неизвестный пользователь игнорируется
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.users.Get(userKey(userID))
	if !ok {
		return nil
	}

	user := v.(entity.User)
	user.SetState(state)
	r.users.SetDefault(userKey(userID), user)
	return nil
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
