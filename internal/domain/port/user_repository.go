package port

import (
	"context"

	"ui2html/internal/domain/entity"
)

// UserRepository хранилище диалоговых состояний пользователей бота
type UserRepository interface {
	// Get возвращает снимок пользователя, создаёт нового в главном меню если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)
	// Save записывает снимок обратно
	Save(ctx context.Context, user *entity.User) error
	// UpdateState меняет только состояние, без чтения снимка
	UpdateState(ctx context.Context, userID int64, state entity.UserState) error
}
