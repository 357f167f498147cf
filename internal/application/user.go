package app

import (
	"context"
	"sync"

	"ui2html/internal/domain/entity"
	"ui2html/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
	mu   sync.Mutex // сериализует StartProcessing
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginConvert(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingScreenshot)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// StartProcessing помечает пользователя занятым. ok=false если конвертация уже идёт.
func (s *UserService) StartProcessing(ctx context.Context, userID, chatID int64) (user *entity.User, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err = s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, false, err
	}
	if user.Busy() {
		return user, false, nil
	}

	user.SetState(entity.StateProcessing)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Finish возвращает пользователя в главное меню после конвертации.
func (s *UserService) Finish(ctx context.Context, userID int64) error {
	return s.repo.UpdateState(ctx, userID, entity.StateMainMenu)
}
