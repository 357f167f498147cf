package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu           UserState = "main_menu"           // В главном меню
	StateAwaitingScreenshot UserState = "awaiting_screenshot" // Ожидание скриншота интерфейса
	StateProcessing         UserState = "processing"          // Идёт конвертация
)

// User представляет пользователя бота
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// Busy true пока для пользователя идёт конвертация
func (u *User) Busy() bool {
	return u.State == StateProcessing
}
