// Package santa реализует игру «Тайный Санта»: набор участников,
// жеребьевку без самодарения и выдачу состояния для мини-аппа.
// models.go описывает структуры игры и участников.
package santa

import "time"

// Статусы игры. Переход recruiting → active делает только жеребьевка,
// и ровно один раз.
const (
	StatusRecruiting = "recruiting"
	StatusActive     = "active"
)

// DefaultTitle подставляется, если создатель не назвал игру.
const DefaultTitle = "Тайный Санта"

// emptyWishlistPlaceholder показывается, когда у подопечного нет вишлиста.
const emptyWishlistPlaceholder = "Вишлист пуст"

// Game представляет одну игру.
type Game struct {
	ID        int64     `db:"id"`
	CreatorID int64     `db:"creator_id"`
	Title     string    `db:"title"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// Participant — участие пользователя в игре. Пара (game_id, user_id) уникальна.
// TargetUserID равен nil, пока игра в наборе; после жеребьевки — всегда заполнен
// и никогда не равен самому участнику.
type Participant struct {
	ID           int64  `db:"id"`
	GameID       int64  `db:"game_id"`
	UserID       int64  `db:"user_id"`
	Wishlist     string `db:"wishlist"`
	TargetUserID *int64 `db:"target_user_id"`
}

// Pair — результат жеребьевки: кто кому дарит.
type Pair struct {
	GiverID    int64
	ReceiverID int64
}

// Participation — строка «пользователь в игре» вместе с данными игры.
// Возвращается хранилищем для построения UserState.
type Participation struct {
	GameID       int64
	Wishlist     string
	TargetUserID *int64
	Title        string
	Status       string
	CreatorID    int64
}

// StaleGame — игра, зависшая в наборе (для напоминаний создателю).
type StaleGame struct {
	ID           int64
	CreatorID    int64
	Title        string
	Participants int
}

// UserState — состояние пользователя в его последней игре для мини-аппа.
// Идентификатор отдается строкой: JS теряет точность на больших int64.
type UserState struct {
	GameID     int64  `json:"game_id,string"`
	GameTitle  string `json:"game_title"`
	GameStatus string `json:"game_status"`
	IsCreator  bool   `json:"is_creator"`
	MyWishlist string `json:"my_wishlist"`
	// Только для создателя игры в наборе
	InviteLink string `json:"invite_link,omitempty"`
	// Только пока идет набор
	ParticipantsCount int `json:"participants_count,omitempty"`
	// Только после жеребьевки
	TargetUserName string `json:"target_user_name,omitempty"`
	TargetWishlist string `json:"target_wishlist,omitempty"`
}
