// Package payments принимает подтверждения платежей Telegram Stars
// и проводит их по сбору. models.go описывает запись вклада и результат проводки.
package payments

import "time"

// Contribution — один подтвержденный вклад. Запись неизменяема:
// после вставки она никогда не обновляется и не удаляется отдельно от сбора.
type Contribution struct {
	ID           int64     `db:"id"`
	CollectionID int64     `db:"collection_id"`
	UserID       int64     `db:"user_id"` // Кто заплатил
	Amount       int64     `db:"amount"`  // Сумма в старах
	Currency     string    `db:"currency"`
	// Идентификатор платежа на стороне Telegram — для сверки
	ChargeID  string    `db:"telegram_payment_charge_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Result — состояние сбора сразу после проводки вклада.
type Result struct {
	CollectionID  int64
	Goal          string
	TargetChatID  int64
	Amount        int64 // Цель сбора
	CurrentAmount int64 // Собрано после этого вклада
	// GoalReached взводится только на переходе active → finished,
	// то есть не чаще одного раза за жизнь сбора.
	GoalReached bool
}
