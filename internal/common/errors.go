// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Тексты коротких причин отдаются в мини-апп как есть, поэтому они
// на русском и без технических деталей.
package common

import "errors"

// Ошибки сборов (коллективные сборы на подарки)
var (
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrBadIdentifier — идентификатор с границы не распарсился в число
	ErrBadIdentifier = errors.New("некорректный идентификатор")
	// ErrCollectionNotFound — сбор не найден в базе
	ErrCollectionNotFound = errors.New("сбор не найден")
	// ErrNotCreator — действие доступно только создателю сбора
	ErrNotCreator = errors.New("нет прав: вы не создатель сбора")
	// ErrMoneyCollected — удаление сбора с ненулевым балансом запрещено
	ErrMoneyCollected = errors.New("нельзя удалить: деньги уже собраны")
)

// Ошибки Тайного Санты
var (
	// ErrGameNotRecruiting — игра не существует или набор уже закрыт
	ErrGameNotRecruiting = errors.New("игра не в статусе набора")
	// ErrNotGameCreator — жеребьевку запускает только создатель игры
	ErrNotGameCreator = errors.New("нет прав: жеребьевку запускает создатель")
	// ErrTooFewParticipants — для жеребьевки нужно минимум два участника
	ErrTooFewParticipants = errors.New("слишком мало участников")
	// ErrShuffleFailed — не удалось подобрать расстановку без самодарения
	ErrShuffleFailed = errors.New("ошибка жеребьевки")
)
