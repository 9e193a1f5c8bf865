// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация и форматирование сумм в старах.
package common

import (
	"fmt"
	"math"
)

// PluralizeStars возвращает правильную форму слова «звезда» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "звезда" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "звезды" (2, 3, 4, 22, ...)
//   - Остальные случаи → "звезд" (0, 5-20, 25-30, 100, ...)
func PluralizeStars(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "звезда"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "звезды"
	}
	return "звезд"
}

// FormatStars форматирует сумму в читабельную строку.
// Пример: FormatStars(150) → "150 звезд ⭐"
func FormatStars(amount int64) string {
	return fmt.Sprintf("%d %s ⭐", amount, PluralizeStars(amount))
}

// PluralizeParticipants возвращает правильную форму слова «участник».
//
// Правила:
//   - 1, 21, 31 → "участник"
//   - 2-4, 22-24 → "участника"
//   - 5-20, 25-30 → "участников"
func PluralizeParticipants(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "участник"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "участника"
	}
	return "участников"
}
