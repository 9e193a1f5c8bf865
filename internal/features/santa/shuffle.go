// Package santa — shuffle.go подбирает случайную расстановку «кто кому дарит».
// Метод — rejection sampling: тасуем получателей, пока никто не выпал сам себе.
// Ожидаемое число попыток ≈ e, потолок нужен только для гарантии завершения.
package santa

import (
	"math/rand"

	"giftflow.ru/giftflow-bot/internal/common"
)

// DefaultShuffleAttempts — потолок попыток жеребьевки.
const DefaultShuffleAttempts = 20

// DrawReceivers возвращает перестановку givers без неподвижных точек:
// receivers[i] — кому дарит givers[i], и receivers[i] != givers[i] для всех i.
// Каждый участник встречается среди получателей ровно один раз.
//
// Если за maxAttempts попыток расстановка не нашлась — ErrShuffleFailed;
// вызывающий обязан ничего не записывать.
func DrawReceivers(givers []int64, rng *rand.Rand, maxAttempts int) ([]int64, error) {
	if len(givers) < 2 {
		return nil, common.ErrTooFewParticipants
	}

	receivers := make([]int64, len(givers))
	copy(receivers, givers)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		rng.Shuffle(len(receivers), func(i, j int) {
			receivers[i], receivers[j] = receivers[j], receivers[i]
		})
		if !hasFixedPoint(givers, receivers) {
			return receivers, nil
		}
	}

	return nil, common.ErrShuffleFailed
}

// hasFixedPoint проверяет, выпал ли кто-то сам себе.
func hasFixedPoint(givers, receivers []int64) bool {
	for i := range givers {
		if givers[i] == receivers[i] {
			return true
		}
	}
	return false
}
