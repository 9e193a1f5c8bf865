package santa

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftflow.ru/giftflow-bot/internal/common"
)

// assertDerangement проверяет, что receivers — перестановка givers
// без неподвижных точек.
func assertDerangement(t *testing.T, givers, receivers []int64) {
	t.Helper()
	require.Len(t, receivers, len(givers))

	seen := make(map[int64]bool, len(receivers))
	for i := range givers {
		assert.NotEqual(t, givers[i], receivers[i], "участник %d выпал сам себе", givers[i])
		assert.False(t, seen[receivers[i]], "получатель %d встретился дважды", receivers[i])
		seen[receivers[i]] = true
	}
	for _, g := range givers {
		assert.True(t, seen[g], "участник %d никому не достался", g)
	}
}

func TestDrawReceivers_TooFew(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := DrawReceivers(nil, rng, DefaultShuffleAttempts)
	assert.ErrorIs(t, err, common.ErrTooFewParticipants)

	_, err = DrawReceivers([]int64{42}, rng, DefaultShuffleAttempts)
	assert.ErrorIs(t, err, common.ErrTooFewParticipants)
}

func TestDrawReceivers_TwoParticipants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	givers := []int64{1, 2}

	// Для двоих существует единственная расстановка — обмен
	for i := 0; i < 50; i++ {
		receivers, err := DrawReceivers(givers, rng, DefaultShuffleAttempts)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 1}, receivers)
	}
}

func TestDrawReceivers_PropertyManySizes(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))

	for n := 2; n <= 30; n++ {
		givers := make([]int64, n)
		for i := range givers {
			givers[i] = int64(100 + i)
		}
		for trial := 0; trial < 20; trial++ {
			receivers, err := DrawReceivers(givers, rng, DefaultShuffleAttempts)
			require.NoError(t, err, "n=%d trial=%d", n, trial)
			assertDerangement(t, givers, receivers)
		}
	}
}

func TestDrawReceivers_DoesNotMutateGivers(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	givers := []int64{1, 2, 3, 4}

	_, err := DrawReceivers(givers, rng, DefaultShuffleAttempts)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, givers)
}

func TestDrawReceivers_AttemptBudgetExhausted(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// Нулевой потолок попыток — гарантированный отказ без записи
	_, err := DrawReceivers([]int64{1, 2, 3}, rng, 0)
	assert.ErrorIs(t, err, common.ErrShuffleFailed)
}

func TestDrawReceivers_AllSixDerangementsReachable(t *testing.T) {
	// Для {1,2,3} существуют ровно 2 расстановки; для {1,2,3,4} — 9.
	// Проверяем, что сэмплер добирается до разных, а не зациклен на одной.
	rng := rand.New(rand.NewSource(99))
	givers := []int64{1, 2, 3, 4}

	distinct := make(map[[4]int64]bool)
	for i := 0; i < 500; i++ {
		receivers, err := DrawReceivers(givers, rng, DefaultShuffleAttempts)
		require.NoError(t, err)
		distinct[[4]int64{receivers[0], receivers[1], receivers[2], receivers[3]}] = true
	}
	assert.Greater(t, len(distinct), 1)
	assert.LessOrEqual(t, len(distinct), 9)
}
