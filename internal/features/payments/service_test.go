package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftflow.ru/giftflow-bot/internal/common"
)

type fakeStore struct {
	recorded []*Contribution
	result   *Result
	err      error
}

func (f *fakeStore) RecordPayment(_ context.Context, c *Contribution) (*Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.recorded = append(f.recorded, c)
	return f.result, nil
}

type fakeNotifier struct {
	sent []string
	to   []int64
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, text)
	f.to = append(f.to, chatID)
	return f.err
}

func TestParsePayload(t *testing.T) {
	id, err := parsePayload("collection_42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "collection_", "collection_abc", "santa_5", "42"} {
		_, err := parsePayload(bad)
		assert.ErrorIs(t, err, common.ErrBadIdentifier, "payload=%q", bad)
	}
}

func TestInvoicePayload_RoundTrip(t *testing.T) {
	id, err := parsePayload(InvoicePayload(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestHandleConfirmedPayment_DropsMalformedPayload(t *testing.T) {
	store := &fakeStore{}
	s := NewService(store, &fakeNotifier{})

	// Кривой payload не ошибка и не проводка
	err := s.HandleConfirmedPayment(context.Background(), 1, "garbage", 100, "XTR", "ch_1")
	require.NoError(t, err)
	assert.Empty(t, store.recorded)
}

func TestHandleConfirmedPayment_RecordsContribution(t *testing.T) {
	store := &fakeStore{result: &Result{CollectionID: 5, CurrentAmount: 100, Amount: 1000}}
	notifier := &fakeNotifier{}
	s := NewService(store, notifier)

	err := s.HandleConfirmedPayment(context.Background(), 77, "collection_5", 100, "XTR", "ch_1")
	require.NoError(t, err)

	require.Len(t, store.recorded, 1)
	c := store.recorded[0]
	assert.Equal(t, int64(5), c.CollectionID)
	assert.Equal(t, int64(77), c.UserID)
	assert.Equal(t, int64(100), c.Amount)
	assert.Equal(t, "XTR", c.Currency)
	assert.Equal(t, "ch_1", c.ChargeID)

	// Цель не достигнута — объявления нет
	assert.Empty(t, notifier.sent)
}

func TestHandleConfirmedPayment_GoalReachedNotifiesOnce(t *testing.T) {
	store := &fakeStore{result: &Result{
		CollectionID:  5,
		Goal:          "Подарок Маше",
		TargetChatID:  -100500,
		Amount:        1000,
		CurrentAmount: 1100,
		GoalReached:   true,
	}}
	notifier := &fakeNotifier{}
	s := NewService(store, notifier)

	err := s.HandleConfirmedPayment(context.Background(), 77, "collection_5", 600, "XTR", "ch_1")
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(-100500), notifier.to[0])
	assert.Contains(t, notifier.sent[0], "Подарок Маше")
	assert.Contains(t, notifier.sent[0], "1100")

	// Повторный платеж в уже завершенный сбор: хранилище больше не взводит флаг
	store.result = &Result{CollectionID: 5, Amount: 1000, CurrentAmount: 1200, GoalReached: false}
	require.NoError(t, s.HandleConfirmedPayment(context.Background(), 78, "collection_5", 100, "XTR", "ch_2"))
	assert.Len(t, notifier.sent, 1)
}

func TestHandleConfirmedPayment_NotifyFailureDoesNotFail(t *testing.T) {
	store := &fakeStore{result: &Result{CollectionID: 5, Amount: 100, CurrentAmount: 100, GoalReached: true}}
	notifier := &fakeNotifier{err: errors.New("chat not found")}
	s := NewService(store, notifier)

	// Платеж проведен — ошибка объявления не всплывает
	err := s.HandleConfirmedPayment(context.Background(), 77, "collection_5", 100, "XTR", "ch_1")
	assert.NoError(t, err)
}

func TestHandleConfirmedPayment_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{err: common.ErrCollectionNotFound}
	s := NewService(store, &fakeNotifier{})

	err := s.HandleConfirmedPayment(context.Background(), 77, "collection_5", 100, "XTR", "ch_1")
	assert.ErrorIs(t, err, common.ErrCollectionNotFound)
}
