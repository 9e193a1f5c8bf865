package collections

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftflow.ru/giftflow-bot/internal/common"
)

// fakeStore — хранилище в памяти для тестов сервиса.
type fakeStore struct {
	collections map[int64]*Collection
	nextID      int64
	deleteErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{collections: make(map[int64]*Collection), nextID: 1}
}

func (f *fakeStore) Create(_ context.Context, c *Collection) (int64, error) {
	id := f.nextID
	f.nextID++
	stored := *c
	stored.ID = id
	stored.CreatedAt = time.Now()
	f.collections[id] = &stored
	return id, nil
}

func (f *fakeStore) UpdateDetails(_ context.Context, id, creatorID int64, description, imageURL string) (bool, error) {
	c, ok := f.collections[id]
	if !ok || c.CreatorID != creatorID {
		return false, nil
	}
	c.Description = description
	c.ImageURL = imageURL
	return true, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Collection, error) {
	c, ok := f.collections[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (f *fakeStore) ListCreated(_ context.Context, userID int64) ([]*Collection, error) {
	var out []*Collection
	for _, c := range f.collections {
		if c.CreatorID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListContributed(_ context.Context, _ int64) ([]*Collection, error) {
	return nil, nil
}

func (f *fakeStore) DeleteSafely(_ context.Context, id, requesterID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	c, ok := f.collections[id]
	if !ok {
		return common.ErrCollectionNotFound
	}
	if c.CreatorID != requesterID {
		return common.ErrNotCreator
	}
	if c.CurrentAmount > 0 {
		return common.ErrMoneyCollected
	}
	delete(f.collections, id)
	return nil
}

func TestCreate_Validation(t *testing.T) {
	s := NewService(newFakeStore())

	_, err := s.Create(context.Background(), 1, -100, "Подарок", 0)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = s.Create(context.Background(), 1, -100, "Подарок", -5)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestCreate_Defaults(t *testing.T) {
	s := NewService(newFakeStore())

	c, err := s.Create(context.Background(), 1, -100, "Подарок", 1000)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, c.Status)
	assert.Equal(t, int64(0), c.CurrentAmount)
	assert.Equal(t, DefaultImageURL, c.ImageURL)
	assert.NotEmpty(t, c.Description)
	assert.NotZero(t, c.ID)
}

func TestGetByID_Percent(t *testing.T) {
	store := newFakeStore()
	s := NewService(store)

	c, err := s.Create(context.Background(), 1, -100, "Подарок", 1000)
	require.NoError(t, err)
	store.collections[c.ID].CurrentAmount = 250

	info, err := s.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 25, info.Percent)

	// Деление на ноль при нулевой цели не случается
	store.collections[c.ID].Amount = 0
	info, err = s.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Percent)
}

func TestGetByID_NotFoundIsNil(t *testing.T) {
	s := NewService(newFakeStore())

	info, err := s.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestUpdateDetails_OnlyCreator(t *testing.T) {
	store := newFakeStore()
	s := NewService(store)

	c, err := s.Create(context.Background(), 1, -100, "Подарок", 1000)
	require.NoError(t, err)

	// Чужой запрос не меняет строку, но и не падает
	applied, err := s.UpdateDetails(context.Background(), c.ID, 2, "взлом", "http://x")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, DefaultImageURL, store.collections[c.ID].ImageURL)

	applied, err = s.UpdateDetails(context.Background(), c.ID, 1, "новое описание", "http://img")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "новое описание", store.collections[c.ID].Description)
}

func TestDelete_Reasons(t *testing.T) {
	store := newFakeStore()
	s := NewService(store)

	c, err := s.Create(context.Background(), 1, -100, "Подарок", 1000)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(context.Background(), 999, 1), common.ErrCollectionNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), c.ID, 2), common.ErrNotCreator)

	store.collections[c.ID].CurrentAmount = 100
	assert.ErrorIs(t, s.Delete(context.Background(), c.ID, 1), common.ErrMoneyCollected)

	store.collections[c.ID].CurrentAmount = 0
	require.NoError(t, s.Delete(context.Background(), c.ID, 1))
	_, ok := store.collections[c.ID]
	assert.False(t, ok)
}
