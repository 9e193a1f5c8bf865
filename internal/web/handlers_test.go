package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftflow.ru/giftflow-bot/internal/common"
	"giftflow.ru/giftflow-bot/internal/config"
	"giftflow.ru/giftflow-bot/internal/features/chats"
	"giftflow.ru/giftflow-bot/internal/features/collections"
	"giftflow.ru/giftflow-bot/internal/features/santa"
)

type fakeCollections struct {
	created    *collections.Collection
	createErr  error
	info       *collections.Info
	updated    bool
	deleteErr  error
	lastUpdate struct {
		id, requesterID       int64
		description, imageURL string
	}
}

func (f *fakeCollections) Create(_ context.Context, creatorID, targetChatID int64, goal string, amount int64) (*collections.Collection, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &collections.Collection{
		ID: 77, CreatorID: creatorID, TargetChatID: targetChatID, Goal: goal, Amount: amount,
	}
	return f.created, nil
}

func (f *fakeCollections) UpdateDetails(_ context.Context, id, requesterID int64, description, imageURL string) (bool, error) {
	f.lastUpdate.id = id
	f.lastUpdate.requesterID = requesterID
	f.lastUpdate.description = description
	f.lastUpdate.imageURL = imageURL
	return f.updated, nil
}

func (f *fakeCollections) GetByID(_ context.Context, id int64) (*collections.Info, error) {
	return f.info, nil
}

func (f *fakeCollections) ListForUser(_ context.Context, _ int64) (*collections.UserCollections, error) {
	return &collections.UserCollections{
		Created:      []collections.Summary{{ID: 1, Goal: "Подарок", Amount: 100, Current: 50, Status: "active", Percent: 50}},
		Participated: []collections.Summary{},
	}, nil
}

func (f *fakeCollections) Delete(_ context.Context, _, _ int64) error {
	return f.deleteErr
}

type fakeSanta struct {
	state      *santa.UserState
	joinErr    error
	startErr   error
	lastGameID int64
	lastUserID int64
}

func (f *fakeSanta) CreateGame(_ context.Context, _ int64, _ string) (int64, error) {
	return 42, nil
}

func (f *fakeSanta) Join(_ context.Context, gameID, userID int64, _ string) error {
	f.lastGameID, f.lastUserID = gameID, userID
	return f.joinErr
}

func (f *fakeSanta) StateForUser(_ context.Context, _ int64) (*santa.UserState, error) {
	return f.state, nil
}

func (f *fakeSanta) StartShuffle(_ context.Context, gameID, requesterID int64) error {
	f.lastGameID, f.lastUserID = gameID, requesterID
	return f.startErr
}

func (f *fakeSanta) MarkSent(_ context.Context, _, _ int64) error     { return nil }
func (f *fakeSanta) MarkReceived(_ context.Context, _, _ int64) error { return nil }

type fakeChats struct{}

func (f *fakeChats) CommonChats(_ context.Context, _ int64) ([]chats.ChatOption, error) {
	return []chats.ChatOption{{ChatID: -1001, Title: "Семья"}}, nil
}

type fakeMessenger struct {
	announcements []string
	announceErr   error
	invoiceLink   string
	lastPayload   string
	lastAmount    int64
}

func (f *fakeMessenger) NotifyWithButton(_ context.Context, _ int64, text, _, _ string) error {
	if f.announceErr != nil {
		return f.announceErr
	}
	f.announcements = append(f.announcements, text)
	return nil
}

func (f *fakeMessenger) InvoiceLink(_ context.Context, _, _, payload string, amount int64) (string, error) {
	f.lastPayload = payload
	f.lastAmount = amount
	return f.invoiceLink, nil
}

func (f *fakeMessenger) Username() string { return "giftflow_bot" }

type fakeUploader struct {
	enabled bool
	url     string
}

func (f *fakeUploader) Enabled() bool { return f.enabled }

func (f *fakeUploader) Upload(_ context.Context, _ string, _ io.Reader) (string, error) {
	return f.url, nil
}

type testDeps struct {
	collections *fakeCollections
	santa       *fakeSanta
	messenger   *fakeMessenger
	uploader    *fakeUploader
}

func newTestServer() (*Server, *testDeps) {
	deps := &testDeps{
		collections: &fakeCollections{},
		santa:       &fakeSanta{},
		messenger:   &fakeMessenger{invoiceLink: "https://t.me/$invoice"},
		uploader:    &fakeUploader{},
	}
	cfg := &config.Config{
		WebPort:           8080,
		WebAllowedOrigins: "*",
		WebRateLimit:      1000,
	}
	srv := NewServer(cfg, deps.collections, deps.santa, &fakeChats{}, deps.messenger, deps.uploader)
	return srv, deps
}

func postJSON(t *testing.T, srv *Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed), "тело: %s", raw)
	return resp, parsed
}

func TestChats(t *testing.T) {
	srv, _ := newTestServer()

	resp, body := postJSON(t, srv, "/api/chats", `{"user_id":"100"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	list, isList := body["chats"].([]any)
	require.True(t, isList)
	require.Len(t, list, 1)
	chat := list[0].(map[string]any)
	// Идентификатор чата отдается строкой
	assert.Equal(t, "-1001", chat["chat_id"])
	assert.Equal(t, "Семья", chat["title"])
}

func TestCreateCollection(t *testing.T) {
	srv, deps := newTestServer()

	resp, body := postJSON(t, srv, "/api/collections/create",
		`{"user_id":100,"chat_id":"-1001","goal":"Подарок шефу","amount":"500"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "77", body["collection_id"])

	// user_id пришел числом, chat_id и amount — строками: оба варианта разобраны
	require.NotNil(t, deps.collections.created)
	assert.Equal(t, int64(100), deps.collections.created.CreatorID)
	assert.Equal(t, int64(-1001), deps.collections.created.TargetChatID)
	assert.Equal(t, int64(500), deps.collections.created.Amount)

	// Объявление ушло в целевой чат
	require.Len(t, deps.messenger.announcements, 1)
	assert.Contains(t, deps.messenger.announcements[0], "Подарок шефу")
	assert.Contains(t, deps.messenger.announcements[0], "500 звезд")
}

func TestCreateCollection_InvalidAmount(t *testing.T) {
	srv, deps := newTestServer()
	deps.collections.createErr = common.ErrInvalidAmount

	resp, body := postJSON(t, srv, "/api/collections/create",
		`{"user_id":100,"goal":"x","amount":-5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestCreateCollection_AnnounceFailureStillOk(t *testing.T) {
	srv, deps := newTestServer()
	deps.messenger.announceErr = errors.New("bot kicked from chat")

	resp, body := postJSON(t, srv, "/api/collections/create",
		`{"user_id":100,"chat_id":-1001,"goal":"x","amount":500}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestCollectionInfo_NotFound(t *testing.T) {
	srv, _ := newTestServer()

	resp, body := postJSON(t, srv, "/api/collections/info", `{"collection_id":"999"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestCollectionInfo(t *testing.T) {
	srv, deps := newTestServer()
	deps.collections.info = &collections.Info{
		ID: 7, CreatorID: 100, Goal: "Подарок", Amount: 200, Current: 50, Status: "active", Percent: 25,
	}

	resp, body := postJSON(t, srv, "/api/collections/info", `{"collection_id":7}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	coll := body["collection"].(map[string]any)
	assert.Equal(t, "7", coll["id"])
	assert.Equal(t, "100", coll["creator_id"])
	assert.Equal(t, float64(25), coll["percent"])
}

func TestUpdateCollection_NotCreator(t *testing.T) {
	srv, deps := newTestServer()
	deps.collections.updated = false

	resp, body := postJSON(t, srv, "/api/collections/update",
		`{"user_id":200,"collection_id":7,"description":"новое","image_url":""}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestUpdateCollection(t *testing.T) {
	srv, deps := newTestServer()
	deps.collections.updated = true

	resp, body := postJSON(t, srv, "/api/collections/update",
		`{"user_id":100,"collection_id":"7","description":"новое","image_url":"https://x/y.png"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, int64(7), deps.collections.lastUpdate.id)
	assert.Equal(t, int64(100), deps.collections.lastUpdate.requesterID)
}

func TestDeleteCollection_MoneyCollected(t *testing.T) {
	srv, deps := newTestServer()
	deps.collections.deleteErr = common.ErrMoneyCollected

	resp, body := postJSON(t, srv, "/api/collections/delete",
		`{"user_id":100,"collection_id":7}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestInvoice(t *testing.T) {
	srv, deps := newTestServer()
	deps.collections.info = &collections.Info{ID: 7, Goal: "Подарок", Amount: 200, Status: "active"}

	resp, body := postJSON(t, srv, "/api/collections/invoice",
		`{"collection_id":"7","amount":50}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://t.me/$invoice", body["invoice_link"])
	assert.Equal(t, "collection_7", deps.messenger.lastPayload)
	assert.Equal(t, int64(50), deps.messenger.lastAmount)
}

func TestInvoice_BadAmount(t *testing.T) {
	srv, _ := newTestServer()

	resp, body := postJSON(t, srv, "/api/collections/invoice",
		`{"collection_id":7,"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestMyCollections(t *testing.T) {
	srv, _ := newTestServer()

	resp, body := postJSON(t, srv, "/api/collections/my", `{"user_id":"100"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	created := body["created"].([]any)
	require.Len(t, created, 1)
	// Пустой список сериализуется как [], а не null
	participated, isList := body["participated"].([]any)
	require.True(t, isList)
	assert.Empty(t, participated)
}

func TestSantaState_NoGame(t *testing.T) {
	srv, _ := newTestServer()

	resp, body := postJSON(t, srv, "/api/santa/state", `{"user_id":100}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Nil(t, body["game"])
}

func TestSantaState(t *testing.T) {
	srv, deps := newTestServer()
	deps.santa.state = &santa.UserState{
		GameID:            42,
		GameTitle:         "Офис",
		GameStatus:        santa.StatusRecruiting,
		IsCreator:         true,
		ParticipantsCount: 3,
		InviteLink:        "https://t.me/giftflow_bot/app?startapp=santa_42",
	}

	resp, body := postJSON(t, srv, "/api/santa/state", `{"user_id":100}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	game := body["game"].(map[string]any)
	assert.Equal(t, "42", game["game_id"])
	assert.Equal(t, "Офис", game["game_title"])
	assert.Equal(t, true, game["is_creator"])
}

func TestSantaCreate(t *testing.T) {
	srv, _ := newTestServer()

	resp, body := postJSON(t, srv, "/api/santa/create", `{"user_id":100,"title":"Офис"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "42", body["game_id"])
}

func TestSantaJoin_NotRecruiting(t *testing.T) {
	srv, deps := newTestServer()
	deps.santa.joinErr = common.ErrGameNotRecruiting

	resp, body := postJSON(t, srv, "/api/santa/join",
		`{"user_id":100,"game_id":"42","wishlist":"носки"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestSantaStart_NotCreator(t *testing.T) {
	srv, deps := newTestServer()
	deps.santa.startErr = common.ErrNotGameCreator

	resp, body := postJSON(t, srv, "/api/santa/start", `{"user_id":200,"game_id":42}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestSantaStart(t *testing.T) {
	srv, deps := newTestServer()

	resp, body := postJSON(t, srv, "/api/santa/start", `{"user_id":"100","game_id":"42"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, int64(42), deps.santa.lastGameID)
	assert.Equal(t, int64(100), deps.santa.lastUserID)
}

func TestUpload_NotConfigured(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBadIdentifier(t *testing.T) {
	srv, _ := newTestServer()

	resp, body := postJSON(t, srv, "/api/collections/info", `{"collection_id":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestBadJSONBody(t *testing.T) {
	srv, _ := newTestServer()

	resp, body := postJSON(t, srv, "/api/chats", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}
