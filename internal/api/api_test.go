package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankroom/internal/api"
	"bankroom/internal/api/response"
	"bankroom/internal/factory"
	"bankroom/internal/model"
	"bankroom/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// API tests are integration tests - use production factory with
	// real random/clock and in-memory storage
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		IdentityService: app.IdentityService,
		RoomController:  app.RoomController,
		LedgerService:   app.LedgerService,
		HubManager:      app.HubManager,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// register creates a user and returns the session token
func (ts *testServer) register(t *testing.T, username, name string) string {
	t.Helper()

	body := map[string]string{
		"username":     username,
		"password":     "secret123",
		"display_name": name,
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.SessionToken
}

// createRoom creates a room and returns its code
func (ts *testServer) createRoom(t *testing.T, token string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/rooms", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var snapshot response.RoomSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	return snapshot.Room.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registerBody := map[string]string{
		"username":     "ana",
		"password":     "secret123",
		"display_name": "Ana",
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var registerResp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &registerResp))
	assert.Equal(t, "Ana", registerResp.User.DisplayName)
	assert.NotEmpty(t, registerResp.SessionToken)

	loginBody := map[string]string{
		"username": "ana",
		"password": "secret123",
	}
	rr = ts.request(http.MethodPost, "/api/v1/users/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loginResp))
	assert.Equal(t, registerResp.User.ID, loginResp.User.ID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "ana", "Ana")

	body := map[string]string{
		"username":     "ana",
		"password":     "other456",
		"display_name": "Ana Two",
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/register", body, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "USERNAME_EXISTS")
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "ana", "Ana")

	body := map[string]string{"username": "ana", "password": "wrong"}
	rr := ts.request(http.MethodPost, "/api/v1/users/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "ana", "Ana")

	rr := ts.request(http.MethodGet, "/api/v1/users/me", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var user response.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "ana", user.Username)
}

func TestRequestsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/rooms", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/users/me", nil, "bogus-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateAndGetRoom(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "ana", "Ana")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", nil, token)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var created response.RoomSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Len(t, created.Room.Code, 6)
	assert.Equal(t, string(model.RoomStatusWaiting), created.Room.Status)
	assert.Equal(t, 1, created.Room.PlayerCount)
	require.Len(t, created.Players, 1)
	assert.Equal(t, "Ana", created.Players[0].DisplayName)
	assert.True(t, created.Players[0].IsHost)
	assert.Equal(t, model.DefaultStartingBalance, created.Players[0].Balance)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+created.Room.Code, nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "ana", "Ana")

	rr := ts.request(http.MethodGet, "/api/v1/rooms/NOPE00", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "ROOM_NOT_FOUND")
}

func TestJoinRoom(t *testing.T) {
	ts := newTestServer(t)
	host := ts.register(t, "ana", "Ana")
	joiner := ts.register(t, "luis", "Luis")
	code := ts.createRoom(t, host)

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, joiner)
	assert.Equal(t, http.StatusOK, rr.Code)

	var snapshot response.RoomSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, 2, snapshot.Room.PlayerCount)
	require.Len(t, snapshot.Players, 2)
	assert.Equal(t, "Ana", snapshot.Players[0].DisplayName)
	assert.Equal(t, "Luis", snapshot.Players[1].DisplayName)
}

func TestJoinRoomTwice(t *testing.T) {
	ts := newTestServer(t)
	host := ts.register(t, "ana", "Ana")
	joiner := ts.register(t, "luis", "Luis")
	code := ts.createRoom(t, host)

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, joiner)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, joiner)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "ALREADY_IN_ROOM")
}

func TestStartRoom(t *testing.T) {
	ts := newTestServer(t)
	host := ts.register(t, "ana", "Ana")
	other := ts.register(t, "luis", "Luis")
	code := ts.createRoom(t, host)

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, other)
	require.Equal(t, http.StatusOK, rr.Code)

	// Non-host cannot start
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/start", nil, other)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/start", nil, host)
	assert.Equal(t, http.StatusOK, rr.Code)

	var snapshot response.RoomSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, string(model.RoomStatusInProgress), snapshot.Room.Status)
	assert.NotNil(t, snapshot.Room.StartedAt)

	// Starting again conflicts
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/start", nil, host)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Joining a started room conflicts
	late := ts.register(t, "marta", "Marta")
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, late)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "ROOM_NOT_WAITING")
}

func TestLeaveRoom(t *testing.T) {
	ts := newTestServer(t)
	host := ts.register(t, "ana", "Ana")
	joiner := ts.register(t, "luis", "Luis")
	code := ts.createRoom(t, host)

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, joiner)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/leave", nil, joiner)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+code, nil, host)
	var snapshot response.RoomSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, 1, snapshot.Room.PlayerCount)

	// Leaving again fails
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/leave", nil, joiner)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoomFull(t *testing.T) {
	ts := newTestServer(t)
	host := ts.register(t, "host", "Host")
	code := ts.createRoom(t, host)

	for i := 1; i < model.DefaultMaxPlayers; i++ {
		token := ts.register(t, fmt.Sprintf("user%d", i), fmt.Sprintf("User %d", i))
		rr := ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	extra := ts.register(t, "extra", "Extra")
	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, extra)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "ROOM_FULL")
}

func TestTransferFlow(t *testing.T) {
	ts := newTestServer(t)
	host := ts.register(t, "ana", "Ana")
	other := ts.register(t, "luis", "Luis")
	code := ts.createRoom(t, host)

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/join", nil, other)
	require.Equal(t, http.StatusOK, rr.Code)

	// Luis pays Ana 200
	body := map[string]any{"to": "Ana", "amount": 200}
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/transfers", body, other)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var tx response.Transaction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tx))
	assert.Equal(t, "Luis", tx.From)
	assert.Equal(t, "Ana", tx.To)
	assert.Equal(t, int64(200), tx.Amount)

	// Balances reflect the transfer
	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+code, nil, host)
	var snapshot response.RoomSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	balances := map[string]int64{}
	for _, p := range snapshot.Players {
		balances[p.DisplayName] = p.Balance
	}
	assert.Equal(t, int64(1700), balances["Ana"])
	assert.Equal(t, int64(1300), balances["Luis"])

	// History lists the transaction
	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+code+"/transfers", nil, host)
	assert.Equal(t, http.StatusOK, rr.Code)
	var txs []response.Transaction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, int64(200), txs[0].Amount)
}

func TestTransferErrors(t *testing.T) {
	ts := newTestServer(t)
	host := ts.register(t, "ana", "Ana")
	code := ts.createRoom(t, host)

	// Insufficient funds
	body := map[string]any{"to": "Bank", "amount": 5000}
	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/transfers", body, host)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "INSUFFICIENT_FUNDS")

	// Zero amount
	body = map[string]any{"to": "Bank", "amount": 0}
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/transfers", body, host)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown recipient
	body = map[string]any{"to": "Ghost", "amount": 100}
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+code+"/transfers", body, host)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "RECEIVER_NOT_FOUND")
}

func TestDeleteRoom(t *testing.T) {
	ts := newTestServer(t)
	host := ts.register(t, "ana", "Ana")
	other := ts.register(t, "luis", "Luis")
	code := ts.createRoom(t, host)

	// Only the host may delete
	rr := ts.request(http.MethodDelete, "/api/v1/rooms/"+code, nil, other)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/rooms/"+code, nil, host)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+code, nil, host)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
