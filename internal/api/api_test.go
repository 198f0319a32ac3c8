package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenrace/tokenrace/internal/api"
	"github.com/tokenrace/tokenrace/internal/api/response"
	"github.com/tokenrace/tokenrace/internal/factory"
	"github.com/tokenrace/tokenrace/internal/services/auth"
	"github.com/tokenrace/tokenrace/internal/storage/memory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	storage *memory.Storage
	auth    *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{
		AuthConfig: auth.Config{Secret: "api-test-secret"},
		Logger:     logger,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		RoomService: app.RoomService,
		WSHandler:   app.WSHandler,
	})

	return &testServer{
		handler: router,
		storage: app.Storage.(*memory.Storage),
		auth:    app.AuthService,
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

// register creates an account and returns a fresh token plus the user
func (ts *testServer) register(t *testing.T, username string) (string, response.User) {
	t.Helper()

	email := username + "@example.com"
	body := map[string]string{"email": email, "username": username, "password": "hunter22"}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var user response.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))

	loginBody := map[string]string{"email": email, "password": "hunter22"}
	rr = ts.request(http.MethodPost, "/api/v1/auth/login", loginBody, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var authResp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &authResp))
	return authResp.Token, user
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
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
		"email":    "alice@example.com",
		"username": "alice",
		"password": "hunter22",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var user response.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)

	loginBody := map[string]string{"email": "alice@example.com", "password": "hunter22"}
	rr = ts.request(http.MethodPost, "/api/v1/auth/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var authResp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &authResp))
	assert.NotEmpty(t, authResp.Token)
	assert.Equal(t, user.ID, authResp.User.ID)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"username": "alice", "password": "hunter22"}},
		{"bad email", map[string]string{"email": "nope", "username": "alice", "password": "hunter22"}},
		{"missing username", map[string]string{"email": "a@example.com", "password": "hunter22"}},
		{"short password", map[string]string{"email": "a@example.com", "username": "alice", "password": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "INVALID_REQUEST", errorCode(t, rr))
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice")

	body := map[string]string{
		"email":    "alice@example.com",
		"username": "alice2",
		"password": "hunter22",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, rr))
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice")

	body := map[string]string{"email": "alice@example.com", "password": "wrong"}
	rr := ts.request(http.MethodPost, "/api/v1/auth/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rr))
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	token, user := ts.register(t, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var me map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, user.ID, me["userId"])
	assert.Equal(t, "alice@example.com", me["email"])
}

func TestMeRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/auth/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateAndGetRoom(t *testing.T) {
	ts := newTestServer(t)
	token, user := ts.register(t, "alice")

	body := map[string]any{"title": "friday race", "maxPlayers": 3}
	rr := ts.request(http.MethodPost, "/api/v1/rooms", body, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		Room response.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "friday race", created.Room.Title)
	assert.Equal(t, 3, created.Room.MaxPlayers)
	assert.Equal(t, "WAITING", created.Room.Status)
	assert.Equal(t, user.ID, created.Room.Creator.ID)
	require.Len(t, created.Room.Players, 1)
	assert.Equal(t, user.ID, created.Room.Players[0].UserID)

	// Fetching a room requires no auth
	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+created.Room.ID, nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var fetched struct {
		Room response.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, created.Room.ID, fetched.Room.ID)
}

func TestCreateRoomRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]any{"title": "race"}
	rr := ts.request(http.MethodPost, "/api/v1/rooms", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateRoomRequiresTitle(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rr))
}

func TestGetUnknownRoom(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/r_missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ROOM_NOT_FOUND", errorCode(t, rr))
}

func TestListRooms(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "alice")

	for _, title := range []string{"first", "second"} {
		rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{"title": title}, token)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := ts.request(http.MethodGet, "/api/v1/rooms", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var listed struct {
		Rooms []response.Room `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Len(t, listed.Rooms, 2)
}

func TestJoinLeaveReadyFlow(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.register(t, "alice")
	bobToken, bob := ts.register(t, "bob")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{"title": "race"}, aliceToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		Room response.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	roomPath := "/api/v1/rooms/" + created.Room.ID

	// Bob joins
	rr = ts.request(http.MethodPost, roomPath+"/join", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var joined struct {
		Room response.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &joined))
	require.Len(t, joined.Room.Players, 2)

	// Bob flags ready
	rr = ts.request(http.MethodPost, roomPath+"/ready", map[string]bool{"ready": true}, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var readied struct {
		Room response.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &readied))
	for _, p := range readied.Room.Players {
		if p.UserID == bob.ID {
			assert.True(t, p.IsReady)
		}
	}

	// Bob leaves
	rr = ts.request(http.MethodPost, roomPath+"/leave", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var left struct {
		Room response.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &left))
	assert.Len(t, left.Room.Players, 1)
}

func TestJoinFullRoom(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.register(t, "alice")
	bobToken, _ := ts.register(t, "bob")
	carolToken, _ := ts.register(t, "carol")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{"title": "race", "maxPlayers": 2}, aliceToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		Room response.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	roomPath := "/api/v1/rooms/" + created.Room.ID

	rr = ts.request(http.MethodPost, roomPath+"/join", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, roomPath+"/join", nil, carolToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ROOM_FULL", errorCode(t, rr))
}

func TestLeaveRoomNotJoined(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.register(t, "alice")
	bobToken, _ := ts.register(t, "bob")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{"title": "race"}, aliceToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		Room response.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+created.Room.ID+"/leave", nil, bobToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "NOT_IN_ROOM", errorCode(t, rr))
}
