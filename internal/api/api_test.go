package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pairwise-games/stakeroom/internal/api"
	"github.com/pairwise-games/stakeroom/internal/api/response"
	"github.com/pairwise-games/stakeroom/internal/factory"
	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/auth"
)

const arbiterKey = "arbiter-test-key"

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
	auth    *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	hash, err := bcrypt.GenerateFromPassword([]byte(arbiterKey), bcrypt.MinCost)
	require.NoError(t, err)

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{
		AuthConfig:     auth.Config{ArbiterKeyHash: string(hash)},
		OpeningBalance: 1000,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		AuthService:  app.AuthService,
		Coordinator:  app.Coordinator,
		Cancellation: app.Cancellation,
		Registry:     app.Registry,
		Gate:         app.Gate,
		Hub:          app.Hub,
	})

	return &testServer{
		handler: router,
		app:     app,
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

func (ts *testServer) arbiterRequest(t *testing.T, method, path string, body any, key string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Arbiter-Key", key)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// connectedGuest mints a guest session and registers a live connection for
// it, as the event stream would on open
func (ts *testServer) connectedGuest(t *testing.T, name string) (token string, userID string) {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/participants/guest", map[string]string{"display_name": name}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	_, err := ts.app.Registry.Connect(context.Background(), model.UserID(resp.UserID), name)
	require.NoError(t, err)

	return resp.SessionToken, resp.UserID
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGuest(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"display_name": "Alice"}
	rr := ts.request(http.MethodPost, "/api/v1/participants/guest", body, "")

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "Alice", resp.DisplayName)
	assert.NotEmpty(t, resp.UserID)
	assert.NotEmpty(t, resp.SessionToken)
}

func TestCreateGuestEmptyName(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/participants/guest", map[string]string{"display_name": "  "}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetMeRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/participants/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/participants/me", nil, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetMeReturnsBalance(t *testing.T) {
	ts := newTestServer(t)
	token, userID := ts.connectedGuest(t, "Alice")

	rr := ts.request(http.MethodGet, "/api/v1/participants/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Participant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, userID, resp.UserID)
	assert.Equal(t, int64(1000), resp.Balance)
}

func TestCreateChallengeWithoutStreamConflicts(t *testing.T) {
	ts := newTestServer(t)

	// Session exists but no event stream was ever opened
	rr := ts.request(http.MethodPost, "/api/v1/participants/guest", map[string]string{"display_name": "Alice"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var authResp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &authResp))

	rr = ts.request(http.MethodPost, "/api/v1/challenges", map[string]int64{"stake": 100}, authResp.SessionToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_CONNECTED")
}

func TestCreateAndListChallenges(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/challenges", map[string]int64{"stake": 100}, aliceToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created response.Challenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Alice", created.CreatorName)
	assert.Equal(t, int64(100), created.Stake)
	assert.True(t, created.Own)

	// The creator sees their own flag set, the other player does not
	rr = ts.request(http.MethodGet, "/api/v1/challenges", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var listed []response.Challenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.False(t, listed[0].Own)
}

func TestCreateChallengeInvalidStake(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.connectedGuest(t, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/challenges", map[string]int64{"stake": 0}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_STAKE")

	rr = ts.request(http.MethodPost, "/api/v1/challenges", map[string]int64{"stake": 5000}, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "INSUFFICIENT_BALANCE")
}

func TestWithdrawChallenge(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.connectedGuest(t, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/challenges", map[string]int64{"stake": 100}, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created response.Challenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = ts.request(http.MethodDelete, "/api/v1/challenges/"+created.ID, nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/challenges", nil, token)
	var listed []response.Challenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

func TestWithdrawSomeoneElsesChallenge(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/challenges", map[string]int64{"stake": 100}, aliceToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created response.Challenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = ts.request(http.MethodDelete, "/api/v1/challenges/"+created.ID, nil, bobToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

// formMatch creates Alice's challenge and has Bob accept it
func formMatch(t *testing.T, ts *testServer, aliceToken, bobToken string) response.Match {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/challenges", map[string]int64{"stake": 100}, aliceToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created response.Challenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = ts.request(http.MethodPost, "/api/v1/challenges/"+created.ID+"/accept", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var m response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

func TestAcceptChallengeFormsMatch(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")

	m := formMatch(t, ts, aliceToken, bobToken)
	assert.Equal(t, "waiting", m.State)
	assert.Equal(t, int64(100), m.Stake)

	// Both stakes escrowed
	rr := ts.request(http.MethodGet, "/api/v1/participants/me", nil, aliceToken)
	var me response.Participant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, int64(900), me.Balance)
}

func TestAcceptOwnChallenge(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.connectedGuest(t, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/challenges", map[string]int64{"stake": 100}, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created response.Challenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = ts.request(http.MethodPost, "/api/v1/challenges/"+created.ID+"/accept", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "SELF_ACCEPT")
}

func TestJoinProgressesMatch(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")
	m := formMatch(t, ts, aliceToken, bobToken)

	rr := ts.request(http.MethodPost, "/api/v1/matches/"+m.ID+"/join", nil, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "waiting", room.State)
	assert.Equal(t, 1, room.JoinedCount)

	rr = ts.request(http.MethodPost, "/api/v1/matches/"+m.ID+"/join", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "in_progress", room.State)
	assert.Equal(t, 2, room.JoinedCount)
}

func TestJoinByStranger(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")
	malloryToken, _ := ts.connectedGuest(t, "Mallory")
	m := formMatch(t, ts, aliceToken, bobToken)

	rr := ts.request(http.MethodPost, "/api/v1/matches/"+m.ID+"/join", nil, malloryToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func startMatch(t *testing.T, ts *testServer, aliceToken, bobToken string) response.Match {
	t.Helper()
	m := formMatch(t, ts, aliceToken, bobToken)
	rr := ts.request(http.MethodPost, "/api/v1/matches/"+m.ID+"/join", nil, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+m.ID+"/join", nil, bobToken)
	require.Equal(t, http.StatusOK, rr.Code)
	return m
}

func TestCompleteMatchRequiresArbiterKey(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, aliceID := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")
	m := startMatch(t, ts, aliceToken, bobToken)

	body := map[string]string{"winner_user_id": aliceID}

	// Player sessions cannot settle results
	rr := ts.request(http.MethodPost, "/api/v1/matches/"+m.ID+"/complete", body, aliceToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.arbiterRequest(t, http.MethodPost, "/api/v1/matches/"+m.ID+"/complete", body, "wrong-key")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCompleteMatchPaysWinner(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, aliceID := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")
	m := startMatch(t, ts, aliceToken, bobToken)

	rr := ts.arbiterRequest(t, http.MethodPost, "/api/v1/matches/"+m.ID+"/complete",
		map[string]string{"winner_user_id": aliceID}, arbiterKey)
	require.Equal(t, http.StatusOK, rr.Code)

	var done response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &done))
	assert.Equal(t, "completed", done.State)
	assert.Equal(t, aliceID, done.WinnerUserID)

	rr = ts.request(http.MethodGet, "/api/v1/participants/me", nil, aliceToken)
	var me response.Participant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, int64(1100), me.Balance)

	rr = ts.request(http.MethodGet, "/api/v1/participants/me", nil, bobToken)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, int64(900), me.Balance)
}

func TestCancellationRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")
	m := startMatch(t, ts, aliceToken, bobToken)

	rr := ts.request(http.MethodPost, "/api/v1/matches/"+m.ID+"/cancellation",
		map[string]string{"reason": "opponent afk"}, aliceToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var cr response.Cancellation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cr))
	assert.Equal(t, "pending", cr.Status)
	assert.Equal(t, "opponent afk", cr.Reason)

	// Visible to both participants while pending
	rr = ts.request(http.MethodGet, "/api/v1/matches/"+m.ID+"/cancellation", nil, bobToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Arbiter approves; both refunded
	rr = ts.arbiterRequest(t, http.MethodPost, "/api/v1/matches/"+m.ID+"/cancellation/resolve",
		map[string]string{"decision": "approved"}, arbiterKey)
	require.Equal(t, http.StatusOK, rr.Code)

	var resolved response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resolved))
	assert.Equal(t, "cancelled", resolved.State)

	rr = ts.request(http.MethodGet, "/api/v1/participants/me", nil, aliceToken)
	var me response.Participant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, int64(1000), me.Balance)
}

func TestResolveWithInvalidDecision(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")
	m := startMatch(t, ts, aliceToken, bobToken)

	rr := ts.request(http.MethodPost, "/api/v1/matches/"+m.ID+"/cancellation", nil, aliceToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.arbiterRequest(t, http.MethodPost, "/api/v1/matches/"+m.ID+"/cancellation/resolve",
		map[string]string{"decision": "maybe"}, arbiterKey)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetPendingCancellationWhenNone(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")
	m := startMatch(t, ts, aliceToken, bobToken)

	rr := ts.request(http.MethodGet, "/api/v1/matches/"+m.ID+"/cancellation", nil, aliceToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListMatches(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.connectedGuest(t, "Alice")
	bobToken, _ := ts.connectedGuest(t, "Bob")
	m := startMatch(t, ts, aliceToken, bobToken)

	rr := ts.request(http.MethodGet, "/api/v1/matches", nil, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var listed []response.MatchSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, m.ID, listed[0].ID)
	assert.Equal(t, "in_progress", listed[0].State)
}

func TestGetMatchNotFound(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.connectedGuest(t, "Alice")

	rr := ts.request(http.MethodGet, "/api/v1/matches/nonexistent", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
