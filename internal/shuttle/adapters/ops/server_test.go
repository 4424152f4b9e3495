package ops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-bot/internal/shuttle/adapters/ws"
	"shuttle-bot/internal/shuttle/service"
	"shuttle-bot/pkg/auth"
	"shuttle-bot/pkg/logger"
)

type staticLister struct {
	views []service.RideView
}

func (s staticLister) Snapshot() []service.RideView { return s.views }

func newTestServer(t *testing.T, views []service.RideView) (*Server, *auth.JWTManager) {
	t.Helper()
	log := logger.NewLogger("test")
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	return NewServer(0, jwt, staticLister{views: views}, ws.NewHub(log), log), jwt
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestListRidesRequiresToken(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/rides", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/rides", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = do(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListRidesRejectsForeignSignature(t *testing.T) {
	s, _ := newTestServer(t, nil)

	other := auth.NewJWTManager("different-secret", time.Hour)
	token, err := other.GenerateToken("ops", auth.RoleOperator)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/rides", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := do(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListRides(t *testing.T) {
	views := []service.RideView{
		{PostingID: 101, DriverID: 7, Route: "Bole → Piassa", Capacity: 5, Remaining: 2, Reserved: 3},
	}
	s, jwt := newTestServer(t, views)

	token, err := jwt.GenerateToken("ops", auth.RoleOperator)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/rides", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int                `json:"count"`
		Rides []service.RideView `json:"rides"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Rides, 1)
	assert.Equal(t, int64(101), body.Rides[0].PostingID)
	assert.Equal(t, 2, body.Rides[0].Remaining)
}

func TestListRidesRejectsNonOperatorRole(t *testing.T) {
	s, jwt := newTestServer(t, nil)

	token, err := jwt.GenerateToken("someone", auth.Role("VIEWER"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/rides", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := do(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFeedRequiresTokenParam(t *testing.T) {
	s, jwt := newTestServer(t, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/ws/feed", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/ws/feed?token=bogus", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A valid token reaches the upgrader, which refuses a plain GET.
	token, err := jwt.GenerateToken("ops", auth.RoleOperator)
	require.NoError(t, err)
	rec = do(s, httptest.NewRequest(http.MethodGet, "/ws/feed?token="+token, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
