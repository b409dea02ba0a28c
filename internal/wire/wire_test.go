package wire

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carpool-api/internal/data/memory"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/lifecycle"
	"carpool-api/internal/notify"
	"carpool-api/pkg/lock"
	"carpool-api/pkg/token"
	"carpool-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type api struct {
	t   *testing.T
	app *App
	now time.Time
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWith(t, memory.NewRepository(memory.NewStore()), lifecycle.NopDispatcher)
}

func newAPIWith(t *testing.T, repo *repository.Repository, dispatcher lifecycle.Dispatcher) *api {
	t.Helper()
	log := zaptest.NewLogger(t)
	a := &api{t: t, now: time.Now()}
	clock := func() time.Time { return a.now }
	mgr := lifecycle.NewManager(repo.Tx, lock.NewKeyedMutex(), dispatcher, log, lifecycle.WithClock(clock))
	tokens := token.NewManager("wire-test-secret", time.Hour)
	cfg := &utils.Config{App: utils.AppConfig{Name: "carpool-api"}}
	a.app = Wiring(repo, mgr, tokens, cfg, log)
	return a
}

func (a *api) do(method, path, bearer string, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.app.Router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (a *api) signup(email, role string) string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":       "Test " + role,
		"email":      email,
		"password":   "secret123",
		"department": "Engineering",
		"role":       role,
	})
	require.Equal(a.t, http.StatusCreated, code, env.Message)

	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &auth))
	return auth.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type idBody struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	AvailableSeats int    `json:"available_seats"`
}

func TestRideReservationFlow(t *testing.T) {
	a := newAPI(t)
	driver := a.signup("driver@example.com", "driver")
	p1 := a.signup("p1@example.com", "passenger")
	p2 := a.signup("p2@example.com", "passenger")

	rideBody := map[string]any{
		"origin":         "Campus North",
		"destination":    "Central Station",
		"departure_time": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"total_seats":    3,
	}

	code, _ := a.do(http.MethodPost, "/api/rides", p1, rideBody)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := a.do(http.MethodPost, "/api/rides", driver, rideBody)
	require.Equal(t, http.StatusCreated, code, env.Message)
	ride := decode[idBody](t, env.Data)
	assert.Equal(t, "open", ride.Status)

	code, env = a.do(http.MethodPost, "/api/reservations", p1, map[string]any{"ride_id": ride.ID, "seats_requested": 2})
	require.Equal(t, http.StatusCreated, code, env.Message)
	r1 := decode[idBody](t, env.Data)

	code, _ = a.do(http.MethodPost, "/api/reservations", p1, map[string]any{"ride_id": ride.ID, "seats_requested": 1})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodPost, "/api/reservations", p2, map[string]any{"ride_id": ride.ID, "seats_requested": 2})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodPatch, "/api/reservations/"+r1.ID+"/approve", p2, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(http.MethodPatch, "/api/reservations/"+r1.ID+"/approve", driver, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "confirmed", decode[idBody](t, env.Data).Status)

	code, env = a.do(http.MethodGet, "/api/rides/"+ride.ID, p2, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[idBody](t, env.Data).AvailableSeats)

	code, env = a.do(http.MethodGet, "/api/rides/"+ride.ID+"/participants", driver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	code, _ = a.do(http.MethodPatch, "/api/rides/"+ride.ID+"/complete", driver, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	a.now = a.now.Add(25 * time.Hour)
	code, env = a.do(http.MethodPatch, "/api/rides/"+ride.ID+"/complete", driver, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "completed", decode[idBody](t, env.Data).Status)

	code, _ = a.do(http.MethodPost, "/api/reservations/"+r1.ID+"/cancel", p1, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRideCancelViaDelete(t *testing.T) {
	a := newAPI(t)
	driver := a.signup("driver@example.com", "driver")
	passenger := a.signup("p@example.com", "passenger")

	code, env := a.do(http.MethodPost, "/api/rides", driver, map[string]any{
		"origin":         "A",
		"destination":    "B",
		"departure_time": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"total_seats":    2,
	})
	require.Equal(t, http.StatusCreated, code)
	ride := decode[idBody](t, env.Data)

	code, env = a.do(http.MethodPost, "/api/reservations", passenger, map[string]any{"ride_id": ride.ID, "seats_requested": 1})
	require.Equal(t, http.StatusCreated, code)
	res := decode[idBody](t, env.Data)

	code, env = a.do(http.MethodDelete, "/api/rides/"+ride.ID, driver, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "cancelled", decode[idBody](t, env.Data).Status)

	code, env = a.do(http.MethodGet, "/api/reservations/"+res.ID, passenger, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", decode[idBody](t, env.Data).Status)

	code, _ = a.do(http.MethodPut, "/api/rides/"+ride.ID, driver, map[string]any{"total_seats": 4})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuthEndpoints(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "X", "email": "not-an-email", "password": "1", "department": "", "role": "pilot",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "role")

	tok := a.signup("me@example.com", "passenger")

	code, _ = a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Again", "email": "ME@example.com", "password": "secret123", "department": "Ops", "role": "driver",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "me@example.com", "password": "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = a.do(http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "me@example.com", decode[map[string]any](t, env.Data)["email"])

	code, env = a.do(http.MethodPatch, "/api/users/me", tok, map[string]any{"department": "Finance"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Finance", decode[map[string]any](t, env.Data)["department"])

	code, _ = a.do(http.MethodPost, "/api/auth/logout", tok, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodGet, "/api/auth/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRideListQueryValidation(t *testing.T) {
	a := newAPI(t)
	tok := a.signup("p@example.com", "passenger")

	for _, q := range []string{
		"?per_page=0",
		"?per_page=51",
		"?page=0",
		"?page=x",
		"?sort_by=price",
		"?date_from=2026-05-02&date_to=2026-05-01",
	} {
		code, _ := a.do(http.MethodGet, "/api/rides"+q, tok, nil)
		assert.Equal(t, http.StatusBadRequest, code, q)
	}

	code, env := a.do(http.MethodGet, "/api/rides?sort_by=date_desc&per_page=50", tok, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		Pagination struct {
			PerPage int `json:"per_page"`
		} `json:"pagination"`
	}](t, env.Data)
	assert.Equal(t, 50, page.Pagination.PerPage)
}

func TestAdminAndPublicRoutes(t *testing.T) {
	a := newAPI(t)
	tok := a.signup("d@example.com", "driver")

	code, _ := a.do(http.MethodGet, "/api/admin/stats", tok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodGet, "/api/rides", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "carpool_http_requests_total")
}

func TestAdminStatsWithSeededAdmin(t *testing.T) {
	a := newAPI(t)
	require.NoError(t, a.app.Service.Auth.SeedAdmin(t.Context(), "admin@example.com", "adminpass"))

	code, env := a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "admin@example.com", "password": "adminpass"})
	require.Equal(t, http.StatusOK, code)
	tok := decode[struct {
		Token string `json:"token"`
	}](t, env.Data).Token

	code, env = a.do(http.MethodGet, "/api/admin/stats", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, decode[map[string]any](t, env.Data)["total_users"])
}

func TestLifecycleNotificationsReachInbox(t *testing.T) {
	repo := memory.NewRepository(memory.NewStore())
	dispatcher := notify.NewDispatcher(16, zaptest.NewLogger(t), notify.NewNotificationSink(repo.Notification))
	a := newAPIWith(t, repo, dispatcher)

	driver := a.signup("driver@example.com", "driver")
	passenger := a.signup("p@example.com", "passenger")

	code, env := a.do(http.MethodPost, "/api/rides", driver, map[string]any{
		"origin":         "Campus North",
		"destination":    "Central Station",
		"departure_time": a.now.Add(time.Hour).UTC().Format(time.RFC3339),
		"total_seats":    2,
	})
	require.Equal(t, http.StatusCreated, code)
	ride := decode[idBody](t, env.Data)

	code, env = a.do(http.MethodPost, "/api/reservations", passenger, map[string]any{"ride_id": ride.ID, "seats_requested": 1})
	require.Equal(t, http.StatusCreated, code)
	res := decode[idBody](t, env.Data)

	code, _ = a.do(http.MethodPatch, "/api/reservations/"+res.ID+"/approve", driver, nil)
	require.Equal(t, http.StatusOK, code)

	require.NoError(t, dispatcher.Close(t.Context()))

	type inbox struct {
		Data []struct {
			EventType string `json:"event_type"`
			Message   string `json:"message"`
		} `json:"data"`
	}

	code, env = a.do(http.MethodGet, "/api/notifications", driver, nil)
	require.Equal(t, http.StatusOK, code)
	driverInbox := decode[inbox](t, env.Data)
	require.Len(t, driverInbox.Data, 1)
	assert.Equal(t, "ReservationCreated", driverInbox.Data[0].EventType)

	code, env = a.do(http.MethodGet, "/api/notifications?unread_only=true", passenger, nil)
	require.Equal(t, http.StatusOK, code)
	passengerInbox := decode[inbox](t, env.Data)
	require.Len(t, passengerInbox.Data, 1)
	assert.Equal(t, "ReservationApproved", passengerInbox.Data[0].EventType)
	assert.Contains(t, passengerInbox.Data[0].Message, "Campus North -> Central Station")
}
