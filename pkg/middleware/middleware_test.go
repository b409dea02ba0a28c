package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/memory"
	"carpool-api/pkg/token"
	"carpool-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func whoami(w http.ResponseWriter, r *http.Request) {
	id, _ := utils.GetUserIDFromContext(r.Context())
	role, _ := utils.GetRoleFromContext(r.Context())
	w.Header().Set("X-User", id.String())
	w.Header().Set("X-Role", role)
	w.WriteHeader(http.StatusNoContent)
}

func TestAuth(t *testing.T) {
	repo := memory.NewRepository(memory.NewStore())
	tokens := token.NewManager("secret", time.Hour)
	log := zaptest.NewLogger(t)
	userID := uuid.New()

	signed, jti, expiresAt, err := tokens.Generate(userID, "d@corp.test", "driver")
	require.NoError(t, err)
	require.NoError(t, repo.Session.Create(context.Background(), &entity.Session{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		UserID:     userID,
		TokenID:    jti,
		ExpiresAt:  expiresAt,
	}))

	h := Auth(tokens, repo.Session, log)(http.HandlerFunc(whoami))

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("Bearer " + signed)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID.String(), rec.Header().Get("X-User"))
	assert.Equal(t, "driver", rec.Header().Get("X-Role"))

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Token "+signed).Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage").Code)

	require.NoError(t, repo.Session.Revoke(context.Background(), jti))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+signed).Code)
}

type sessionSpy struct{ calls int }

func (s *sessionSpy) FindValid(context.Context, uuid.UUID) (*entity.Session, error) {
	s.calls++
	return nil, nil
}

type stubValidator struct{ claims *token.Claims }

func (v stubValidator) Validate(string) (*token.Claims, error) { return v.claims, nil }

func TestAuthRejectsMalformedTokenID(t *testing.T) {
	sessions := &sessionSpy{}
	claims := &token.Claims{
		UserID:           uuid.New(),
		Role:             "driver",
		RegisteredClaims: jwt.RegisteredClaims{ID: "not-a-uuid"},
	}
	h := Auth(stubValidator{claims}, sessions, zaptest.NewLogger(t))(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, sessions.calls)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(zaptest.NewLogger(t), entity.RoleAdmin)(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New(), "driver"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New(), "admin"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecover(t *testing.T) {
	h := Recover(zaptest.NewLogger(t))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestMetricsAndLoggerPassThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics, Logger(zaptest.NewLogger(t)), CORS(nil))
	r.Get("/api/rides/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rides/abc", nil)
	req.Header.Set("Origin", "http://app.test")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
