package adaptor

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"
	"carpool-api/internal/lifecycle"
	"carpool-api/pkg/utils"

	"go.uber.org/zap"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindInvalidTransition:
		return http.StatusBadRequest
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperror.KindAuthorization:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindDuplicate, apperror.KindCapacity, apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError is the single place service errors become HTTP responses.
// Server errors never leak their cause to the client.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	code := statusFor(appErr.Kind)
	if code >= http.StatusInternalServerError {
		log.Error("Failed to "+operation,
			zap.String("kind", appErr.Kind.String()),
			zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	log.Warn(operation+" rejected",
		zap.String("kind", appErr.Kind.String()),
		zap.Int("status", code),
		zap.Error(err))

	switch code {
	case http.StatusUnauthorized:
		utils.ResponseUnauthorized(w, appErr.Message)
	case http.StatusForbidden:
		utils.ResponseForbidden(w, appErr.Message)
	case http.StatusNotFound:
		utils.ResponseNotFound(w, appErr.Message)
	case http.StatusConflict:
		utils.ResponseConflict(w, appErr.Message)
	default:
		var fields any
		if len(appErr.Fields) > 0 {
			fields = appErr.Fields
		}
		utils.ResponseBadRequest(w, appErr.Message, fields)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// actorFrom reads the caller set by the auth middleware.
func actorFrom(w http.ResponseWriter, r *http.Request) (lifecycle.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return lifecycle.Actor{}, false
	}
	role, _ := utils.GetRoleFromContext(r.Context())
	return lifecycle.Actor{ID: userID, Role: entity.UserRole(role)}, true
}

// queryInt returns def when the parameter is absent. Range checks are left
// to request validation.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation("%s must be an integer", key)
	}
	return n, nil
}

// queryTime accepts RFC3339 timestamps or plain dates.
func queryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.Validation("%s must be a date (YYYY-MM-DD) or RFC3339 timestamp", key)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
