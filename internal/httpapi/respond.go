package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/internal/rate"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// PersistedHeader is set to "false" when a session change committed in
// memory could not be written to the record backend.
const PersistedHeader = "X-Session-Persisted"

var errMalformedBody = errors.New("httpapi: malformed request body")

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// validationError carries per-field messages from the request validator.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string { return "validation failed" }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fieldMessage(fe)
			}
			return &validationError{fields: fields}
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed on '" + fe.Tag() + "'"
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

// writeError maps console and request errors to a status code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	body := errorBody{Code: code, Message: err.Error()}
	var verr *validationError
	if errors.As(err, &verr) {
		body.Fields = verr.fields
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	s.writeJSON(w, status, map[string]errorBody{"error": body})
}

func classify(err error) (int, string) {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, "malformed_body"
	case errors.Is(err, rate.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, goAccess.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not_authenticated"
	case errors.Is(err, goAccess.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, goAccess.ErrDuplicateCode):
		return http.StatusConflict, "duplicate_code"
	case errors.Is(err, goAccess.ErrCycleDetected):
		return http.StatusConflict, "cycle_detected"
	case errors.Is(err, goAccess.ErrImmutableRole):
		return http.StatusForbidden, "immutable_role"
	case errors.Is(err, goAccess.ErrReservedCode):
		return http.StatusUnprocessableEntity, "reserved_code"
	case errors.Is(err, goAccess.ErrParentNotFound):
		return http.StatusUnprocessableEntity, "parent_not_found"
	case errors.Is(err, goAccess.ErrUnknownPermission):
		return http.StatusUnprocessableEntity, "unknown_permission"
	case errors.Is(err, goAccess.ErrInvalidPermission), errors.Is(err, goAccess.ErrInvalidRole):
		return http.StatusUnprocessableEntity, "invalid_input"
	case errors.Is(err, goAccess.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable, "persistence_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// committed reports whether err from a session operation left the change
// committed. Persistence failures do; the response is flagged instead of
// failed.
func (s *Server) committed(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, goAccess.ErrPersistenceUnavailable) {
		w.Header().Set(PersistedHeader, "false")
		return true
	}
	return false
}
