package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mingunC/renovationPlatform-sub000/internal/auth"
	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
	"github.com/mingunC/renovationPlatform-sub000/internal/middleware"
	"github.com/mingunC/renovationPlatform-sub000/models"
	"github.com/mingunC/renovationPlatform-sub000/pkg/logger"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler exposes the marketplace service over HTTP.
type Handler struct {
	Svc      *marketplace.Service
	Accounts AccountStore
}

func NewHandler(svc *marketplace.Service, accounts AccountStore) *Handler {
	return &Handler{Svc: svc, Accounts: accounts}
}

// PingHandler answers "ok" for liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type statusView struct {
	Status models.RequestStatus `json:"status"`
	Label  string               `json:"label"`
}

// StatusesHandler lists every request status with its display label.
func (h *Handler) StatusesHandler(w http.ResponseWriter, r *http.Request) {
	out := make([]statusView, 0, len(models.RequestStatuses))
	for _, s := range models.RequestStatuses {
		out = append(out, statusView{Status: s, Label: models.StatusLabel(s)})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	body := map[string]string{"error": msg}
	if id := middleware.GetRequestID(r.Context()); id != "" {
		body["request_id"] = id
	}
	writeJSON(w, status, body)
}

// writeError maps marketplace error kinds to HTTP statuses. Anything else is
// logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, marketplace.ErrInvalidTransition), errors.Is(err, marketplace.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, marketplace.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, marketplace.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, marketplace.ErrForbidden):
		status = http.StatusForbidden
	default:
		logger.Error(r.Context(), "request failed", "error", err)
		writeMessage(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Debug(r.Context(), "request rejected", "status", status, "error", err)
	writeMessage(w, r, status, err.Error())
}

// readJSON decodes and validates the body into dst. An empty body is accepted
// when allowEmpty is set, leaving dst untouched.
func readJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.New("failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		if allowEmpty {
			return nil
		}
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid JSON format")
	}
	return validationMessage(validate.Struct(dst))
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// requireRole returns the caller when it holds one of roles. Otherwise it
// writes 401 or 403 and reports false.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...auth.Role) (auth.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		writeMessage(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Actor{}, false
	}
	if len(roles) == 0 {
		return actor, true
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, true
		}
	}
	writeMessage(w, r, http.StatusForbidden, fmt.Sprintf("role %s is not allowed here", actor.Role))
	return auth.Actor{}, false
}

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams reads limit and offset, falling back to defaults on
// missing or out-of-range values.
func parsePaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: 20}

	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		params.Offset = o
	}
	return params
}
