package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/wevy/internal/model"
	"github.com/dukerupert/wevy/internal/swipe"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// statusClientClosedRequest reports a request abandoned by its caller.
const statusClientClosedRequest = 499

// swipeStatus maps a core error onto an HTTP status.
func swipeStatus(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, swipe.ErrInvalidCandidateSet),
		errors.Is(err, swipe.ErrUnknownCandidate),
		errors.Is(err, swipe.ErrInvalidDirection),
		errors.Is(err, swipe.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, swipe.ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, swipe.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, swipe.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, swipe.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type closedResponse struct {
	Error   string              `json:"error"`
	Session *model.SwipeSession `json:"session"`
}
