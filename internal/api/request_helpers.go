package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/api/shared"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
)

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.ErrEmptyTaskID
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidTaskID
	}
	return id, nil
}

// requireOwner extracts the authenticated owner, writing a 401 when absent.
func requireOwner(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	ownerID, ok := shared.OwnerIDFromContext(r.Context())
	if !ok {
		log.Warn("owner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return ownerID, true
}

// handleOwnerAndPathUUID extracts both the owner from context and a UUID from
// the path parameters. It writes an error response if either extraction fails.
//
// Returns:
//   - (ownerID, pathID, true) when both were extracted
//   - ("", uuid.Nil, false) when an error response was written
func handleOwnerAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (string, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return "", uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid "+paramName,
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return "", uuid.Nil, false
	}

	return ownerID, pathID, true
}
