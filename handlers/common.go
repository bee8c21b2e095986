package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"filevault/identity"
	"filevault/logger"
	"filevault/models"
	"filevault/services"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse(message, nil))
}

// currentUser returns the caller's user id, writing a 401 when the auth
// middleware did not run.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return "", false
	}
	return id.UserID, true
}

// writeServiceError maps service errors to statuses. Anything unexpected is
// logged and reported as a 500 without echoing internals.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, services.ErrFolderNotFound):
		writeError(w, http.StatusNotFound, "Folder not found")
	case errors.Is(err, services.ErrFileNotFound):
		writeError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, services.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "Name is required")
	case errors.Is(err, services.ErrNameInvalid):
		writeError(w, http.StatusBadRequest, "Invalid name")
	case errors.Is(err, services.ErrNothingToUpdate):
		writeError(w, http.StatusBadRequest, "Nothing to update")
	default:
		logger.WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		}).Error("Failed to %s", action)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
