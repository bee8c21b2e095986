package middleware

import (
	"errors"
	"net/http"

	"filevault/identity"
	"filevault/logger"
)

// AuthMiddleware authenticates each request through v and stores the
// resulting identity in the request context. Requests without any
// credential are refused before v is consulted.
func AuthMiddleware(v identity.Validator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			requestID := RequestID(r.Context())
			cred := identity.Credential{
				Authorization: r.Header.Get("Authorization"),
				Cookie:        r.Header.Get("Cookie"),
			}

			if cred.Empty() {
				logger.WithFields(map[string]interface{}{
					"request_id": requestID,
					"ip":         getClientIP(r),
				}).Warn("Missing credential")
				writeError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			id, err := v.Validate(r.Context(), cred)
			if err != nil {
				fields := map[string]interface{}{
					"request_id": requestID,
					"ip":         getClientIP(r),
					"error":      err.Error(),
				}
				switch {
				case errors.Is(err, identity.ErrMissingCredential):
					logger.WithFields(fields).Warn("Missing credential")
					writeError(w, http.StatusUnauthorized, "No token provided")
				case errors.Is(err, identity.ErrInvalidCredential):
					logger.WithFields(fields).Warn("Invalid access token")
					writeError(w, http.StatusForbidden, "Invalid access token")
				default:
					logger.WithFields(fields).Error("Credential validation failed")
					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"user_id":    id.UserID,
			}).Debug("User authenticated")

			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		}
	}
}
