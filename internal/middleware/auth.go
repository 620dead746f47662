package middleware

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/AnshRaj112/classroom-journal/internal/auth"
	"github.com/AnshRaj112/classroom-journal/internal/logging"
	"github.com/AnshRaj112/classroom-journal/internal/models"
)

// extractBearerToken returns the token of an "Authorization: Bearer <token>" header.
func extractBearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate validates the bearer token and stores the caller identity
// on the request context. Missing or invalid tokens get 401; a valid token
// whose role is neither teacher nor student gets 403.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logging.FromContext(ctx)

			token := extractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				log.WithError(err).Warn("token validation failed")
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			identity, err := claims.Identity()
			if errors.Is(err, models.ErrUnknownRole) {
				log.WithField("role", claims.User.Role).Warn("token carries an unsupported role")
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			entry := log.WithFields(logrus.Fields{
				"user_id": identity.UserID(),
				"role":    identity.Role(),
			})
			ctx = logging.WithLogger(ctx, entry)
			ctx = auth.WithIdentity(ctx, identity)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
