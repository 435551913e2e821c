package middleware

import (
	"context"
	"net/http"
	apperrors "parkease/pkg/errors"
	httputil "parkease/pkg/http"
	"parkease/pkg/logger"
	"parkease/pkg/model"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const ActorKey contextKey = "actor"

// ActorClaims are the JWT claims issued by the auth collaborator. The
// reservation engine trusts them for identity, role, managed-area scope,
// and profile completeness; it never reads identity from request bodies.
type ActorClaims struct {
	Role          string `json:"role"`
	ManagedAreaID string `json:"managed_area_id,omitempty"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate extracts the bearer token and stores the Actor in the
// request context. Requests without a valid token are rejected.
func Authenticate(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenStr == "" {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
				return
			}

			claims := &ActorClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				log.Warn("Rejected request with invalid token", "path", r.URL.Path, "error", err)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			actor := model.Actor{
				UserID:        claims.Subject,
				Role:          model.Role(claims.Role),
				ManagedAreaID: claims.ManagedAreaID,
				VehicleNumber: claims.VehicleNumber,
			}
			if actor.Role == "" {
				actor.Role = model.RoleUser
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom returns the authenticated actor stored by Authenticate.
func ActorFrom(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(model.Actor)
	return actor, ok
}
