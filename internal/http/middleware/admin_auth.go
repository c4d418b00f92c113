package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminIdentityKey contextKey = "adminIdentity"

// AdminClaims are the JWT claims minted for staff who manage bookings.
// Role is optional so older role-less tokens keep working.
type AdminClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AdminIdentity is the authenticated staff member attached to the request
// context. Booking handlers read it back to attribute edits and deletions.
type AdminIdentity struct {
	Subject string
	Role    string
}

// AdminJWT guards the booking-management surface with an HMAC-signed JWT.
// Rejections answer in the same JSON error shape the booking handlers use.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				denyAdmin(w, "admin access is not configured")
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				denyAdmin(w, "missing bearer token")
				return
			}
			claims := AdminClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				denyAdmin(w, "invalid token")
				return
			}
			identity := AdminIdentity{Subject: claims.Subject, Role: claims.Role}
			ctx := context.WithValue(r.Context(), adminIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext returns the staff identity set by AdminJWT, if any.
func AdminFromContext(ctx context.Context) (AdminIdentity, bool) {
	id, ok := ctx.Value(adminIdentityKey).(AdminIdentity)
	return id, ok
}

func denyAdmin(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
