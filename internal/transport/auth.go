package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/rpggio/groupbite/internal/auth"
)

type memberKey struct{}

// MemberFromContext returns the authenticated member ID from context, if present.
func MemberFromContext(ctx context.Context) (string, bool) {
	memberID, ok := ctx.Value(memberKey{}).(string)
	return memberID, ok
}

// AuthMiddleware enforces bearer token authentication. Browsers cannot set
// headers on websocket upgrades, so an access_token query parameter is
// accepted as well.
func AuthMiddleware(resolver auth.MemberResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			memberID, err := resolver.ResolveMember(r.Context(), token)
			if err != nil || memberID == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), memberKey{}, memberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
