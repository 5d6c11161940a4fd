package middleware

import (
	"context"
	"errors"
	"net/http"

	"nomination_ledger/internal/common"
	"nomination_ledger/internal/common/security"
	"nomination_ledger/internal/session"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const SessionCtxKey contextKey = "session"

// SessionLoader resolves the session a token points at.
type SessionLoader interface {
	Session(ctx context.Context, sessionID string) (*session.Session, error)
}

// Authenticator requires a verified token whose session is still live. It
// runs after jwtauth.Verifier.
func Authenticator(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				if errors.Is(err, jwtauth.ErrNoTokenFound) {
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
				}
				return
			}
			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			sessionID, err := security.GetSessionIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}
			judgeID, err := security.GetJudgeIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			sess, err := sessions.Session(r.Context(), sessionID)
			if err != nil {
				if errors.Is(err, common.ErrUnauthorized) {
					common.RespondWithError(w, http.StatusUnauthorized, "Session expired, please log in again")
					return
				}
				common.RespondWithDomainError(w, err)
				return
			}
			if sess.Judge.ID != judgeID {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: judge mismatch")
				return
			}

			ctx := context.WithValue(r.Context(), SessionCtxKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext returns the session stored by Authenticator.
func GetSessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(SessionCtxKey).(*session.Session)
	return sess, ok
}
