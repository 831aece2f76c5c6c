// Package auth verifies admin bearer tokens and carries the authenticated
// admin through the request context.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.uber.org/zap"
)

// AdminFetcher loads the current admin record for a token subject.
// Implementations return nil when the account no longer exists.
type AdminFetcher interface {
	FetchAdmin(ctx context.Context, id string) *models.Admin
}

// RevocationList reports whether a token id was revoked by logout.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticator is the middleware that guards every mutating route.
type Authenticator struct {
	tokens  *TokenManager
	admins  AdminFetcher
	revoked RevocationList
	logger  *zap.Logger
}

// NewAuthenticator wires token verification to account and revocation lookups.
// revoked may be nil to skip revocation checks.
func NewAuthenticator(tokens *TokenManager, admins AdminFetcher, revoked RevocationList, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, admins: admins, revoked: revoked, logger: logger}
}

type ctxKey string

const (
	adminKey  ctxKey = "auth_admin"
	claimsKey ctxKey = "auth_claims"
)

// CurrentAdmin returns the authenticated admin from the request context.
func CurrentAdmin(r *http.Request) (*models.Admin, bool) {
	a, ok := r.Context().Value(adminKey).(*models.Admin)
	return a, ok && a != nil
}

// CurrentClaims returns the verified token claims from the request context.
func CurrentClaims(r *http.Request) (*Claims, bool) {
	c, ok := r.Context().Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// WithAdmin returns r carrying the admin and claims, as the middleware does.
// Handler tests use it to skip token plumbing.
func WithAdmin(r *http.Request, a *models.Admin, c *Claims) *http.Request {
	ctx := context.WithValue(r.Context(), adminKey, a)
	ctx = context.WithValue(ctx, claimsKey, c)
	return r.WithContext(ctx)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// Authenticate resolves a raw token to its claims and current admin.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.Admin, *Claims, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Unauthorized, "Invalid or expired token", err)
	}

	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, apperr.NewInternal("token check failed", err)
		}
		if revoked {
			return nil, nil, apperr.NewUnauthorized("Token has been revoked")
		}
	}

	admin := a.admins.FetchAdmin(ctx, claims.Subject)
	if admin == nil {
		return nil, nil, apperr.NewUnauthorized("Account not found")
	}
	return admin, claims, nil
}

// Require rejects requests without a valid bearer token and stores the
// admin and claims in the context for downstream handlers.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			jsonutil.WriteError(w, apperr.NewUnauthorized("Authorization token required"), false)
			return
		}

		admin, claims, err := a.Authenticate(r.Context(), token)
		if err != nil {
			if apperr.Is(err, apperr.Internal) {
				a.logger.Error("authentication lookup failed", zap.Error(err), zap.String("path", r.URL.Path))
			} else {
				a.logger.Debug("request rejected: unauthenticated",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err))
			}
			jsonutil.WriteError(w, err, false)
			return
		}

		next.ServeHTTP(w, WithAdmin(r, admin, claims))
	})
}

// IsWeakSecret reports whether a signing secret looks like a placeholder.
func IsWeakSecret(key string) bool {
	if len(key) < 32 {
		return true
	}
	lower := strings.ToLower(key)
	for _, p := range []string{"dev-only", "change-me", "placeholder", "example", "insecure", "secret123"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
