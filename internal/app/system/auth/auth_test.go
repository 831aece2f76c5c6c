package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSecret = "test-signing-secret-with-enough-length-000"

type fakeAdmins map[string]*models.Admin

func (f fakeAdmins) FetchAdmin(_ context.Context, id string) *models.Admin { return f[id] }

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func newAdmin() *models.Admin {
	return &models.Admin{ID: primitive.NewObjectID(), Email: "owner@example.com", Name: "Owner"}
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager(testSecret, "stratasite", time.Hour)
	admin := newAdmin()

	token, claims, err := m.Issue(admin)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, admin.ID.Hex(), claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)

	parsed, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, parsed.Subject)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.Equal(t, "owner@example.com", parsed.Email)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := NewTokenManager(testSecret, "", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.Issue(newAdmin())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager(testSecret, "", time.Hour).Issue(newAdmin())
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-that-is-long-enough-000", "", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	token, _, err := NewTokenManager(testSecret, "other", time.Hour).Issue(newAdmin())
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, "stratasite", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNonAdminRole(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   primitive.NewObjectID().Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "viewer",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, "", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   primitive.NewObjectID().Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: models.RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, "", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Bearer   ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, ok := BearerToken(req)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequire(t *testing.T) {
	tm := NewTokenManager(testSecret, "stratasite", time.Hour)
	admin := newAdmin()
	token, claims, err := tm.Issue(admin)
	require.NoError(t, err)

	revokedToken, revokedClaims, err := tm.Issue(admin)
	require.NoError(t, err)

	orphan := newAdmin()
	orphanToken, _, err := tm.Issue(orphan)
	require.NoError(t, err)

	revs := &fakeRevocations{revoked: map[string]bool{revokedClaims.ID: true}}
	a := NewAuthenticator(tm, fakeAdmins{admin.ID.Hex(): admin}, revs, zap.NewNop())

	var seen *models.Admin
	var seenClaims *Claims
	h := a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CurrentAdmin(r)
		seenClaims, _ = CurrentClaims(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"revoked token", "Bearer " + revokedToken, http.StatusUnauthorized},
		{"account gone", "Bearer " + orphanToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, seenClaims = nil, nil
			req := httptest.NewRequest(http.MethodPut, "/home/hero", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, admin.ID, seen.ID)
				assert.Equal(t, claims.ID, seenClaims.ID)
			} else {
				assert.Nil(t, seen)
				assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestRequire_RevocationLookupFails(t *testing.T) {
	tm := NewTokenManager(testSecret, "", time.Hour)
	admin := newAdmin()
	token, _, err := tm.Issue(admin)
	require.NoError(t, err)

	revs := &fakeRevocations{err: errors.New("db down")}
	a := NewAuthenticator(tm, fakeAdmins{admin.ID.Hex(): admin}, revs, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIsWeakSecret(t *testing.T) {
	assert.True(t, IsWeakSecret(""))
	assert.True(t, IsWeakSecret("short"))
	assert.True(t, IsWeakSecret("dev-only-change-me-please-0123456789ABCDEF"))
	assert.False(t, IsWeakSecret("q8Zp3vR7tL1xN6bW0cY4mK9sH2dF5gJ7"))
}
