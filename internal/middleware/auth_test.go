package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

func newTokens() *auth.TokenService {
	return auth.NewTokenService("test-secret", time.Hour).WithClock(func() time.Time { return fixedNow })
}

func issue(t *testing.T, ts *auth.TokenService, role auth.Role) string {
	t.Helper()
	tok, err := ts.Issue(auth.Identity{SubjectID: 42, Username: "alice", Role: role})
	require.NoError(t, err)
	return tok
}

// reached records whether the wrapped handler ran and with which identity.
type reached struct {
	called bool
	id     auth.Identity
}

func (h *reached) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.id, _ = IdentityFrom(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error
}

func TestAuthMiddleware_Outcomes(t *testing.T) {
	ts := newTokens()
	valid := issue(t, ts, auth.RoleUser)
	foreign, err := auth.NewTokenService("other", time.Hour).Issue(auth.Identity{SubjectID: 1, Username: "x", Role: auth.RoleUser})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"missing", "", http.StatusUnauthorized, "no token provided"},
		{"not bearer", "Basic abc", http.StatusForbidden, "invalid or expired token"},
		{"scheme only", "Bearer", http.StatusForbidden, "invalid or expired token"},
		{"garbage", "Bearer not.a.jwt", http.StatusForbidden, "invalid or expired token"},
		{"foreign secret", "Bearer " + foreign, http.StatusForbidden, "invalid or expired token"},
		{"valid", "Bearer " + valid, http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &reached{}
			h := NewAuthMiddleware(ts).Handle(next)

			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errorBody(t, rec))
				assert.False(t, next.called)
				return
			}
			require.True(t, next.called)
			assert.Equal(t, 42, next.id.SubjectID)
			assert.Equal(t, auth.RoleUser, next.id.Role)
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	ts := newTokens()
	tok := issue(t, ts, auth.RoleUser)
	later := ts.WithClock(func() time.Time { return fixedNow.Add(2 * time.Hour) })

	next := &reached{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	NewAuthMiddleware(later).Handle(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, next.called)
}

func TestAuthMiddleware_QueryTokenOnlyForWebsocket(t *testing.T) {
	ts := newTokens()
	tok := issue(t, ts, auth.RoleUser)
	am := NewAuthMiddleware(ts)

	rec := httptest.NewRecorder()
	am.Handle(&reached{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	next := &reached{}
	rec = httptest.NewRecorder()
	am.HandleWS(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, next.called)
}

func TestRoleGates_Monotonic(t *testing.T) {
	gates := map[string]func(http.Handler) http.Handler{
		"RequireAdmin":      RequireAdmin,
		"RequireAnyAdmin":   RequireAnyAdmin,
		"RequireSuperAdmin": RequireSuperAdmin,
	}
	admits := func(gate func(http.Handler) http.Handler, role auth.Role) bool {
		next := &reached{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), auth.Identity{SubjectID: 1, Role: role}))
		rec := httptest.NewRecorder()
		gate(next).ServeHTTP(rec, req)
		if !next.called {
			assert.Equal(t, http.StatusForbidden, rec.Code)
		}
		return next.called
	}

	for name, gate := range gates {
		t.Run(name, func(t *testing.T) {
			// If a role passes, every role covering it passes too.
			for _, lower := range auth.Roles {
				if !admits(gate, lower) {
					continue
				}
				for _, higher := range auth.Roles {
					if higher.Covers(lower) {
						assert.True(t, admits(gate, higher), "%s admits %s but not %s", name, lower, higher)
					}
				}
			}
		})
	}

	assert.True(t, admits(RequireAdmin, auth.RoleAdmin))
	assert.True(t, admits(RequireAdmin, auth.RoleSuperAdmin))
	assert.False(t, admits(RequireAdmin, auth.RoleBusiness))
	assert.False(t, admits(RequireAdmin, auth.RoleUser))
	assert.False(t, admits(RequireSuperAdmin, auth.RoleAdmin))
	assert.True(t, admits(RequireSuperAdmin, auth.RoleSuperAdmin))
}

func TestRoleGates_NoIdentity(t *testing.T) {
	for _, gate := range []func(http.Handler) http.Handler{RequireAdmin, RequireAnyAdmin, RequireSuperAdmin} {
		next := &reached{}
		rec := httptest.NewRecorder()
		gate(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, next.called)
	}
}

// A promotion only reaches the gate once the user holds a freshly issued token.
func TestPromotionStaleness(t *testing.T) {
	ts := newTokens()
	before := issue(t, ts, auth.RoleUser)

	gate := func(tok string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		NewAuthMiddleware(ts).Handle(RequireAdmin(&reached{})).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, gate(before))

	// The store now says admin, but the old token still says user.
	assert.Equal(t, http.StatusForbidden, gate(before))

	after := issue(t, ts, auth.RoleAdmin)
	assert.Equal(t, http.StatusNoContent, gate(after))
}
