package blacklist

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

// Acknowledgements carry a top-level message; the listing nests under data.
func TestHandler_ResponseShapes(t *testing.T) {
	svc, _, ids := setup(t, "alice", "bob")
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), auth.Identity{SubjectID: ids[0], Role: auth.RoleUser})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Get("/api/blacklist", h.List)
	r.Post("/api/blacklist/{userId}", h.Block)
	r.Delete("/api/blacklist/{userId}", h.Unblock)

	target := "/api/blacklist/" + strconv.Itoa(ids[1])

	code, out := serve(t, r, http.MethodPost, target)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"success": true, "message": "user blocked"}, out)

	code, out = serve(t, r, http.MethodGet, "/api/blacklist")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])
	list, ok := out["data"].([]any)
	require.True(t, ok, "listing is nested under data")
	assert.Len(t, list, 1)

	code, out = serve(t, r, http.MethodDelete, target)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"success": true, "message": "user unblocked"}, out)
}
