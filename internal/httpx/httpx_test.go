package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=20,alphanumunder"`
	Password string `json:"password" validate:"required,min=8,max=20"`
	Confirm  string `json:"confirmPassword" validate:"eqfield=Password"`
}

func decodeBody(t *testing.T, body string) error {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	var dst signup
	return Decode(w, r, &dst)
}

func TestDecode_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"username":"alice_1","password":"Passw0rd!","confirmPassword":"Passw0rd!"}`, ""},
		{"bad json", `{`, "invalid request body"},
		{"short name", `{"username":"al","password":"Passw0rd!","confirmPassword":"Passw0rd!"}`, "username must be at least 3 characters"},
		{"bad chars", `{"username":"al ice","password":"Passw0rd!","confirmPassword":"Passw0rd!"}`, "username may only contain letters, digits and underscores"},
		{"mismatch", `{"username":"alice","password":"Passw0rd!","confirmPassword":"nope"}`, "confirmPassword must match Password"},
		{"missing", `{"password":"Passw0rd!","confirmPassword":"Passw0rd!"}`, "username is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeBody(t, tt.body)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestError_WritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, apperr.ErrBlocked)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "recipient has blocked you", body["error"])
}

func TestOKAndFields_Shapes(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]any{"id": 1})
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"success": true, "data": map[string]any{"id": float64(1)}}, body)

	w = httptest.NewRecorder()
	Fields(w, map[string]any{"url": "http://cdn.local/x.png"})
	body = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"success": true, "url": "http://cdn.local/x.png"}, body)
}

func TestError_InternalKeepsCause(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, apperr.Internal(errors.New("connection refused")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestPage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&pageSize=500", nil)
	page, size := Page(r)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)

	r = httptest.NewRequest(http.MethodGet, "/?page=-1", nil)
	page, size = Page(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}
