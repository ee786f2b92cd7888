package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-portal/internal/logging"
	"github.com/iliyamo/course-portal/internal/middleware"
	"github.com/iliyamo/course-portal/internal/repository/memory"
	"github.com/iliyamo/course-portal/internal/service"
)

const testSecret = "test-secret"

type response struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := logging.Discard()
	deps := service.Deps{Store: memory.New(), Log: log}
	users := service.NewUserService(deps, 4, testSecret, 5)
	comments := service.NewCommentService(deps)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Use(middleware.CORS("*"))
	e.Use(middleware.Identity(testSecret))
	e.GET("/healthz", Health)
	e.POST("/api/auth/login", NewAuthHandler(users).Login)
	e.Any("/api/users", NewUserHandler(users).Handle)
	e.Any("/api/assignments", NewAssignmentHandler(service.NewAssignmentService(deps), comments).Handle)
	e.Any("/api/weekly", NewWeekHandler(service.NewWeekService(deps), comments).Handle)
	e.Any("/api/resources", NewResourceHandler(service.NewResourceService(deps), comments).Handle)
	return e
}

func call(t *testing.T, e *echo.Echo, method, target, body, token string) (int, response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func data[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v), string(r.Data))
	return v
}

func TestHealth(t *testing.T) {
	e := newServer(t)
	code, res := call(t, e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Success)
	assert.Equal(t, "ok", res.Message)
}

func TestOptionsPreflight(t *testing.T) {
	e := newServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/weekly", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRouting_Errors(t *testing.T) {
	e := newServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"unknown resource", http.MethodGet, "/api/weekly?resource=grades", "", http.StatusBadRequest},
		{"unsupported verb", http.MethodPatch, "/api/assignments", `{"title":"x"}`, http.StatusMethodNotAllowed},
		{"comments are never edited", http.MethodPut, "/api/assignments?resource=comments", `{"id":1,"text":"x"}`, http.StatusMethodNotAllowed},
		{"malformed json", http.MethodPost, "/api/assignments", `{"title":`, http.StatusBadRequest},
		{"non numeric id", http.MethodGet, "/api/assignments?id=abc", "", http.StatusBadRequest},
		{"missing parent key", http.MethodGet, "/api/resources?resource=comments", "", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/grades", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := call(t, e, tt.method, tt.target, tt.body, "")
			assert.Equal(t, tt.status, code)
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestUsers_CreateSanitizesAndGetReturnsSame(t *testing.T) {
	e := newServer(t)

	code, res := call(t, e, http.MethodPost, "/api/users",
		`{"id":" S1 ","name":"  <b>Ann</b> & co ","email":"ann@uni.test","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, code, res.Error)
	assert.True(t, res.Success)
	created := data[map[string]any](t, res)
	assert.Equal(t, "S1", created["id"])
	assert.Equal(t, "Ann &amp; co", created["name"])
	assert.NotContains(t, created, "password")

	code, res = call(t, e, http.MethodGet, "/api/users?id=S1", "", "")
	require.Equal(t, http.StatusOK, code)
	got := data[map[string]any](t, res)
	assert.Equal(t, created["name"], got["name"])
	assert.Equal(t, created["email"], got["email"])
}

func TestUsers_DuplicatesConflict(t *testing.T) {
	e := newServer(t)
	code, _ := call(t, e, http.MethodPost, "/api/users", `{"id":"S1","name":"Ann","email":"ann@uni.test","password":"x"}`, "")
	require.Equal(t, http.StatusCreated, code)

	code, res := call(t, e, http.MethodPost, "/api/users", `{"id":"S1","name":"Bob","email":"bob@uni.test","password":"x"}`, "")
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, res.Success)

	code, _ = call(t, e, http.MethodPost, "/api/users", `{"id":"S2","name":"Bob","email":"ann@uni.test","password":"x"}`, "")
	assert.Equal(t, http.StatusConflict, code)

	code, res = call(t, e, http.MethodPost, "/api/users", `{"id":"S3","name":"Cy","email":"not-an-email","password":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Fields, "email")
}

func TestUsers_SortDescending(t *testing.T) {
	e := newServer(t)
	for i, name := range []string{"bob", "Alice", "carl"} {
		body := `{"id":"S` + string(rune('1'+i)) + `","name":"` + name + `","email":"` + strings.ToLower(name) + `@uni.test","password":"x"}`
		code, res := call(t, e, http.MethodPost, "/api/users", body, "")
		require.Equal(t, http.StatusCreated, code, res.Error)
	}

	names := func(target string) []string {
		code, res := call(t, e, http.MethodGet, target, "", "")
		require.Equal(t, http.StatusOK, code)
		var out []string
		for _, u := range data[[]map[string]any](t, res) {
			out = append(out, u["name"].(string))
		}
		return out
	}
	assert.Equal(t, []string{"carl", "bob", "Alice"}, names("/api/users?sort=name&order=DESC"))
	assert.Equal(t, []string{"Alice", "bob", "carl"}, names("/api/users?sort=password&order=sideways"))
	assert.Equal(t, []string{"Alice"}, names("/api/users?search=ALI"))
}

func TestUsers_PartialUpdateAndDeleteTwice(t *testing.T) {
	e := newServer(t)
	code, _ := call(t, e, http.MethodPost, "/api/users", `{"id":"S1","name":"Ann","email":"ann@uni.test","password":"x"}`, "")
	require.Equal(t, http.StatusCreated, code)

	code, res := call(t, e, http.MethodPut, "/api/users", `{"id":"S1","email":"ann@new.test"}`, "")
	require.Equal(t, http.StatusOK, code, res.Error)
	u := data[map[string]any](t, res)
	assert.Equal(t, "Ann", u["name"])
	assert.Equal(t, "ann@new.test", u["email"])
	assert.NotEmpty(t, res.Message)

	code, _ = call(t, e, http.MethodPut, "/api/users", `{"id":"S1"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, e, http.MethodPut, "/api/users", `{"id":"nobody","name":"X"}`, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, e, http.MethodDelete, "/api/users?id=S1", "", "")
	assert.Equal(t, http.StatusOK, code)
	for i := 0; i < 2; i++ {
		code, _ = call(t, e, http.MethodDelete, "/api/users", `{"id":"S1"}`, "")
		assert.Equal(t, http.StatusNotFound, code)
	}
}

func TestUsers_CreateRejectsOverlongPassword(t *testing.T) {
	e := newServer(t)
	code, res := call(t, e, http.MethodPost, "/api/users",
		`{"id":"S1","name":"Ann","email":"ann@uni.test","password":"`+strings.Repeat("p", 73)+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, code, res.Error)
	assert.False(t, res.Success)
	assert.Contains(t, res.Fields, "password")

	// 72 bytes is still accepted
	code, res = call(t, e, http.MethodPost, "/api/users",
		`{"id":"S1","name":"Ann","email":"ann@uni.test","password":"`+strings.Repeat("p", 72)+`"}`, "")
	assert.Equal(t, http.StatusCreated, code, res.Error)
}

func TestUsers_ChangePassword(t *testing.T) {
	e := newServer(t)
	code, _ := call(t, e, http.MethodPost, "/api/users", `{"id":"S1","name":"Ann","email":"ann@uni.test","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, code)

	code, res := call(t, e, http.MethodPost, "/api/auth/login", `{"email":"ann@uni.test","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, res = call(t, e, http.MethodPost, "/api/auth/login", `{"email":"ann@uni.test","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, code, res.Error)
	login := data[service.LoginResult](t, res)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "S1", login.User.ID)

	const target = "/api/users?action=change_password"
	tests := []struct {
		name   string
		token  string
		body   string
		status int
	}{
		{"anonymous", "", `{"current_password":"secret123","new_password":"another123"}`, http.StatusUnauthorized},
		{"bad token", "garbage", `{"current_password":"secret123","new_password":"another123"}`, http.StatusUnauthorized},
		{"missing field", login.Token, `{"current_password":"secret123"}`, http.StatusBadRequest},
		{"too short", login.Token, `{"current_password":"secret123","new_password":"short"}`, http.StatusBadRequest},
		{"too long", login.Token, `{"current_password":"secret123","new_password":"` + strings.Repeat("p", 73) + `"}`, http.StatusBadRequest},
		{"same as current", login.Token, `{"current_password":"secret123","new_password":"secret123"}`, http.StatusBadRequest},
		{"wrong current", login.Token, `{"current_password":"nope12345","new_password":"another123"}`, http.StatusUnauthorized},
		{"ok", login.Token, `{"current_password":"secret123","new_password":"another123"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := call(t, e, http.MethodPost, target, tt.body, tt.token)
			assert.Equal(t, tt.status, code, res.Error)
			assert.Equal(t, tt.status == http.StatusOK, res.Success)
		})
	}

	code, _ = call(t, e, http.MethodPost, "/api/auth/login", `{"email":"ann@uni.test","password":"another123"}`, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestAssignments_DueDateFormat(t *testing.T) {
	e := newServer(t)

	code, res := call(t, e, http.MethodPost, "/api/assignments", `{"title":"T","description":"D","due_date":"2025-02-15"}`, "")
	require.Equal(t, http.StatusCreated, code, res.Error)
	a := data[map[string]any](t, res)
	assert.Equal(t, "2025-02-15", a["due_date"])
	assert.Equal(t, []any{}, a["files"])

	code, res = call(t, e, http.MethodPost, "/api/assignments", `{"title":"T","description":"D","due_date":"15-02-2025"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, res.Success)

	code, _ = call(t, e, http.MethodPost, "/api/assignments",
		`{"title":"T","description":"D","due_date":"2025-02-15","files":["notaurl"]}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAssignments_UpdateByNumericBodyID(t *testing.T) {
	e := newServer(t)
	code, res := call(t, e, http.MethodPost, "/api/assignments", `{"title":"T","description":"D","due_date":"2025-02-15"}`, "")
	require.Equal(t, http.StatusCreated, code)
	id := data[map[string]any](t, res)["id"].(float64)
	require.NotZero(t, id)

	code, res = call(t, e, http.MethodPut, "/api/assignments", `{"id":1,"title":"New"}`, "")
	require.Equal(t, http.StatusOK, code, res.Error)
	a := data[map[string]any](t, res)
	assert.Equal(t, "New", a["title"])
	assert.Equal(t, "D", a["description"])

	code, _ = call(t, e, http.MethodPut, "/api/assignments", `{"id":1,"title":"   "}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWeeks_DeleteCascadesComments(t *testing.T) {
	e := newServer(t)
	code, res := call(t, e, http.MethodPost, "/api/weekly",
		`{"week_id":"week_1","title":"Intro","start_date":"2025-01-06","links":["https://a.test"]}`, "")
	require.Equal(t, http.StatusCreated, code, res.Error)

	code, _ = call(t, e, http.MethodPost, "/api/weekly", `{"week_id":"week_1","title":"Again","start_date":"2025-01-06"}`, "")
	assert.Equal(t, http.StatusConflict, code)

	for _, text := range []string{"first", "second"} {
		code, res = call(t, e, http.MethodPost, "/api/weekly?resource=comments",
			`{"week_id":"week_1","author":"ann","text":"`+text+`"}`, "")
		require.Equal(t, http.StatusCreated, code, res.Error)
	}

	code, res = call(t, e, http.MethodGet, "/api/weekly?resource=comments&week_id=week_1", "", "")
	require.Equal(t, http.StatusOK, code)
	comments := data[[]map[string]any](t, res)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0]["text"])
	assert.Equal(t, "week_1", comments[0]["week_id"])

	code, _ = call(t, e, http.MethodDelete, "/api/weekly?week_id=week_1", "", "")
	require.Equal(t, http.StatusOK, code)

	code, res = call(t, e, http.MethodGet, "/api/weekly?resource=comments&week_id=week_1", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(res.Data))

	code, _ = call(t, e, http.MethodGet, "/api/weekly?id=week_1", "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestResources_LegacyCommentActions(t *testing.T) {
	e := newServer(t)

	code, _ := call(t, e, http.MethodPost, "/api/resources", `{"title":"Docs","link":"not a url"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, res := call(t, e, http.MethodPost, "/api/resources", `{"title":"Docs","link":"https://go.dev/doc/?a=1&b=2"}`, "")
	require.Equal(t, http.StatusCreated, code, res.Error)
	r := data[map[string]any](t, res)
	assert.Equal(t, "https://go.dev/doc/?a=1&b=2", r["link"])

	code, _ = call(t, e, http.MethodPost, "/api/resources?action=comment", `{"resource_id":99,"author":"a","text":"t"}`, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, res = call(t, e, http.MethodPost, "/api/resources?action=comment", `{"resource_id":1,"author":"a","text":"t"}`, "")
	require.Equal(t, http.StatusCreated, code, res.Error)
	cid := data[map[string]any](t, res)["id"].(float64)

	code, res = call(t, e, http.MethodGet, "/api/resources?action=comments&resource_id=1", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, data[[]map[string]any](t, res), 1)

	code, _ = call(t, e, http.MethodDelete, "/api/resources?action=delete_comment", `{"comment_id":`+jsonNumber(cid)+`}`, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, e, http.MethodDelete, "/api/resources?resource=comments&id="+jsonNumber(cid), "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
