package library_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	library "github.com/goliatone/go-library"
	"github.com/goliatone/go-library/middleware/tokenware"
)

type testServer struct {
	t       *testing.T
	app     *fiber.App
	api     *library.API
	repo    library.RepositoryManager
	metrics *library.Metrics
	sink    *recordingSink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := newTestRepo(t)
	metrics := library.NewMetrics()
	sink := &recordingSink{}

	api := library.NewAPI(newTestConfig(), repo,
		library.WithAPILogger(nopLogger{}),
		library.WithAPIHasher(newTestHasher()),
		library.WithAPIMetrics(metrics),
		library.WithAPIActivitySink(sink),
	)

	return &testServer{
		t:       t,
		app:     api.NewApp(),
		api:     api,
		repo:    repo,
		metrics: metrics,
		sink:    sink,
	}
}

type response struct {
	Status int
	Body   []byte
}

func (r response) object(t *testing.T) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

func (r response) list(t *testing.T) []map[string]any {
	t.Helper()
	out := []map[string]any{}
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

func (r response) token(t *testing.T) string {
	t.Helper()
	var out string
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

// errorCode returns error.code of a {"error":{...}} body
func (r response) errorCode(t *testing.T) string {
	t.Helper()
	body := r.object(t)
	detail, ok := body["error"].(map[string]any)
	require.True(t, ok, string(r.Body))
	return detail["code"].(string)
}

func (s *testServer) do(method, path string, body any, token string) response {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(tokenware.HeaderAuthToken, token)
	}

	res, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(s.t, err)
	return response{Status: res.StatusCode, Body: raw}
}

func (s *testServer) registerUser(username string) map[string]any {
	s.t.Helper()
	res := s.do(http.MethodPost, "/users/register", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, "")
	require.Equal(s.t, http.StatusOK, res.Status, string(res.Body))
	return res.object(s.t)
}

func (s *testServer) loginUser(username string) string {
	s.t.Helper()
	res := s.do(http.MethodPost, "/auth/login/users", fiber.Map{
		"username": username,
		"password": "password123",
	}, "")
	require.Equal(s.t, http.StatusOK, res.Status, string(res.Body))
	return res.token(s.t)
}

func (s *testServer) adminToken(username string, perms library.Permissions) (string, *library.AdminAccount) {
	s.t.Helper()
	admin := seedAdmin(s.t, s.repo, username, "adminpassword", perms)
	res := s.do(http.MethodPost, "/auth/login/admins", fiber.Map{
		"username": username,
		"password": "adminpassword",
	}, "")
	require.Equal(s.t, http.StatusOK, res.Status, string(res.Body))
	return res.token(s.t), admin
}

func TestHTTP_RegisterConfirmLoginProfile(t *testing.T) {
	s := newTestServer(t)

	account := s.registerUser("reader")
	id := account["id"].(string)
	token := account["confirmationToken"].(string)
	assert.Equal(t, false, account["emailConfirmed"])
	assert.NotEmpty(t, token)
	assert.NotContains(t, account, "passwordHash")

	res := s.do(http.MethodPost, "/users/confirm/"+id, fiber.Map{"token": "wrong"}, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeInvalidToken, res.errorCode(t))

	res = s.do(http.MethodPost, "/users/confirm/"+id, fiber.Map{"token": token}, "")
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, true, res.object(t)["emailConfirmed"])

	res = s.do(http.MethodPost, "/users/confirm/"+id, fiber.Map{"token": token}, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeEmailAlreadyValidated, res.errorCode(t))

	access := s.loginUser("reader")

	res = s.do(http.MethodGet, "/auth/user", nil, access)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, "reader", res.object(t)["username"])

	res = s.do(http.MethodGet, "/users/"+id, nil, access)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, id, res.object(t)["id"])

	// a user token is not an admin session
	res = s.do(http.MethodGet, "/auth/admin", nil, access)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeInvalidCredentials, res.errorCode(t))
}

func TestHTTP_RegisterErrors(t *testing.T) {
	s := newTestServer(t)
	s.registerUser("reader")

	res := s.do(http.MethodPost, "/users/register", fiber.Map{
		"username": "reader",
		"email":    "fresh@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeUsernameInUse, res.errorCode(t))

	res = s.do(http.MethodPost, "/users/register", fiber.Map{
		"username": "fresh",
		"email":    "reader@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeEmailInUse, res.errorCode(t))

	res = s.do(http.MethodPost, "/users/register", fiber.Map{
		"username": "x",
		"email":    "not-an-email",
		"password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	fields, ok := res.object(t)["errors"].(map[string]any)
	require.True(t, ok, string(res.Body))
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestHTTP_LoginFailuresLookAlike(t *testing.T) {
	s := newTestServer(t)
	s.registerUser("reader")

	unknown := s.do(http.MethodPost, "/auth/login/users", fiber.Map{"username": "nobody", "password": "password123"}, "")
	wrong := s.do(http.MethodPost, "/auth/login/users", fiber.Map{"username": "reader", "password": "wrong-password"}, "")

	assert.Equal(t, http.StatusUnauthorized, unknown.Status)
	assert.Equal(t, unknown.Status, wrong.Status)
	assert.JSONEq(t, string(unknown.Body), string(wrong.Body))
	assert.Equal(t, library.TextCodeInvalidCredentials, unknown.errorCode(t))
}

func TestHTTP_TokenErrors(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodGet, "/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeUnauthorizedAccess, res.errorCode(t))

	res = s.do(http.MethodGet, "/users", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeInvalidToken, res.errorCode(t))

	account := s.registerUser("reader")
	res = s.do(http.MethodGet, "/users", nil, account["confirmationToken"].(string))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeInvalidToken, res.errorCode(t))
}

func TestHTTP_UserCannotTouchOthers(t *testing.T) {
	s := newTestServer(t)
	s.registerUser("reader")
	other := s.registerUser("other")
	otherID := other["id"].(string)
	access := s.loginUser("reader")

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/users", nil},
		{http.MethodGet, "/users/" + otherID, nil},
		{http.MethodPut, "/users/" + otherID, fiber.Map{"username": "hijacked"}},
		{http.MethodDelete, "/users/" + otherID, nil},
		{http.MethodGet, "/admins", nil},
		{http.MethodPost, "/authors", fiber.Map{"name": "Someone"}},
	} {
		res := s.do(tc.method, tc.path, tc.body, access)
		assert.Equal(t, http.StatusUnauthorized, res.Status, tc.method+" "+tc.path)
		assert.Equal(t, library.TextCodeUnauthorizedAction, res.errorCode(t), tc.method+" "+tc.path)
	}

	stored, err := s.repo.Accounts().GetByUsername(t.Context(), "other")
	require.NoError(t, err)
	assert.Equal(t, "other", stored.Username)
}

func TestHTTP_UserUpdatesItself(t *testing.T) {
	s := newTestServer(t)
	account := s.registerUser("reader")
	id := account["id"].(string)
	access := s.loginUser("reader")

	res := s.do(http.MethodPut, "/users/"+id, fiber.Map{"email": "changed@example.com"}, access)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	body := res.object(t)
	assert.Equal(t, "changed@example.com", body["email"])
	assert.Equal(t, false, body["emailConfirmed"])

	// users cannot lift their own ban or ban themselves
	res = s.do(http.MethodPut, "/users/"+id, fiber.Map{"banned": true}, access)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeUnauthorizedAction, res.errorCode(t))

	res = s.do(http.MethodDelete, "/users/"+id, nil, access)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestHTTP_AdminManagement(t *testing.T) {
	s := newTestServer(t)
	regular, regularAdmin := s.adminToken("staff", library.DefaultPermissions())
	super, _ := s.adminToken("root", library.Permissions{SuperAdmin: true})

	newAdmin := fiber.Map{
		"username": "editor",
		"email":    "editor@example.com",
		"password": "editorpassword",
	}

	res := s.do(http.MethodPost, "/admins", newAdmin, regular)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeUnauthorizedAction, res.errorCode(t))

	res = s.do(http.MethodPost, "/admins", newAdmin, super)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	created := res.object(t)
	perms := created["permissions"].(map[string]any)
	assert.Equal(t, false, perms["superAdmin"])
	assert.Equal(t, true, perms["manageUsers"])
	assert.Equal(t, true, perms["delete"])
	assert.NotContains(t, created, "passwordHash")

	res = s.do(http.MethodPost, "/admins", newAdmin, super)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeUsernameInUse, res.errorCode(t))

	res = s.do(http.MethodGet, "/admins/"+regularAdmin.ID.String(), nil, regular)
	assert.Equal(t, http.StatusOK, res.Status, "an admin reads itself")

	res = s.do(http.MethodGet, "/admins/"+created["id"].(string), nil, regular)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = s.do(http.MethodPut, "/admins/"+created["id"].(string), fiber.Map{
		"permissions": fiber.Map{"delete": false},
	}, super)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, false, res.object(t)["permissions"].(map[string]any)["delete"])

	res = s.do(http.MethodGet, "/admins", nil, super)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.list(t), 3)

	res = s.do(http.MethodDelete, "/admins/"+created["id"].(string), nil, super)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, created["id"], res.object(t)["deleted"])

	res = s.do(http.MethodDelete, "/admins/"+created["id"].(string), nil, super)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeInvalidID, res.errorCode(t))

	res = s.do(http.MethodGet, "/auth/admin", nil, regular)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "staff", res.object(t)["username"])
}

func TestHTTP_ManagerBansUser(t *testing.T) {
	s := newTestServer(t)
	account := s.registerUser("reader")
	id := account["id"].(string)
	manager, _ := s.adminToken("manager", library.Permissions{ManageUsers: true})

	res := s.do(http.MethodPut, "/users/"+id, fiber.Map{"banned": true}, manager)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, true, res.object(t)["banned"])

	res = s.do(http.MethodPost, "/auth/login/users", fiber.Map{"username": "reader", "password": "password123"}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeAccountBanned, res.errorCode(t))

	res = s.do(http.MethodGet, "/users", nil, manager)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.list(t), 1)

	res = s.do(http.MethodDelete, "/users/"+id, nil, manager)
	require.Equal(t, http.StatusOK, res.Status)

	res = s.do(http.MethodGet, "/users/"+id, nil, manager)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeInvalidID, res.errorCode(t))
}

func TestHTTP_BannedTokenStopsWorking(t *testing.T) {
	s := newTestServer(t)
	account := s.registerUser("reader")
	id := account["id"].(string)
	token := s.loginUser("reader")
	manager, _ := s.adminToken("manager", library.Permissions{ManageUsers: true})

	res := s.do(http.MethodGet, "/users/"+id, nil, token)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))

	res = s.do(http.MethodPut, "/users/"+id, fiber.Map{"banned": true}, manager)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))

	res = s.do(http.MethodGet, "/users/"+id, nil, token)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeAccountBanned, res.errorCode(t))

	res = s.do(http.MethodGet, "/auth/user", nil, token)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeAccountBanned, res.errorCode(t))

	res = s.do(http.MethodPut, "/users/"+id, fiber.Map{"banned": false}, manager)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))

	res = s.do(http.MethodGet, "/users/"+id, nil, token)
	assert.Equal(t, http.StatusOK, res.Status, "lifting the ban restores the token")

	res = s.do(http.MethodDelete, "/users/"+id, nil, manager)
	require.Equal(t, http.StatusOK, res.Status)

	res = s.do(http.MethodGet, "/users/"+id, nil, token)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, library.TextCodeInvalidCredentials, res.errorCode(t))
}

func TestHTTP_ContentAndLibrary(t *testing.T) {
	s := newTestServer(t)
	editor, _ := s.adminToken("editor", library.DefaultPermissions())
	limited, _ := s.adminToken("limited", library.Permissions{Create: true})

	res := s.do(http.MethodPost, "/authors", fiber.Map{"name": "Octavia Butler", "birthYear": "1947"}, editor)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	author := res.object(t)
	authorID := author["id"].(string)
	assert.Equal(t, library.DefaultAuthorImage, author["imgUrl"])
	assert.Equal(t, "1947", author["birthYear"])

	res = s.do(http.MethodPost, "/authors", fiber.Map{"name": "Second Author"}, editor)
	require.Equal(t, http.StatusOK, res.Status)
	secondID := res.object(t)["id"].(string)

	res = s.do(http.MethodPost, "/books", fiber.Map{"title": "Kindred", "authorId": uuid.NewString()}, editor)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeInvalidID, res.errorCode(t))

	res = s.do(http.MethodPost, "/books", fiber.Map{
		"title":    "Kindred",
		"authorId": authorID,
		"genre":    []string{"fiction"},
	}, editor)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	bookID := res.object(t)["id"].(string)

	res = s.do(http.MethodGet, "/authors/"+authorID, nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, []any{bookID}, res.object(t)["books"])

	res = s.do(http.MethodPut, "/books/"+bookID, fiber.Map{"authorId": secondID}, limited)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = s.do(http.MethodPut, "/books/"+bookID, fiber.Map{"authorId": secondID, "writeYear": "1979"}, editor)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, secondID, res.object(t)["authorId"])
	assert.Equal(t, "1979", res.object(t)["writeYear"])

	res = s.do(http.MethodGet, "/authors/"+authorID, nil, "")
	assert.Empty(t, res.object(t)["books"])
	res = s.do(http.MethodGet, "/authors/"+secondID, nil, "")
	assert.Equal(t, []any{bookID}, res.object(t)["books"])

	account := s.registerUser("reader")
	userID := account["id"].(string)
	access := s.loginUser("reader")

	res = s.do(http.MethodPost, "/users/"+userID+"/library", fiber.Map{"bookId": bookID}, access)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	entries := res.object(t)["library"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, bookID, entries[0].(map[string]any)["bookId"])

	res = s.do(http.MethodDelete, "/users/"+userID+"/library/"+bookID, nil, access)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Empty(t, res.object(t)["library"])

	res = s.do(http.MethodGet, "/books", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.list(t), 1)

	res = s.do(http.MethodDelete, "/books/"+bookID, nil, limited)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = s.do(http.MethodDelete, "/books/"+bookID, nil, editor)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))

	res = s.do(http.MethodGet, "/authors/"+secondID, nil, "")
	assert.Empty(t, res.object(t)["books"])

	res = s.do(http.MethodDelete, "/authors/"+authorID, nil, editor)
	require.Equal(t, http.StatusOK, res.Status)

	res = s.do(http.MethodGet, "/authors/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, library.TextCodeInvalidID, res.errorCode(t))
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "ok", res.object(t)["status"])

	s.do(http.MethodGet, "/users", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	raw, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer raw.Body.Close()
	body, err := io.ReadAll(raw.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Contains(t, string(body), "library_http_requests_total")
	assert.Contains(t, string(body), `status="401"`)
}

func TestHTTP_PanicIsCounted(t *testing.T) {
	s := newTestServer(t)
	s.app.Get("/api/v1/boom", func(*fiber.Ctx) error {
		panic("boom")
	})

	res := s.do(http.MethodGet, "/boom", nil, "")
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, library.TextCodeInternal, res.errorCode(t))

	raw, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer raw.Body.Close()
	body, err := io.ReadAll(raw.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `library_http_requests_total{method="GET",route="/api/v1/boom",status="500"} 1`)
}

func TestHTTP_UnknownRoute(t *testing.T) {
	s := newTestServer(t)
	res := s.do(http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "NOT_FOUND", res.errorCode(t))
}
