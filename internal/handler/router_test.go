package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/auth"
	"github.com/teamtodo/teamtodo/internal/metrics"
	"github.com/teamtodo/teamtodo/internal/middleware"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
	"github.com/teamtodo/teamtodo/internal/service"
	"github.com/teamtodo/teamtodo/internal/team"
	"github.com/teamtodo/teamtodo/internal/testutil"
)

const routerTestSecret = "0123456789abcdef0123456789abcdef"

// plainHasher keeps tests fast; it is not a real password hash.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Verify(password, hash string) (bool, error) {
	return hash == "plain:"+password, nil
}

type testApp struct {
	store  *repository.Memory
	router http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemory()
	recorder := metrics.NewInMemory()

	codec, err := auth.NewTokenCodec(routerTestSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	resolver := auth.NewResolver(auth.NewAllowList(auth.DefaultAllowList...), codec, store, recorder)
	cookies := auth.CookieConfig{}

	router := NewRouter(RouterConfig{
		Logger:        logger,
		Resolver:      resolver,
		Cookies:       cookies,
		CORS:          middleware.DefaultCORSConfig(nil),
		MaxBodySize:   1 << 20,
		Index:         New("test"),
		Health:        NewHealthHandler(logger),
		Users:         NewUserHandler(service.NewUserService(store, plainHasher{}, codec), cookies, codec.TTL(), logger),
		Teams:         NewTeamHandler(team.NewService(store, recorder), logger),
		Assignments:   NewAssignmentHandler(team.NewAssignmentService(store, recorder), logger),
		Notifications: NewNotificationHandler(store, logger),
		Metrics:       http.HandlerFunc(NewMetricsHandler(recorder).Metrics),
	})

	return &testApp{store: store, router: router}
}

func (a *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec, decodeEnvelope(t, rec)
}

// register creates an account and returns its user ID.
func (a *testApp) register(t *testing.T, email, nickname string) string {
	t.Helper()
	rec, env := a.do(t, http.MethodPost, "/api/v1/user/register", map[string]string{
		"email": email, "password": "secret-pw", "nickname": nickname,
	})
	if rec.Code != http.StatusCreated || env.ResultCode != apperror.CodeCreated {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return user.ID
}

// login returns the access token cookie for the account.
func (a *testApp) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec, env := a.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{
		"email": email, "password": "secret-pw",
	})
	if env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("login %s: %s", email, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieAccessToken {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	t.Fatalf("login %s: no access token cookie", email)
	return nil
}

func (a *testApp) createTeam(t *testing.T, token *http.Cookie, name string) string {
	t.Helper()
	rec, env := a.do(t, http.MethodPost, "/api/v1/teams", map[string]string{"teamName": name}, token)
	if env.ResultCode != apperror.CodeCreated {
		t.Fatalf("create team: %s", rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode team: %v", err)
	}
	return created.ID
}

func TestRouter_LoginSetsBothCookies(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.register(t, "alice@example.com", "alice")

	rec, env := app.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{
		"email": "Alice@Example.com", "password": "secret-pw",
	})
	if rec.Code != http.StatusOK || env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}

	var data struct {
		APIKey      string `json:"apiKey"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	got := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		got[c.Name] = c
	}
	apiKey, token := got[auth.CookieAPIKey], got[auth.CookieAccessToken]
	if apiKey == nil || token == nil {
		t.Fatalf("expected both credential cookies, got %v", rec.Result().Cookies())
	}
	if apiKey.Value != data.APIKey || token.Value != data.AccessToken {
		t.Error("cookies should match the body credentials")
	}
	if !apiKey.HttpOnly || !token.HttpOnly {
		t.Error("credential cookies must be httpOnly")
	}
	if apiKey.MaxAge != 0 {
		t.Errorf("apiKey cookie should be a session cookie, MaxAge = %d", apiKey.MaxAge)
	}
	if token.MaxAge != int(time.Hour.Seconds()) {
		t.Errorf("accessToken MaxAge = %d", token.MaxAge)
	}
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.register(t, "alice@example.com", "alice")

	rec, env := app.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{
		"email": "alice@example.com", "password": "nope",
	})
	if rec.Code != http.StatusBadRequest || env.ResultCode != apperror.CodeMalformed {
		t.Errorf("got %d %s", rec.Code, env.ResultCode)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed login must not set cookies")
	}
}

func TestRouter_LogoutExpiresCookies(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec, env := app.do(t, http.MethodPost, "/api/v1/user/logout", nil)
	if env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("logout: %s", rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge >= 0 || c.Value != "" {
			t.Errorf("cookie %s not expired: %+v", c.Name, c)
		}
	}
}

func TestRouter_APIKeyCookieRefreshesToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	userID := app.register(t, "alice@example.com", "alice")

	user, err := app.store.GetUserByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}

	rec, env := app.do(t, http.MethodGet, "/api/v1/user/me", nil,
		&http.Cookie{Name: auth.CookieAPIKey, Value: user.APIKey})
	if env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("me: %s", rec.Body.String())
	}
	if rec.Header().Get("Authorization") == "" {
		t.Error("expected refreshed token in Authorization header")
	}

	var refreshed bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieAccessToken && c.Value != "" {
			refreshed = true
		}
	}
	if !refreshed {
		t.Error("expected refreshed accessToken cookie")
	}
}

func TestRouter_ProtectedRoutesRequireCredentials(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	tests := []struct {
		name     string
		cookie   *http.Cookie
		wantCode string
	}{
		{"anonymous", nil, apperror.CodeUnauthenticated},
		{"unknown api key", &http.Cookie{Name: auth.CookieAPIKey, Value: "not-a-key"}, apperror.CodeUnknownCredential},
		{"garbage token", &http.Cookie{Name: auth.CookieAccessToken, Value: "x.y.z"}, apperror.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			rec, env := app.do(t, http.MethodGet, "/api/v1/teams/my", nil, cookies...)
			if env.ResultCode != tt.wantCode {
				t.Errorf("resultCode = %s, want %s", env.ResultCode, tt.wantCode)
			}
			if rec.Code != apperror.StatusOf(tt.wantCode) {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}
}

func TestRouter_TeamLifecycle(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	aliceID := app.register(t, "alice@example.com", "alice")
	bobID := app.register(t, "bob@example.com", "bob")
	alice := app.login(t, "alice@example.com")
	bob := app.login(t, "bob@example.com")

	teamID := app.createTeam(t, alice, "core")
	base := "/api/v1/teams/" + teamID

	rec, env := app.do(t, http.MethodPost, base+"/members", map[string]string{"userEmail": "BOB@example.com"}, alice)
	if env.ResultCode != apperror.CodeCreated {
		t.Fatalf("add member: %s", rec.Body.String())
	}

	_, env = app.do(t, http.MethodPost, base+"/members", map[string]string{"userEmail": "bob@example.com"}, alice)
	if env.ResultCode != apperror.CodeAlreadyMember {
		t.Errorf("duplicate add = %s", env.ResultCode)
	}

	_, env = app.do(t, http.MethodPatch, base, map[string]string{"teamName": "renamed"}, bob)
	if env.ResultCode != apperror.CodeNoPermission {
		t.Errorf("member update = %s, want %s", env.ResultCode, apperror.CodeNoPermission)
	}

	rec, env = app.do(t, http.MethodDelete, base+"/members/"+aliceID, nil, alice)
	if rec.Code != http.StatusConflict || env.ResultCode != apperror.CodeLastLeader {
		t.Errorf("removing last leader = %d %s", rec.Code, env.ResultCode)
	}

	_, env = app.do(t, http.MethodPatch, base+"/members/"+bobID+"/role", map[string]string{"role": "leader"}, alice)
	if env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("promote bob = %s", env.ResultCode)
	}

	_, env = app.do(t, http.MethodDelete, base+"/members/"+aliceID, nil, alice)
	if env.ResultCode != apperror.CodeSuccess {
		t.Errorf("removing non-last leader = %s", env.ResultCode)
	}

	_, env = app.do(t, http.MethodGet, base, nil, alice)
	if env.ResultCode != apperror.CodeNoPermission {
		t.Errorf("removed member view = %s", env.ResultCode)
	}

	rec, env = app.do(t, http.MethodGet, base+"/members", nil, bob)
	if env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("members: %s", rec.Body.String())
	}
	var members []team.Member
	if err := json.Unmarshal(env.Data, &members); err != nil {
		t.Fatalf("decode members: %v", err)
	}
	if len(members) != 1 || members[0].UserID != bobID {
		t.Errorf("members = %+v", members)
	}
}

func TestRouter_AssignmentReconcile(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	ctx := context.Background()

	aliceID := app.register(t, "alice@example.com", "alice")
	bobID := app.register(t, "bob@example.com", "bob")
	app.register(t, "carol@example.com", "carol")
	alice := app.login(t, "alice@example.com")

	teamID := app.createTeam(t, alice, "core")
	if _, env := app.do(t, http.MethodPost, "/api/v1/teams/"+teamID+"/members",
		map[string]string{"userEmail": "bob@example.com"}, alice); env.ResultCode != apperror.CodeCreated {
		t.Fatalf("add bob = %s", env.ResultCode)
	}

	list := testutil.NewTestTodoList(t, teamID, aliceID)
	if err := app.store.CreateTodoList(ctx, list); err != nil {
		t.Fatalf("create list: %v", err)
	}
	todo := testutil.NewTestTodo(t, list.ID, "ship it")
	if err := app.store.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	todoPath := "/api/v1/teams/" + teamID + "/todos/" + todo.ID

	decodeResult := func(env envelope) team.AssignResult {
		t.Helper()
		var res team.AssignResult
		if err := json.Unmarshal(env.Data, &res); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		return res
	}

	body := map[string][]string{"assignedUserIds": {bobID, aliceID, bobID}}
	rec, env := app.do(t, http.MethodPut, todoPath+"/assignees", body, alice)
	if env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("set assignees: %s", rec.Body.String())
	}
	if res := decodeResult(env); len(res.Added) != 2 || len(res.AssigneeIDs) != 2 {
		t.Errorf("first reconcile = %+v", res)
	}

	_, env = app.do(t, http.MethodPut, todoPath+"/assignees", body, alice)
	if res := decodeResult(env); len(res.Added) != 0 || len(res.Removed) != 0 {
		t.Errorf("repeat reconcile should be a no-op, got %+v", res)
	}

	_, env = app.do(t, http.MethodPut, todoPath+"/assignees", map[string]string{}, alice)
	if env.ResultCode != apperror.CodeBadRequest {
		t.Errorf("missing assignedUserIds = %s", env.ResultCode)
	}
	_, env = app.do(t, http.MethodGet, todoPath+"/assignees", nil, alice)
	var current []json.RawMessage
	if err := json.Unmarshal(env.Data, &current); err != nil || len(current) != 2 {
		t.Errorf("assignees after rejected request = %s (err %v)", env.Data, err)
	}

	_, env = app.do(t, http.MethodPost, todoPath+"/assign", map[string]string{"assignedUserId": bobID}, alice)
	if res := decodeResult(env); len(res.AssigneeIDs) != 1 || len(res.Removed) != 1 {
		t.Errorf("single assign = %+v", res)
	}

	carol, err := app.store.GetUserByEmail(ctx, "carol@example.com")
	if err != nil {
		t.Fatalf("load carol: %v", err)
	}
	_, env = app.do(t, http.MethodPost, todoPath+"/assign", map[string]string{"assignedUserId": carol.ID}, alice)
	if env.ResultCode != apperror.CodeNoPermission {
		t.Errorf("assigning a non-member = %s", env.ResultCode)
	}

	_, env = app.do(t, http.MethodPost, todoPath+"/assign", map[string]string{}, alice)
	if env.ResultCode != apperror.CodeBadRequest {
		t.Errorf("missing assignee = %s", env.ResultCode)
	}

	_, env = app.do(t, http.MethodDelete, todoPath+"/assign", nil, alice)
	if res := decodeResult(env); len(res.AssigneeIDs) != 0 {
		t.Errorf("unassign = %+v", res)
	}

	_, env = app.do(t, http.MethodPut, todoPath+"/assignees", map[string][]string{"assignedUserIds": {}}, alice)
	if env.ResultCode != apperror.CodeSuccess {
		t.Errorf("explicit empty list = %s", env.ResultCode)
	}

	rec, env = app.do(t, http.MethodGet, "/api/v1/teams/"+teamID+"/assignments", nil, alice)
	if env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("history: %s", rec.Body.String())
	}
	var history []team.AssignmentRecord
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history should keep both rows, got %d", len(history))
	}
}

func TestRouter_NotificationInboxIsPerUser(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	ctx := context.Background()

	aliceID := app.register(t, "alice@example.com", "alice")
	bobID := app.register(t, "bob@example.com", "bob")
	alice := app.login(t, "alice@example.com")

	for _, userID := range []string{aliceID, bobID} {
		n := &model.Notification{
			ID:        model.NewID(),
			UserID:    userID,
			Title:     "Reminder: PUSH",
			URL:       "/todoList/" + model.NewID(),
			CreatedAt: time.Now().UTC(),
		}
		if err := app.store.CreateNotification(ctx, n); err != nil {
			t.Fatalf("create notification: %v", err)
		}
	}

	rec, env := app.do(t, http.MethodGet, "/api/v1/notifications", nil, alice)
	if env.ResultCode != apperror.CodeSuccess {
		t.Fatalf("inbox: %s", rec.Body.String())
	}
	var items []map[string]any
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode inbox: %v", err)
	}
	if len(items) != 1 || items[0]["title"] != "Reminder: PUSH" {
		t.Errorf("inbox = %v", items)
	}
}

func TestRouter_RejectsMalformedIDs(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.register(t, "alice@example.com", "alice")
	alice := app.login(t, "alice@example.com")

	rec, env := app.do(t, http.MethodGet, "/api/v1/teams/not-a-ulid", nil, alice)
	if rec.Code != http.StatusBadRequest || env.ResultCode != apperror.CodeBadRequest {
		t.Errorf("got %d %s", rec.Code, env.ResultCode)
	}
}

func TestRouter_FallbackRoutes(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode string
	}{
		{"index", http.MethodGet, "/", apperror.CodeOK},
		{"unknown", http.MethodGet, "/nope", apperror.CodeRouteNotFound},
		{"wrong method", http.MethodDelete, "/", apperror.CodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, env := app.do(t, tt.method, tt.path, nil); env.ResultCode != tt.wantCode {
				t.Errorf("resultCode = %s, want %s", env.ResultCode, tt.wantCode)
			}
		})
	}
}
