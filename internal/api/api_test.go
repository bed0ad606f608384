package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/api"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/config"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/mocks"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/repository"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
)

const cookieName = "st_session"

type testEnv struct {
	router   *gin.Engine
	backend  *mocks.MockBackend
	sessions *mocks.MockSessionRepository
}

func comment(id, parent, author, content string, created time.Time) models.Comment {
	c := models.Comment{
		ID:        models.ID(id),
		Content:   content,
		Author:    models.Author{Username: author},
		CreatedAt: models.NewTime(created),
	}
	if parent != "" {
		p := models.ID(parent)
		c.ParentID = &p
	}
	return c
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	be := mocks.NewMockBackend()
	be.Users["tok-ada"] = models.User{ID: "7", Username: "ada", Email: "ada@example.com"}
	be.Users["tok-bob"] = models.User{ID: "8", Username: "bob", Email: "bob@example.com"}

	created := time.Now().Add(-2 * time.Hour)
	edited := models.NewTime(created.Add(time.Minute))
	reply := comment("2", "1", "bob", "Reply to first", created)
	reply.UpdatedAt = &edited
	be.Comments["1"] = []models.Comment{
		comment("1", "", "ada", "First", created),
		reply,
		comment("3", "", "bob", "Second", created),
	}
	be.Posts = []models.Post{{ID: "1", Title: "Hello", Content: "**Hello** world", Slug: "hello", Author: models.PostAuthor{Username: "ada"}}}

	sessions := mocks.NewMockSessionRepository()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080", CORSOrigin: "http://localhost:5173"},
		Session: config.SessionConfig{
			CookieName:    cookieName,
			TTL:           time.Hour,
			SweepInterval: time.Minute,
		},
	}

	services := service.NewServices(&repository.Repositories{Session: sessions}, be, cfg, zerolog.Nop())
	return &testEnv{
		router:   api.NewRouter(services, cfg, zerolog.Nop()),
		backend:  be,
		sessions: sessions,
	}
}

func (e *testEnv) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := e.do("POST", "/v1/auth/login", map[string]string{"email": email, "password": "secret"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("Login did not set the session cookie")
	return nil
}

func decodeThread(t *testing.T, w *httptest.ResponseRecorder) service.ThreadView {
	t.Helper()
	var tv service.ThreadView
	if err := json.Unmarshal(w.Body.Bytes(), &tv); err != nil {
		t.Fatalf("Failed to decode thread: %v", err)
	}
	return tv
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	env.login(t, "ada@example.com")

	w := env.do("GET", "/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Sessions struct {
			Active int `json:"active"`
		} `json:"sessions"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Sessions.Active != 1 {
		t.Errorf("Expected 1 active session, got %d", response.Sessions.Active)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/v1/preview", map[string]string{"source": "# Title\n<b>x</b>"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	want := `<h1 class="text-2xl font-bold text-white mb-4">Title</h1><br />&lt;b&gt;x&lt;/b&gt;`
	if response["html"] != want {
		t.Errorf("Expected %q, got %q", want, response["html"])
	}
}

func TestFormatEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/v1/format", map[string]interface{}{"source": "word", "start": 0, "end": 4, "action": "italic"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response struct {
		Source string `json:"source"`
		Cursor int    `json:"cursor"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Source != "*word*" || response.Cursor != 6 {
		t.Errorf("Unexpected format result %+v", response)
	}

	w = env.do("POST", "/v1/format", map[string]interface{}{"source": "word", "action": "blink"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown action, got %d", w.Code)
	}
}

func TestLogin(t *testing.T) {
	env := setupTestRouter(t)

	cookie := env.login(t, "ada@example.com")
	if !cookie.HttpOnly {
		t.Error("Session cookie should be HttpOnly")
	}
	if env.sessions.Stored(cookie.Value) == nil {
		t.Error("Session should be stored")
	}

	w := env.do("POST", "/v1/auth/login", map[string]string{"email": "nobody@example.com", "password": "secret"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	w = env.do("POST", "/v1/auth/login", map[string]string{"email": "broken", "password": "secret"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"field":"email"`) {
		t.Errorf("Expected email field error, got %s", w.Body.String())
	}
}

func TestLogout(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "ada@example.com")

	w := env.do("POST", "/v1/auth/logout", nil, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if env.sessions.Stored(cookie.Value) != nil {
		t.Error("Session should be deleted")
	}

	w = env.do("GET", "/v1/auth/profile", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 after logout, got %d", w.Code)
	}
}

func TestListComments(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/v1/posts/1/comments", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	tv := decodeThread(t, w)
	if tv.Total != 3 || len(tv.Comments) != 2 {
		t.Errorf("Expected 3 comments in 2 roots, got %d in %d", tv.Total, len(tv.Comments))
	}
	if len(tv.Comments[0].Replies) != 1 || tv.Comments[0].Replies[0].ID != "2" {
		t.Errorf("Expected comment 2 under comment 1, got %+v", tv.Comments[0].Replies)
	}
	if tv.Comments[0].CanReply {
		t.Error("Anonymous viewers should not be offered Reply")
	}
}

func TestSubmitComment_RequiresSession(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/v1/posts/1/comments", map[string]string{"content": "hi"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
	if env.backend.Called("CreateComment") != 0 {
		t.Error("Backend should not be called without a session")
	}
}

func TestReplyFlow(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "bob@example.com")

	w := env.do("PUT", "/v1/posts/1/comments/reply", map[string]interface{}{"commentId": 1}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if tv := decodeThread(t, w); tv.ReplyTo == nil || *tv.ReplyTo != "1" {
		t.Fatalf("Expected reply target 1, got %v", tv.ReplyTo)
	}

	w = env.do("POST", "/v1/posts/1/comments", map[string]string{"content": "Nested answer"}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	tv := decodeThread(t, w)
	if tv.ReplyTo != nil {
		t.Error("Reply target should be cleared after posting")
	}
	if tv.Total != 4 || len(tv.Comments[0].Replies) != 2 {
		t.Errorf("Expected new reply under comment 1, got %+v", tv.Comments[0])
	}

	w = env.do("DELETE", "/v1/posts/1/comments/reply", nil, cookie)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for cancel, got %d", w.Code)
	}
}

func TestSubmitComment_BackendFailure(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "ada@example.com")
	env.backend.Fail("CreateComment", &backend.APIError{Status: http.StatusInternalServerError, Message: "boom"})

	w := env.do("POST", "/v1/posts/1/comments", map[string]string{"content": "Lost"}, cookie)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", w.Code)
	}

	var response struct {
		Error  string              `json:"error"`
		Thread *service.ThreadView `json:"thread"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Error != "Failed to post comment. Please try again." {
		t.Errorf("Unexpected error %q", response.Error)
	}
	if response.Thread == nil || response.Thread.Total != 3 {
		t.Error("Response should carry the reloaded thread")
	}
}

func TestSubmitComment_Validation(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "ada@example.com")

	w := env.do("POST", "/v1/posts/1/comments", map[string]string{"content": strings.Repeat("a", 1001)}, cookie)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"field":"content"`) {
		t.Errorf("Expected content field error, got %s", w.Body.String())
	}
}

func TestEditFlow(t *testing.T) {
	env := setupTestRouter(t)
	ada := env.login(t, "ada@example.com")
	bob := env.login(t, "bob@example.com")

	w := env.do("POST", "/v1/posts/1/comments/1/edit", nil, bob)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for non-author, got %d", w.Code)
	}

	w = env.do("POST", "/v1/posts/1/comments/1/edit", nil, ada)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if tv := decodeThread(t, w); !tv.Comments[0].Editing || tv.Comments[0].Draft != "First" {
		t.Fatalf("Expected comment 1 in edit mode, got %+v", tv.Comments[0])
	}

	w = env.do("PUT", "/v1/posts/1/comments/1", map[string]string{"content": "First (fixed)"}, ada)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	tv := decodeThread(t, w)
	if tv.Comments[0].Editing || tv.Comments[0].Content != "First (fixed)" || !tv.Comments[0].Edited {
		t.Errorf("Expected saved edit, got %+v", tv.Comments[0])
	}

	w = env.do("PUT", "/v1/posts/1/comments/1", map[string]string{"content": "again"}, ada)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 when not editing, got %d", w.Code)
	}
}

func TestDeleteComment(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "bob@example.com")

	w := env.do("DELETE", "/v1/posts/1/comments/3", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if tv := decodeThread(t, w); tv.Total != 2 {
		t.Errorf("Expected 2 comments left, got %d", tv.Total)
	}
}

func TestRejectedTokenDropsSession(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "ada@example.com")
	env.backend.Fail("ListAllComments", &backend.APIError{Status: http.StatusUnauthorized})

	w := env.do("GET", "/v1/posts/1/comments", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}
	if env.sessions.Stored(cookie.Value) != nil {
		t.Error("Session should be dropped")
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Session cookie should be cleared")
	}
}

func TestThreadFragment(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/posts/1/comments", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML, got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{"Comments (3)", "1 reply", ">edited<", "2h ago", "Login to Comment"} {
		if !strings.Contains(body, want) {
			t.Errorf("Fragment should contain %q", want)
		}
	}
	if strings.Contains(body, `data-action="reply"`) {
		t.Error("Anonymous fragment should not offer Reply")
	}

	cookie := env.login(t, "ada@example.com")
	body = env.do("GET", "/posts/1/comments", nil, cookie).Body.String()
	if got := strings.Count(body, `data-action="reply"`); got != 3 {
		t.Errorf("Expected 3 Reply buttons, got %d", got)
	}
	if got := strings.Count(body, `data-action="edit"`); got != 1 {
		t.Errorf("Expected 1 Edit button, got %d", got)
	}
}

func TestThreadFragment_DepthLimit(t *testing.T) {
	env := setupTestRouter(t)
	created := time.Now().Add(-time.Minute)
	chain := []models.Comment{comment("c0", "", "bob", "root", created)}
	for i := 1; i <= 6; i++ {
		chain = append(chain, comment("c"+string(rune('0'+i)), "c"+string(rune('0'+i-1)), "bob", "deeper", created))
	}
	env.backend.Comments["9"] = chain
	cookie := env.login(t, "ada@example.com")

	body := env.do("GET", "/posts/9/comments", nil, cookie).Body.String()
	// depths 0 to 4 offer Reply, 5 and 6 only render
	if got := strings.Count(body, `data-action="reply"`); got != 5 {
		t.Errorf("Expected 5 Reply buttons, got %d", got)
	}
	if !strings.Contains(body, `data-depth="6"`) {
		t.Error("Deepest reply should still be rendered")
	}
}

func TestThreadFragment_EscapesContent(t *testing.T) {
	env := setupTestRouter(t)
	env.backend.Comments["5"] = []models.Comment{comment("1", "", "eve", "<script>alert(1)</script>", time.Now())}

	body := env.do("GET", "/posts/5/comments", nil, nil).Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Comment content must be escaped")
	}
	if !strings.Contains(body, "just now") {
		t.Error("Fresh comment should read just now")
	}
}

func TestPostEndpoints(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/v1/posts/1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var post models.Post
	json.Unmarshal(w.Body.Bytes(), &post)
	if post.ContentHTML != `<strong class="font-bold">Hello</strong> world` {
		t.Errorf("Unexpected contentHtml %q", post.ContentHTML)
	}
	if post.CommentCount != 3 {
		t.Errorf("Expected 3 comments, got %d", post.CommentCount)
	}

	if w := env.do("GET", "/v1/posts/99", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := env.do("GET", "/v1/slugs/hello", nil, nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for slug, got %d", w.Code)
	}

	w = env.do("GET", "/v1/feed?size=5", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var fp models.FeedPage
	json.Unmarshal(w.Body.Bytes(), &fp)
	if len(fp.Posts) != 1 || fp.HasMore {
		t.Errorf("Unexpected feed page %+v", fp)
	}

	if w := env.do("GET", "/v1/feed/popular?limit=abc", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad limit, got %d", w.Code)
	}
	if w := env.do("POST", "/v1/posts", map[string]string{"title": "Title here", "content": "Long enough content"}, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without session, got %d", w.Code)
	}
}

func TestDashboard(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "ada@example.com")

	w := env.do("GET", "/v1/dashboard", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var d service.Dashboard
	json.Unmarshal(w.Body.Bytes(), &d)
	if d.User.Username != "ada" || d.Posts.Total != 1 || len(d.Comments) != 1 {
		t.Errorf("Unexpected dashboard %+v", d)
	}
}

func TestCORS(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/v1/posts/1/comments", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Unexpected allowed origin %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("Credentials should be allowed")
	}

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for unknown origin, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("Unknown origins should not be allowed")
	}
}

func TestSubmitWithFailedReload(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "bob@example.com")

	w := env.do("PUT", "/v1/posts/1/comments/reply", map[string]interface{}{"commentId": 1}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	env.backend.Fail("ListAllComments", &backend.APIError{Status: http.StatusBadGateway})
	w = env.do("POST", "/v1/posts/1/comments", map[string]string{"content": "Posted anyway"}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	tv := decodeThread(t, w)
	if !tv.Stale || tv.Notice == nil {
		t.Errorf("Expected a stale thread with a notice, got %+v", tv)
	}

	env.backend.Fail("ListAllComments", nil)
	w = env.do("GET", "/v1/posts/1/comments", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	tv = decodeThread(t, w)
	if tv.ReplyTo != nil {
		t.Errorf("Reply target should be cleared, got %v", *tv.ReplyTo)
	}
	if tv.Total != 4 {
		t.Errorf("Expected 4 comments, got %d", tv.Total)
	}
}

func TestSessionStoreFailureKeepsCookie(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.login(t, "ada@example.com")

	env.sessions.GetError = errors.New("connection refused")

	w := env.do("GET", "/v1/posts/1/comments", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Reads should go on anonymously, got %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			t.Errorf("Session cookie should be left alone, got %+v", c)
		}
	}
	if tv := decodeThread(t, w); tv.SignedIn {
		t.Error("Thread should be anonymous while the store is down")
	}

	w = env.do("POST", "/v1/posts/1/comments", map[string]string{"content": "hi"}, cookie)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	env.sessions.GetError = nil
	w = env.do("GET", "/v1/auth/profile", nil, cookie)
	if w.Code != http.StatusOK {
		t.Errorf("Session should still work once the store is back, got %d", w.Code)
	}
}

func TestMissingSessionClearsCookie(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/v1/posts/1/comments", nil, &http.Cookie{Name: cookieName, Value: "gone"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Cookie of a missing session should be cleared")
	}
}
