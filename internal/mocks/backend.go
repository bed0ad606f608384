package mocks

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

// MockBackend is an in-memory blog backend. Tokens map to usernames; Errors makes
// the named method fail.
type MockBackend struct {
	mu sync.Mutex

	Comments map[models.ID][]models.Comment
	Posts    []models.Post
	Users    map[string]models.User // by token
	Stats    models.PostStats

	// LoginToken is handed out by Login for any known email
	LoginToken string

	Errors map[string]error
	Calls  []string

	nextID int
}

// Verify interface compliance
var _ backend.API = (*MockBackend)(nil)

func NewMockBackend() *MockBackend {
	return &MockBackend{
		Comments: make(map[models.ID][]models.Comment),
		Users:    make(map[string]models.User),
		Errors:   make(map[string]error),
		nextID:   1000,
	}
}

// Fail makes method return err until cleared with a nil err
func (m *MockBackend) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.Errors, method)
		return
	}
	m.Errors[method] = err
}

// Called returns how many times method was called
func (m *MockBackend) Called(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == method {
			n++
		}
	}
	return n
}

// CommentsOf returns a copy of the stored comments of a post
func (m *MockBackend) CommentsOf(postID models.ID) []models.Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Comment(nil), m.Comments[postID]...)
}

// record notes the call and returns the injected error. Callers hold mu.
func (m *MockBackend) record(method string) error {
	m.Calls = append(m.Calls, method)
	return m.Errors[method]
}

func (m *MockBackend) newID() models.ID {
	m.nextID++
	return models.ID(strconv.Itoa(m.nextID))
}

func (m *MockBackend) user(token string) (models.User, error) {
	u, ok := m.Users[token]
	if !ok {
		return models.User{}, &backend.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	}
	return u, nil
}

func notFound(what string) error {
	return &backend.APIError{Status: http.StatusNotFound, Message: what + " not found"}
}

func (m *MockBackend) ListAllComments(ctx context.Context, token string, postID models.ID) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListAllComments"); err != nil {
		return nil, err
	}
	return append([]models.Comment{}, m.Comments[postID]...), nil
}

func (m *MockBackend) CreateComment(ctx context.Context, token string, postID models.ID, req models.CreateCommentRequest) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateComment"); err != nil {
		return nil, err
	}
	u, err := m.user(token)
	if err != nil {
		return nil, err
	}
	c := models.Comment{
		ID:        m.newID(),
		Content:   req.Content,
		Author:    models.Author{ID: u.ID, Username: u.Username},
		PostID:    postID,
		ParentID:  req.ParentCommentID,
		CreatedAt: models.NewTime(time.Now().UTC()),
	}
	m.Comments[postID] = append(m.Comments[postID], c)
	return &c, nil
}

func (m *MockBackend) UpdateComment(ctx context.Context, token string, id models.ID, content string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateComment"); err != nil {
		return nil, err
	}
	for postID, list := range m.Comments {
		for i := range list {
			if list[i].ID == id {
				updated := models.NewTime(list[i].CreatedAt.Add(time.Minute))
				list[i].Content = content
				list[i].UpdatedAt = &updated
				m.Comments[postID] = list
				c := list[i]
				return &c, nil
			}
		}
	}
	return nil, notFound("Comment")
}

func (m *MockBackend) DeleteComment(ctx context.Context, token string, id models.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteComment"); err != nil {
		return err
	}
	for postID, list := range m.Comments {
		for i := range list {
			if list[i].ID == id {
				m.Comments[postID] = append(list[:i:i], list[i+1:]...)
				return nil
			}
		}
	}
	return notFound("Comment")
}

func (m *MockBackend) MyComments(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Comment], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("MyComments"); err != nil {
		return nil, err
	}
	u, err := m.user(token)
	if err != nil {
		return nil, err
	}
	var mine []models.Comment
	for _, list := range m.Comments {
		for _, c := range list {
			if c.Author.Username == u.Username {
				mine = append(mine, c)
			}
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID < mine[j].ID })
	return pageOf(mine, page), nil
}

func (m *MockBackend) CommentCount(ctx context.Context, token string, postID models.ID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CommentCount"); err != nil {
		return 0, err
	}
	return int64(len(m.Comments[postID])), nil
}

func (m *MockBackend) ListPosts(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Post], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListPosts"); err != nil {
		return nil, err
	}
	return pageOf(m.Posts, page), nil
}

func (m *MockBackend) GetPost(ctx context.Context, token string, id models.ID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetPost"); err != nil {
		return nil, err
	}
	if i := m.postIndex(id); i >= 0 {
		p := m.Posts[i]
		return &p, nil
	}
	return nil, notFound("Post")
}

func (m *MockBackend) GetPostBySlug(ctx context.Context, token string, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetPostBySlug"); err != nil {
		return nil, err
	}
	for _, p := range m.Posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, notFound("Post")
}

func (m *MockBackend) CreatePost(ctx context.Context, token string, req models.PostRequest) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreatePost"); err != nil {
		return nil, err
	}
	u, err := m.user(token)
	if err != nil {
		return nil, err
	}
	p := models.Post{
		ID:        m.newID(),
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Slug:      strings.ToLower(strings.Join(strings.Fields(req.Title), "-")),
		Published: req.Published,
		Author:    models.PostAuthor{ID: u.ID, Username: u.Username},
		CreatedAt: models.NewTime(time.Now().UTC()),
	}
	m.Posts = append(m.Posts, p)
	return &p, nil
}

func (m *MockBackend) UpdatePost(ctx context.Context, token string, id models.ID, req models.PostRequest) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdatePost"); err != nil {
		return nil, err
	}
	i := m.postIndex(id)
	if i < 0 {
		return nil, notFound("Post")
	}
	m.Posts[i].Title = req.Title
	m.Posts[i].Content = req.Content
	m.Posts[i].Excerpt = req.Excerpt
	m.Posts[i].Published = req.Published
	p := m.Posts[i]
	return &p, nil
}

func (m *MockBackend) DeletePost(ctx context.Context, token string, id models.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeletePost"); err != nil {
		return err
	}
	i := m.postIndex(id)
	if i < 0 {
		return notFound("Post")
	}
	m.Posts = append(m.Posts[:i:i], m.Posts[i+1:]...)
	return nil
}

func (m *MockBackend) ToggleLike(ctx context.Context, token string, id models.ID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ToggleLike"); err != nil {
		return nil, err
	}
	i := m.postIndex(id)
	if i < 0 {
		return nil, notFound("Post")
	}
	m.Posts[i].LikeCount++
	p := m.Posts[i]
	return &p, nil
}

func (m *MockBackend) SearchPosts(ctx context.Context, token string, query string, page models.PageRequest) (*models.Page[models.Post], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SearchPosts"); err != nil {
		return nil, err
	}
	var hits []models.Post
	for _, p := range m.Posts {
		if strings.Contains(strings.ToLower(p.Title+" "+p.Content), strings.ToLower(query)) {
			hits = append(hits, p)
		}
	}
	return pageOf(hits, page), nil
}

func (m *MockBackend) PopularPosts(ctx context.Context, token string, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("PopularPosts"); err != nil {
		return nil, err
	}
	return firstPosts(m.Posts, limit), nil
}

func (m *MockBackend) RecentPosts(ctx context.Context, token string, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("RecentPosts"); err != nil {
		return nil, err
	}
	return firstPosts(m.Posts, limit), nil
}

func (m *MockBackend) MyPosts(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Post], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("MyPosts"); err != nil {
		return nil, err
	}
	u, err := m.user(token)
	if err != nil {
		return nil, err
	}
	return pageOf(m.postsBy(u.Username), page), nil
}

func (m *MockBackend) PostsByAuthor(ctx context.Context, token string, username string, page models.PageRequest) (*models.Page[models.Post], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("PostsByAuthor"); err != nil {
		return nil, err
	}
	return pageOf(m.postsBy(username), page), nil
}

func (m *MockBackend) PostStats(ctx context.Context, token string) (*models.PostStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("PostStats"); err != nil {
		return nil, err
	}
	stats := m.Stats
	return &stats, nil
}

func (m *MockBackend) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Login"); err != nil {
		return nil, "", err
	}
	for token, u := range m.Users {
		if u.Email == req.Email && (m.LoginToken == "" || token == m.LoginToken) {
			return &u, token, nil
		}
	}
	return nil, "", &backend.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}
}

func (m *MockBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Register"); err != nil {
		return nil, err
	}
	return &models.User{ID: m.newID(), Username: req.Username, Email: req.Email}, nil
}

func (m *MockBackend) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("Logout")
}

func (m *MockBackend) Profile(ctx context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Profile"); err != nil {
		return nil, err
	}
	u, err := m.user(token)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MockBackend) ChangePassword(ctx context.Context, token string, req models.ChangePasswordRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ChangePassword"); err != nil {
		return err
	}
	_, err := m.user(token)
	return err
}

func (m *MockBackend) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("ForgotPassword")
}

func (m *MockBackend) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("ResetPassword")
}

func (m *MockBackend) VerifyEmail(ctx context.Context, verificationToken string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("VerifyEmail"); err != nil {
		return nil, err
	}
	for _, u := range m.Users {
		u.EmailVerified = true
		return &u, nil
	}
	return nil, notFound("Verification token")
}

func (m *MockBackend) postIndex(id models.ID) int {
	for i, p := range m.Posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (m *MockBackend) postsBy(username string) []models.Post {
	var out []models.Post
	for _, p := range m.Posts {
		if p.Author.Username == username {
			out = append(out, p)
		}
	}
	return out
}

func firstPosts(posts []models.Post, limit int) []models.Post {
	if limit <= 0 || limit > len(posts) {
		limit = len(posts)
	}
	return append([]models.Post{}, posts[:limit]...)
}

// pageOf slices items the way a Spring Data page does
func pageOf[T any](items []T, req models.PageRequest) *models.Page[T] {
	req = req.Normalize("desc")
	total := len(items)
	start := req.Page * req.Size
	if start > total {
		start = total
	}
	end := start + req.Size
	if end > total {
		end = total
	}
	pages := (total + req.Size - 1) / req.Size
	return &models.Page[T]{
		Content:       append([]T{}, items[start:end]...),
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: int64(total),
		TotalPages:    pages,
		First:         req.Page == 0,
		Last:          end >= total,
	}
}
