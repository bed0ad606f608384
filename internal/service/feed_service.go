package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/markdown"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/validation"
)

// ExcerptLength is the length of excerpts derived from post content
const ExcerptLength = 160

// dashboardPageSize is how many posts and comments the dashboard lists
const dashboardPageSize = 5

// ProfileView is an author's public page
type ProfileView struct {
	Username string          `json:"username"`
	Posts    models.FeedPage `json:"posts"`
}

// Dashboard is the signed-in user's overview
type Dashboard struct {
	User     models.User      `json:"user"`
	Stats    models.PostStats `json:"stats"`
	Posts    models.FeedPage  `json:"posts"`
	Comments []models.Comment `json:"comments"`
}

// feedService is the concrete implementation of FeedService
type feedService struct {
	api       backend.API
	validator *validation.Validator
	log       zerolog.Logger
}

func newFeedService(api backend.API, v *validation.Validator, log zerolog.Logger) *feedService {
	return &feedService{
		api:       api,
		validator: v,
		log:       log.With().Str("service", "feed").Logger(),
	}
}

// Feed returns one page of published posts, newest first by default
func (s *feedService) Feed(ctx context.Context, sess *session.Session, page models.PageRequest) (*models.FeedPage, error) {
	page = page.Normalize("desc")
	p, err := s.api.ListPosts(ctx, tokenOf(sess), page)
	if err != nil {
		return nil, err
	}
	return feedPage(p, page), nil
}

// Search returns posts matching query
func (s *feedService) Search(ctx context.Context, sess *session.Session, query string, page models.PageRequest) (*models.FeedPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validation.Errors{{Field: "q", Message: "is required"}}
	}
	page = page.Normalize("desc")
	p, err := s.api.SearchPosts(ctx, tokenOf(sess), query, page)
	if err != nil {
		return nil, err
	}
	return feedPage(p, page), nil
}

func (s *feedService) Popular(ctx context.Context, sess *session.Session, limit int) ([]models.Post, error) {
	posts, err := s.api.PopularPosts(ctx, tokenOf(sess), limit)
	if err != nil {
		return nil, err
	}
	return summaries(posts), nil
}

func (s *feedService) Recent(ctx context.Context, sess *session.Session, limit int) ([]models.Post, error) {
	posts, err := s.api.RecentPosts(ctx, tokenOf(sess), limit)
	if err != nil {
		return nil, err
	}
	return summaries(posts), nil
}

// Post returns a post with its rendered body and live comment count
func (s *feedService) Post(ctx context.Context, sess *session.Session, id models.ID) (*models.Post, error) {
	token := tokenOf(sess)

	var (
		post  *models.Post
		count int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		post, err = s.api.GetPost(gctx, token, id)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.api.CommentCount(gctx, token, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if post == nil {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "post not found"}
	}

	post.CommentCount = int(count)
	return detail(post), nil
}

func (s *feedService) PostBySlug(ctx context.Context, sess *session.Session, slug string) (*models.Post, error) {
	if err := s.validator.Slug(slug); err != nil {
		return nil, err
	}
	post, err := s.api.GetPostBySlug(ctx, tokenOf(sess), slug)
	if err != nil {
		return nil, err
	}
	return detail(post), nil
}

func (s *feedService) CreatePost(ctx context.Context, sess *session.Session, req models.PostRequest) (*models.Post, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	post, err := s.api.CreatePost(ctx, sess.Token, req)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("post_id", post.ID.String()).Str("username", sess.Username()).Msg("Post created")
	return detail(post), nil
}

func (s *feedService) UpdatePost(ctx context.Context, sess *session.Session, id models.ID, req models.PostRequest) (*models.Post, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	post, err := s.api.UpdatePost(ctx, sess.Token, id, req)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("post_id", id.String()).Msg("Post updated")
	return detail(post), nil
}

func (s *feedService) DeletePost(ctx context.Context, sess *session.Session, id models.ID) error {
	if sess == nil {
		return ErrSignInRequired
	}
	if err := s.api.DeletePost(ctx, sess.Token, id); err != nil {
		return err
	}
	s.log.Info().Str("post_id", id.String()).Msg("Post deleted")
	return nil
}

func (s *feedService) ToggleLike(ctx context.Context, sess *session.Session, id models.ID) (*models.Post, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	post, err := s.api.ToggleLike(ctx, sess.Token, id)
	if err != nil {
		return nil, err
	}
	return detail(post), nil
}

// Profile returns the published posts of username
func (s *feedService) Profile(ctx context.Context, sess *session.Session, username string, page models.PageRequest) (*ProfileView, error) {
	page = page.Normalize("desc")
	p, err := s.api.PostsByAuthor(ctx, tokenOf(sess), username, page)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Username: username, Posts: *feedPage(p, page)}, nil
}

// Dashboard loads the user's posts, comments and stats in parallel
func (s *feedService) Dashboard(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}

	page := models.PageRequest{Size: dashboardPageSize}.Normalize("desc")
	var (
		posts    *models.Page[models.Post]
		comments *models.Page[models.Comment]
		stats    *models.PostStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.api.MyPosts(gctx, sess.Token, page)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = s.api.MyComments(gctx, sess.Token, page)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.api.PostStats(gctx, sess.Token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		User:     sess.User,
		Posts:    *feedPage(posts, page),
		Comments: []models.Comment{},
	}
	if stats != nil {
		d.Stats = *stats
	}
	if comments != nil && comments.Content != nil {
		d.Comments = comments.Content
	}
	return d, nil
}

// feedPage converts a backend page. A nil page is an empty one.
func feedPage(p *models.Page[models.Post], req models.PageRequest) *models.FeedPage {
	fp := &models.FeedPage{Posts: []models.Post{}, Page: req.Page, Size: req.Size}
	if p == nil {
		return fp
	}
	fp.Posts = summaries(p.Content)
	fp.Page = p.Number
	fp.Size = p.Size
	fp.Total = p.TotalElements
	fp.HasMore = !p.Last
	return fp
}

// summaries fills in missing excerpts for list views
func summaries(posts []models.Post) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if strings.TrimSpace(p.Excerpt) == "" {
			p.Excerpt = markdown.PlainText(p.Content, ExcerptLength)
		}
		out = append(out, p)
	}
	return out
}

// detail renders the post body for the post page
func detail(post *models.Post) *models.Post {
	if post == nil {
		return nil
	}
	post.ContentHTML = markdown.RenderPreview(post.Content)
	return post
}
