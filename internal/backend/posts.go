package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

// MaxListLimit is the largest limit the popular and recent listings accept
const MaxListLimit = 50

// ListPosts returns a page of published posts
func (c *Client) ListPosts(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Post], error) {
	return data[*models.Page[models.Post]](ctx, c, request{
		method: http.MethodGet,
		path:   "/posts",
		token:  token,
		query:  pageQuery(page.Normalize("desc")),
	})
}

// GetPost returns a post by id
func (c *Client) GetPost(ctx context.Context, token string, postID models.ID) (*models.Post, error) {
	return data[*models.Post](ctx, c, request{
		method:     http.MethodGet,
		path:       "/posts/{id}",
		token:      token,
		pathParams: id(postID),
	})
}

// GetPostBySlug returns a post by slug
func (c *Client) GetPostBySlug(ctx context.Context, token string, slug string) (*models.Post, error) {
	return data[*models.Post](ctx, c, request{
		method:     http.MethodGet,
		path:       "/posts/slug/{slug}",
		token:      token,
		pathParams: map[string]string{"slug": slug},
	})
}

// CreatePost publishes or drafts a new post
func (c *Client) CreatePost(ctx context.Context, token string, req models.PostRequest) (*models.Post, error) {
	return data[*models.Post](ctx, c, request{
		method: http.MethodPost,
		path:   "/posts",
		token:  token,
		body:   req,
	})
}

// UpdatePost replaces a post
func (c *Client) UpdatePost(ctx context.Context, token string, postID models.ID, req models.PostRequest) (*models.Post, error) {
	return data[*models.Post](ctx, c, request{
		method:     http.MethodPut,
		path:       "/posts/{id}",
		token:      token,
		pathParams: id(postID),
		body:       req,
	})
}

// DeletePost removes a post
func (c *Client) DeletePost(ctx context.Context, token string, postID models.ID) error {
	return exec(ctx, c, request{
		method:     http.MethodDelete,
		path:       "/posts/{id}",
		token:      token,
		pathParams: id(postID),
	})
}

// ToggleLike likes or unlikes a post and returns it with the new like count
func (c *Client) ToggleLike(ctx context.Context, token string, postID models.ID) (*models.Post, error) {
	return data[*models.Post](ctx, c, request{
		method:     http.MethodPost,
		path:       "/posts/{id}/like",
		token:      token,
		pathParams: id(postID),
	})
}

// SearchPosts returns a page of posts matching query
func (c *Client) SearchPosts(ctx context.Context, token string, query string, page models.PageRequest) (*models.Page[models.Post], error) {
	q := pageQuery(page.Normalize("desc"))
	q.Set("q", query)
	return data[*models.Page[models.Post]](ctx, c, request{
		method: http.MethodGet,
		path:   "/posts/search",
		token:  token,
		query:  q,
	})
}

// PopularPosts returns the most viewed posts
func (c *Client) PopularPosts(ctx context.Context, token string, limit int) ([]models.Post, error) {
	return data[[]models.Post](ctx, c, request{
		method: http.MethodGet,
		path:   "/posts/popular",
		token:  token,
		query:  limitQuery(limit),
	})
}

// RecentPosts returns the newest posts
func (c *Client) RecentPosts(ctx context.Context, token string, limit int) ([]models.Post, error) {
	return data[[]models.Post](ctx, c, request{
		method: http.MethodGet,
		path:   "/posts/recent",
		token:  token,
		query:  limitQuery(limit),
	})
}

// MyPosts returns a page of the signed-in user's posts, drafts included
func (c *Client) MyPosts(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Post], error) {
	return data[*models.Page[models.Post]](ctx, c, request{
		method: http.MethodGet,
		path:   "/posts/my-posts",
		token:  token,
		query:  pageQuery(page.Normalize("desc")),
	})
}

// PostsByAuthor returns a page of an author's published posts
func (c *Client) PostsByAuthor(ctx context.Context, token string, username string, page models.PageRequest) (*models.Page[models.Post], error) {
	return data[*models.Page[models.Post]](ctx, c, request{
		method:     http.MethodGet,
		path:       "/posts/author/{username}",
		token:      token,
		pathParams: map[string]string{"username": username},
		query:      pageQuery(page.Normalize("desc")),
	})
}

// PostStats returns post counts for the signed-in user
func (c *Client) PostStats(ctx context.Context, token string) (*models.PostStats, error) {
	return data[*models.PostStats](ctx, c, request{
		method: http.MethodGet,
		path:   "/posts/stats",
		token:  token,
	})
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		limit = models.DefaultPageSize
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}
