package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

// ListAllComments returns every comment of a post as a flat list, in backend order
func (c *Client) ListAllComments(ctx context.Context, token string, postID models.ID) ([]models.Comment, error) {
	comments, err := data[[]models.Comment](ctx, c, request{
		method:     http.MethodGet,
		path:       "/comments/post/{id}/all",
		token:      token,
		pathParams: id(postID),
	})
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// CreateComment adds a comment to a post, nested under req.ParentCommentID when set
func (c *Client) CreateComment(ctx context.Context, token string, postID models.ID, req models.CreateCommentRequest) (*models.Comment, error) {
	return data[*models.Comment](ctx, c, request{
		method:     http.MethodPost,
		path:       "/comments/post/{id}",
		token:      token,
		pathParams: id(postID),
		body:       req,
	})
}

// UpdateComment replaces the content of a comment. The backend takes the content
// as a query parameter.
func (c *Client) UpdateComment(ctx context.Context, token string, commentID models.ID, content string) (*models.Comment, error) {
	return data[*models.Comment](ctx, c, request{
		method:     http.MethodPut,
		path:       "/comments/{id}",
		token:      token,
		pathParams: id(commentID),
		query:      url.Values{"content": {content}},
	})
}

// DeleteComment removes a comment
func (c *Client) DeleteComment(ctx context.Context, token string, commentID models.ID) error {
	return exec(ctx, c, request{
		method:     http.MethodDelete,
		path:       "/comments/{id}",
		token:      token,
		pathParams: id(commentID),
	})
}

// MyComments returns a page of the signed-in user's comments
func (c *Client) MyComments(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Comment], error) {
	return data[*models.Page[models.Comment]](ctx, c, request{
		method: http.MethodGet,
		path:   "/comments/my-comments",
		token:  token,
		query:  pageQuery(page.Normalize("desc")),
	})
}

// CommentCount returns the number of comments on a post
func (c *Client) CommentCount(ctx context.Context, token string, postID models.ID) (int64, error) {
	return data[int64](ctx, c, request{
		method:     http.MethodGet,
		path:       "/comments/post/{id}/count",
		token:      token,
		pathParams: id(postID),
	})
}
