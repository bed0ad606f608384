package models

// Post represents a blog post
type Post struct {
	ID           ID         `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ContentHTML  string     `json:"contentHtml,omitempty"` // rendered by the gateway
	Excerpt      string     `json:"excerpt,omitempty"`
	Slug         string     `json:"slug"`
	CoverImage   string     `json:"coverImage,omitempty"`
	Published    bool       `json:"published"`
	ViewCount    int64      `json:"viewCount"`
	LikeCount    int64      `json:"likeCount"`
	CommentCount int        `json:"commentCount"`
	Author       PostAuthor `json:"author"`
	Category     *Category  `json:"category,omitempty"`
	Tags         []Tag      `json:"tags,omitempty"`
	CreatedAt    Time       `json:"createdAt"`
	UpdatedAt    *Time      `json:"updatedAt,omitempty"`
	PublishedAt  *Time      `json:"publishedAt,omitempty"`
}

// PostAuthor is the author reference embedded in posts
type PostAuthor struct {
	ID       ID     `json:"id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Category is a post category
type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag is a post tag
type Tag struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostRequest is the body for creating or updating a post
type PostRequest struct {
	Title      string   `json:"title" validate:"required,min=5,max=200"`
	Content    string   `json:"content" validate:"required,min=10"`
	Excerpt    string   `json:"excerpt,omitempty" validate:"max=300"`
	CoverImage string   `json:"coverImage,omitempty" validate:"max=500"`
	Published  bool     `json:"published"`
	CategoryID *ID      `json:"categoryId,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// PostStats summarises the signed-in user's posts
type PostStats struct {
	TotalPosts     int64 `json:"totalPosts"`
	PublishedPosts int64 `json:"publishedPosts"`
	DraftPosts     int64 `json:"draftPosts"`
}

// PageRequest selects one page of a listing
type PageRequest struct {
	Page    int    `json:"page" form:"page"`
	Size    int    `json:"size" form:"size"`
	SortBy  string `json:"sortBy" form:"sortBy"`
	SortDir string `json:"sortDir" form:"sortDir"`
}

// Page size limits enforced by the backend
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize fills defaults and clamps the page to what the backend accepts
func (p PageRequest) Normalize(defaultDir string) PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	if p.SortDir != "asc" && p.SortDir != "desc" {
		p.SortDir = defaultDir
	}
	return p
}

// FeedPage is one page of posts as shown in the feed
type FeedPage struct {
	Posts   []Post `json:"posts"`
	Page    int    `json:"page"`
	Size    int    `json:"size"`
	Total   int64  `json:"total"`
	HasMore bool   `json:"hasMore"`
}
