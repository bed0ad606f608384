package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/commenttree"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/repository"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/validation"
)

var (
	// ErrSignInRequired is returned for comment actions without a session
	ErrSignInRequired = errors.New("sign in required")

	// ErrCommentNotFound is returned when the comment is not in the thread
	ErrCommentNotFound = errors.New("comment not found")

	// ErrReplyTooDeep is returned when replying below the reply depth limit
	ErrReplyTooDeep = errors.New("replies are not allowed at this depth")

	// ErrNotAuthor is returned when someone other than the author edits a comment
	ErrNotAuthor = errors.New("only the author can edit this comment")

	// ErrNotEditing is returned when saving a comment that is not being edited
	ErrNotEditing = errors.New("comment is not being edited")
)

// Notices shown when a comment action fails at the backend
var (
	NoticeSubmitFailed = backend.Notice{Message: "Failed to post comment. Please try again.", Kind: "error"}
	NoticeDeleteFailed = backend.Notice{Message: "Failed to delete comment. Please try again.", Kind: "error"}
	NoticeUpdateFailed = backend.Notice{Message: "Failed to update comment. Please try again.", Kind: "error"}

	// NoticeReloadFailed accompanies a partial view after an action that succeeded
	NoticeReloadFailed = backend.Notice{Message: "Your change was saved, but the comments could not be refreshed.", Kind: "warning"}
)

// ActionError is a comment action the backend rejected. Thread is the view reloaded
// after the failure, nil when the reload failed as well.
type ActionError struct {
	Notice backend.Notice
	Thread *ThreadView
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Notice.Message, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ThreadView is the comment thread of a post as one viewer sees it
type ThreadView struct {
	PostID        models.ID   `json:"postId"`
	Comments      []*NodeView `json:"comments"`
	Total         int         `json:"total"`
	SignedIn      bool        `json:"signedIn"`
	ReplyTo       *models.ID  `json:"replyTo,omitempty"`
	ReplyToAuthor string      `json:"replyToAuthor,omitempty"`

	// Stale is set when the action succeeded but the reload did not; Comments is empty
	Stale  bool            `json:"stale,omitempty"`
	Notice *backend.Notice `json:"notice,omitempty"`
}

// NodeView is one comment of a ThreadView with the actions offered on it
type NodeView struct {
	models.Comment
	Depth      int         `json:"depth"`
	CanReply   bool        `json:"canReply"`
	CanEdit    bool        `json:"canEdit"`
	CanDelete  bool        `json:"canDelete"`
	Editing    bool        `json:"editing"`
	Draft      string      `json:"draft,omitempty"`
	Edited     bool        `json:"edited"`
	Replying   bool        `json:"replying"`
	ReplyCount int         `json:"replyCount"`
	Replies    []*NodeView `json:"replies"`
}

// commentService is the concrete implementation of CommentService
type commentService struct {
	api       backend.CommentAPI
	sessions  repository.SessionRepository
	validator *validation.Validator
	log       zerolog.Logger
	now       func() time.Time
}

func newCommentService(api backend.CommentAPI, sessions repository.SessionRepository, v *validation.Validator, log zerolog.Logger) *commentService {
	return &commentService{
		api:       api,
		sessions:  sessions,
		validator: v,
		log:       log.With().Str("service", "comment").Logger(),
		now:       time.Now,
	}
}

// LoadThread fetches every comment of the post and builds the view
func (s *commentService) LoadThread(ctx context.Context, sess *session.Session, postID models.ID) (*ThreadView, error) {
	roots, err := s.fetch(ctx, sess, postID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sess, postID, roots)
}

// StartReply targets a comment for the next submission
func (s *commentService) StartReply(ctx context.Context, sess *session.Session, postID, commentID models.ID) (*ThreadView, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	roots, err := s.fetch(ctx, sess, postID)
	if err != nil {
		return nil, err
	}
	_, depth, ok := commenttree.Find(roots, commentID)
	if !ok {
		return nil, ErrCommentNotFound
	}
	if !commenttree.CanReply(depth) {
		return nil, ErrReplyTooDeep
	}

	sess.Thread(postID).Reply.Reply(commentID)
	return s.view(ctx, sess, postID, roots)
}

// CancelReply clears the reply target
func (s *commentService) CancelReply(ctx context.Context, sess *session.Session, postID models.ID) (*ThreadView, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	sess.Thread(postID).Reply.Cancel()
	if err := saveSession(ctx, s.sessions, sess, s.now()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s.LoadThread(ctx, sess, postID)
}

// Submit posts a new comment under the current reply target, or as a root comment.
// The thread is reloaded whatever the outcome; only a success clears the target.
func (s *commentService) Submit(ctx context.Context, sess *session.Session, postID models.ID, content string) (*ThreadView, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	state := sess.Thread(postID)
	req := models.CreateCommentRequest{
		Content:         strings.TrimSpace(content),
		ParentCommentID: state.Reply.ParentID(),
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	_, err := s.api.CreateComment(ctx, sess.Token, postID, req)
	state.Reply.Submitted(err == nil)
	if err != nil {
		s.log.Warn().Err(err).Str("post_id", postID.String()).Msg("Failed to post comment")
		return nil, s.failed(ctx, sess, postID, NoticeSubmitFailed, err)
	}

	s.log.Info().Str("post_id", postID.String()).Bool("reply", req.ParentCommentID != nil).Msg("Comment posted")
	return s.settled(ctx, sess, postID)
}

// BeginEdit switches a comment of the viewer to edit mode
func (s *commentService) BeginEdit(ctx context.Context, sess *session.Session, postID, commentID models.ID) (*ThreadView, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	roots, err := s.fetch(ctx, sess, postID)
	if err != nil {
		return nil, err
	}
	node, _, ok := commenttree.Find(roots, commentID)
	if !ok {
		return nil, ErrCommentNotFound
	}
	if !sess.Thread(postID).Edit(commentID).Begin(sess.Username(), &node.Comment) {
		return nil, ErrNotAuthor
	}
	return s.view(ctx, sess, postID, roots)
}

// CancelEdit leaves edit mode and drops the draft
func (s *commentService) CancelEdit(ctx context.Context, sess *session.Session, postID, commentID models.ID) (*ThreadView, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	sess.Thread(postID).Edit(commentID).Cancel()
	if err := saveSession(ctx, s.sessions, sess, s.now()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s.LoadThread(ctx, sess, postID)
}

// SaveEdit stores content as the draft and submits it when it is non-blank and
// changed. Otherwise the comment stays in edit mode with the draft kept.
func (s *commentService) SaveEdit(ctx context.Context, sess *session.Session, postID, commentID models.ID, content string) (*ThreadView, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	edit, ok := sess.Thread(postID).Editing(commentID)
	if !ok {
		return nil, ErrNotEditing
	}
	edit.SetDraft(content)
	if strings.TrimSpace(content) != "" && content != edit.Original {
		if err := s.validator.Struct(models.CreateCommentRequest{Content: content}); err != nil {
			return nil, err
		}
	}

	draft, submit := edit.Save()
	if !submit {
		return s.LoadThread(ctx, sess, postID)
	}

	if _, err := s.api.UpdateComment(ctx, sess.Token, commentID, draft); err != nil {
		s.log.Warn().Err(err).Str("comment_id", commentID.String()).Msg("Failed to update comment")
		return nil, s.failed(ctx, sess, postID, NoticeUpdateFailed, err)
	}

	s.log.Info().Str("comment_id", commentID.String()).Msg("Comment updated")
	return s.settled(ctx, sess, postID)
}

// Delete removes a comment. Confirmation happens in the browser.
func (s *commentService) Delete(ctx context.Context, sess *session.Session, postID, commentID models.ID) (*ThreadView, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	if err := s.api.DeleteComment(ctx, sess.Token, commentID); err != nil {
		s.log.Warn().Err(err).Str("comment_id", commentID.String()).Msg("Failed to delete comment")
		return nil, s.failed(ctx, sess, postID, NoticeDeleteFailed, err)
	}

	s.log.Info().Str("comment_id", commentID.String()).Msg("Comment deleted")
	return s.settled(ctx, sess, postID)
}

// settled persists the state of sess after an action the backend accepted, then
// reloads the thread. The action cannot be undone, so a failed reload gives a stale
// view carrying NoticeReloadFailed instead of an error.
func (s *commentService) settled(ctx context.Context, sess *session.Session, postID models.ID) (*ThreadView, error) {
	if err := saveSession(ctx, s.sessions, sess, s.now()); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to save session")
	}

	thread, err := s.LoadThread(ctx, sess, postID)
	if err == nil {
		return thread, nil
	}
	s.log.Error().Err(err).Str("post_id", postID.String()).Msg("Failed to reload comments")

	notice := NoticeReloadFailed
	return &ThreadView{
		PostID:   postID,
		Comments: []*NodeView{},
		SignedIn: true,
		ReplyTo:  sess.Thread(postID).Reply.ParentID(),
		Stale:    true,
		Notice:   &notice,
	}, nil
}

// failed reloads the thread after a rejected action and wraps cause
func (s *commentService) failed(ctx context.Context, sess *session.Session, postID models.ID, notice backend.Notice, cause error) error {
	actionErr := &ActionError{Notice: notice, Err: cause}
	thread, err := s.LoadThread(ctx, sess, postID)
	if err != nil {
		s.log.Error().Err(err).Str("post_id", postID.String()).Msg("Failed to reload comments")
		return actionErr
	}
	actionErr.Thread = thread
	return actionErr
}

func (s *commentService) fetch(ctx context.Context, sess *session.Session, postID models.ID) ([]*commenttree.Node, error) {
	flat, err := s.api.ListAllComments(ctx, tokenOf(sess), postID)
	if err != nil {
		return nil, err
	}
	return commenttree.Build(flat), nil
}

// view builds the thread view and persists the pruned thread state of sess
func (s *commentService) view(ctx context.Context, sess *session.Session, postID models.ID, roots []*commenttree.Node) (*ThreadView, error) {
	tv := &ThreadView{
		PostID:   postID,
		Comments: []*NodeView{},
		Total:    commenttree.Count(roots),
		SignedIn: sess != nil,
	}

	var state *commenttree.ThreadState
	if sess != nil {
		state = sess.Thread(postID)
		state.Prune(roots)
		tv.ReplyTo = state.Reply.ParentID()
	}

	var build func(nodes []*commenttree.Node, depth int) []*NodeView
	build = func(nodes []*commenttree.Node, depth int) []*NodeView {
		out := make([]*NodeView, 0, len(nodes))
		for _, n := range nodes {
			nv := &NodeView{
				Comment:    n.Comment,
				Depth:      depth,
				Edited:     n.Edited(),
				ReplyCount: len(n.Replies),
			}
			if sess != nil {
				own := n.AuthoredBy(sess.Username())
				nv.CanReply = commenttree.CanReply(depth)
				nv.CanEdit = own
				nv.CanDelete = own
				if e, ok := state.Editing(n.ID); ok {
					nv.Editing = true
					nv.Draft = e.Draft
				}
				if tv.ReplyTo != nil && *tv.ReplyTo == n.ID {
					nv.Replying = true
					tv.ReplyToAuthor = n.Author.DisplayName()
				}
			}
			nv.Replies = build(n.Replies, depth+1)
			out = append(out, nv)
		}
		return out
	}
	tv.Comments = build(roots, 0)

	if sess != nil {
		if err := saveSession(ctx, s.sessions, sess, s.now()); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}
	return tv, nil
}
