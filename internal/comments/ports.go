package comments

import (
	"context"

	"unisphere/internal/feed"
	"unisphere/internal/models"
)

// CommentPatch carries the mutable fields of a comment. Nil fields are left
// untouched.
type CommentPatch struct {
	Content *string `json:"content"`
	Likes   *int    `json:"likes"`
}

func (p CommentPatch) Empty() bool {
	return p.Content == nil && p.Likes == nil
}

// RowStore is the comments table as the synchronizer sees it.
type RowStore interface {
	// SelectComments returns every comment of postID ordered by created_at ascending.
	SelectComments(ctx context.Context, postID string) ([]models.Comment, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	InsertComment(ctx context.Context, c *models.Comment) error
	UpdateComment(ctx context.Context, id string, patch CommentPatch) (*models.Comment, error)
	IncrementLikes(ctx context.Context, id string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// ProfileLookup resolves author display data. A missing profile is (nil, nil).
type ProfileLookup interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type ChangeFeed = feed.Subscriber
