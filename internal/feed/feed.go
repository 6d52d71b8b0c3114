// Package feed delivers change notifications for the forum_comments table.
// Delivery is best effort: subscribers may see duplicates, gaps or reordered
// events, so consumers should treat an event as "something changed" and
// reload rather than patch.
package feed

import (
	"context"
	"time"
)

type EventType string

const (
	Insert EventType = "insert"
	Update EventType = "update"
	Delete EventType = "delete"
)

const CommentsTable = "forum_comments"

type Event struct {
	Type      EventType `json:"type"`
	Table     string    `json:"table"`
	PostID    string    `json:"post_id"`
	CommentID string    `json:"comment_id,omitempty"`
	At        time.Time `json:"at"`
}

func NewEvent(t EventType, postID, commentID string) Event {
	return Event{
		Type:      t,
		Table:     CommentsTable,
		PostID:    postID,
		CommentID: commentID,
		At:        time.Now(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber streams events for one post until ctx is done or the returned
// cancel func is called. The channel is closed when the subscription ends.
type Subscriber interface {
	Subscribe(ctx context.Context, postID string) (<-chan Event, func(), error)
}

type Feed interface {
	Publisher
	Subscriber
	Close() error
}

const subscriberBuffer = 16
