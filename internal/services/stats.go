package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"unisphere/internal/feed"
	"unisphere/internal/models"
	"unisphere/internal/utils"
)

const (
	statsQueueSize = 1000
	statsBatchSize = 50
	statsInterval  = 500 * time.Millisecond
)

type PostStatsStore interface {
	Get(ctx context.Context, id string) (*models.Post, error)
	SetStats(ctx context.Context, id string, commentCount int64, score float64) error
}

type CommentCounter interface {
	CountByPost(ctx context.Context, postID string) (int64, error)
}

// StatsWorker recomputes a post's comment_count and hot score off the
// request path. Requests for the same post are deduplicated while queued.
// It also implements feed.Publisher so comment changes reach it directly.
type StatsWorker struct {
	posts    PostStatsStore
	comments CommentCounter
	log      logrus.FieldLogger

	queue   chan string // 待更新的帖子 ID 队列
	mu      sync.Mutex
	pending map[string]bool
}

func NewStatsWorker(posts PostStatsStore, comments CommentCounter, log logrus.FieldLogger) *StatsWorker {
	return &StatsWorker{
		posts:    posts,
		comments: comments,
		log:      log,
		queue:    make(chan string, statsQueueSize),
		pending:  make(map[string]bool),
	}
}

// Schedule queues postID for recomputation without blocking.
func (w *StatsWorker) Schedule(postID string) {
	if postID == "" {
		return
	}
	w.mu.Lock()
	if w.pending[postID] {
		w.mu.Unlock()
		return
	}
	w.pending[postID] = true
	w.mu.Unlock()

	select {
	case w.queue <- postID:
	default:
		// 队列满了，移除 pending 标记
		w.mu.Lock()
		delete(w.pending, postID)
		w.mu.Unlock()
		w.log.WithField("post_id", postID).Warn("stats queue full, skipping update")
	}
}

func (w *StatsWorker) Publish(_ context.Context, ev feed.Event) error {
	w.Schedule(ev.PostID)
	return nil
}

// Run processes the queue in batches until ctx is done.
func (w *StatsWorker) Run(ctx context.Context) {
	batch := make([]string, 0, statsBatchSize)
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case postID := <-w.queue:
			batch = append(batch, postID)
			if len(batch) >= statsBatchSize {
				w.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (w *StatsWorker) processBatch(ctx context.Context, postIDs []string) {
	for _, postID := range postIDs {
		// 先清除 pending，处理期间的新变更会再次入队
		w.mu.Lock()
		delete(w.pending, postID)
		w.mu.Unlock()

		if err := w.Refresh(ctx, postID); err != nil {
			w.log.WithError(err).WithField("post_id", postID).Warn("refresh post stats failed")
		}
	}
}

// Refresh recomputes one post synchronously.
func (w *StatsWorker) Refresh(ctx context.Context, postID string) error {
	post, err := w.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	count, err := w.comments.CountByPost(ctx, postID)
	if err != nil {
		return err
	}
	score := utils.HotScore(post.CreatedAt, post.Likes, int(count), post.Views)
	return w.posts.SetStats(ctx, postID, count, score)
}
