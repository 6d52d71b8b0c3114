// Package comments keeps an enriched, threaded view of one post's comments in
// sync with the row store.
package comments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"unisphere/internal/feed"
	"unisphere/internal/models"
)

const (
	MaxContentLength = 2000
	loadTimeout      = 15 * time.Second
)

// ErrClosed is returned by every operation on a closed Synchronizer.
var ErrClosed = errClosed

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusErrored:
		return "errored"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is the observable view of a Synchronizer.
type State struct {
	PostID    string  `json:"post_id"`
	Status    Status  `json:"status"`
	Tree      []*Node `json:"tree"`
	IsLoading bool    `json:"is_loading"`
	Err       error   `json:"-"`
}

type NewComment struct {
	PostID      string `json:"post_id"`
	UserID      string `json:"user_id"`
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type Option func(*Synchronizer)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Synchronizer) { s.log = l }
}

// WithChangeFeed makes the synchronizer reload whenever the feed reports a
// change to the bound post.
func WithChangeFeed(f ChangeFeed) Option {
	return func(s *Synchronizer) { s.feed = f }
}

func WithLookupConcurrency(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.enricher.limit = n
		}
	}
}

// Synchronizer owns the comment tree of one bound post. Every load is tagged
// with a sequence token; a result is applied only if its token is still the
// newest one issued for the current binding.
type Synchronizer struct {
	store    RowStore
	feed     ChangeFeed
	enricher *enricher
	log      logrus.FieldLogger

	mu          sync.Mutex
	postID      string
	seq         uint64
	bindSeq     uint64
	status      Status
	tree        []*Node
	err         error
	watching    bool
	unsubscribe func()
	closed      bool
}

func New(store RowStore, profiles ProfileLookup, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:    store,
		enricher: &enricher{profiles: profiles, limit: defaultLookupConcurrency},
		log:      logrus.StandardLogger(),
		tree:     []*Node{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.enricher.log = s.log
	return s
}

// Bind points the synchronizer at postID and loads it. An empty id unbinds:
// the state returns to idle with an empty tree. Results of loads issued for
// a previous binding are discarded.
func (s *Synchronizer) Bind(ctx context.Context, postID string) error {
	if err := s.setPost(postID); err != nil {
		return err
	}
	return s.Ensure(ctx)
}

func (s *Synchronizer) setPost(postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	if postID != "" && postID == s.postID {
		return nil
	}
	s.stopWatchLocked()
	s.postID = postID
	s.seq++
	s.bindSeq = s.seq
	s.status = StatusIdle
	s.tree = []*Node{}
	s.err = nil
	return nil
}

// Ensure starts the change-feed watch for the bound post and loads it when
// no load has been issued yet or the last one failed.
func (s *Synchronizer) Ensure(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	postID := s.postID
	needLoad := postID != "" && (s.seq == s.bindSeq || s.status == StatusErrored)
	s.mu.Unlock()

	if postID == "" {
		return nil
	}
	s.startWatch(postID)
	if needLoad {
		return s.load(ctx, postID)
	}
	return nil
}

// Load re-fetches the bound post's comments and replaces the tree. On a
// failed fetch the state becomes errored and the previous tree is kept.
func (s *Synchronizer) Load(ctx context.Context) error {
	return s.load(ctx, "")
}

func (s *Synchronizer) load(ctx context.Context, expect string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	if expect != "" && s.postID != expect {
		s.mu.Unlock()
		return nil
	}
	postID := s.postID
	if postID == "" {
		s.status = StatusIdle
		s.tree = []*Node{}
		s.err = nil
		s.mu.Unlock()
		return nil
	}
	s.seq++
	token := s.seq
	s.status = StatusLoading
	s.mu.Unlock()

	log := s.log.WithFields(logrus.Fields{"post_id": postID, "seq": token})

	rows, err := s.store.SelectComments(ctx, postID)
	if err != nil {
		err = storeErr("select", err)
		if s.apply(postID, token, nil, err) {
			log.WithError(err).Error("load comments failed, keeping previous tree")
			return err
		}
		log.WithError(err).Debug(errStaleResult.Error())
		return nil
	}

	tree, promoted := buildTree(rows)
	if len(promoted) > 0 {
		log.WithField("comment_ids", promoted).Warn("comments with missing or cyclic parents placed at top level")
	}
	s.enricher.enrich(ctx, tree)

	if !s.apply(postID, token, tree, nil) {
		log.Debug(errStaleResult.Error())
		return nil
	}
	log.WithField("comments", len(rows)).Debug("comment tree loaded")
	return nil
}

func (s *Synchronizer) apply(postID string, token uint64, tree []*Node, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.postID != postID || s.seq != token {
		return false
	}
	if err != nil {
		s.status = StatusErrored
		s.err = err
		return true
	}
	s.status = StatusReady
	s.tree = tree
	s.err = nil
	return true
}

func (s *Synchronizer) startWatch(postID string) {
	if s.feed == nil {
		return
	}
	s.mu.Lock()
	if s.closed || s.watching || s.postID != postID {
		s.mu.Unlock()
		return
	}
	s.watching = true
	s.mu.Unlock()

	wctx, cancel := context.WithCancel(context.Background())
	events, stop, err := s.feed.Subscribe(wctx, postID)
	if err != nil {
		cancel()
		s.mu.Lock()
		if s.postID == postID {
			s.watching = false
		}
		s.mu.Unlock()
		s.log.WithError(err).WithField("post_id", postID).Warn("change feed unavailable, tree refreshes on explicit load only")
		return
	}

	s.mu.Lock()
	if s.closed || s.postID != postID {
		s.mu.Unlock()
		stop()
		cancel()
		return
	}
	s.unsubscribe = func() {
		stop()
		cancel()
	}
	s.mu.Unlock()

	go s.watch(wctx, postID, events)
}

// watch reloads on every change event. Events queued while a load runs are
// coalesced into the next load.
func (s *Synchronizer) watch(ctx context.Context, postID string, events <-chan feed.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
		}
	drain:
		for {
			select {
			case _, ok := <-events:
				if !ok {
					break drain
				}
			default:
				break drain
			}
		}

		lctx, cancel := context.WithTimeout(ctx, loadTimeout)
		err := s.load(lctx, postID)
		cancel()
		if errors.Is(err, errClosed) {
			return
		}
	}
}

func (s *Synchronizer) stopWatchLocked() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.watching = false
}

// Close drops the feed subscription and invalidates in-flight loads.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.seq++
	s.stopWatchLocked()
}

// Snapshot returns the current state. The tree is shared and read-only.
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		PostID:    s.postID,
		Status:    s.status,
		Tree:      s.tree,
		IsLoading: s.status == StatusLoading,
		Err:       s.err,
	}
}

func (s *Synchronizer) PostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postID
}

func (s *Synchronizer) boundPost() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errClosed
	}
	if s.postID == "" {
		return "", invalid("post_id", "no post is bound")
	}
	return s.postID, nil
}

func validateNew(in NewComment) (string, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return "", invalid("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", invalid("content", "is too long")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return "", invalid("user_id", "is required")
	}
	return content, nil
}

// AddComment inserts a top-level comment under the bound post and returns it
// enriched. The tree itself is refreshed by the change feed, not here.
func (s *Synchronizer) AddComment(ctx context.Context, in NewComment) (*Node, error) {
	content, err := validateNew(in)
	if err != nil {
		return nil, err
	}
	postID, err := s.boundPost()
	if err != nil {
		return nil, err
	}
	if in.PostID != "" && in.PostID != postID {
		s.log.WithFields(logrus.Fields{"post_id": postID, "requested": in.PostID}).Debug("ignoring post_id that disagrees with bound post")
	}
	return s.insert(ctx, postID, nil, in, content)
}

// AddReply inserts a reply to parentID. The parent must belong to the bound post.
func (s *Synchronizer) AddReply(ctx context.Context, parentID string, in NewComment) (*Node, error) {
	content, err := validateNew(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(parentID) == "" {
		return nil, invalid("parent_comment_id", "is required")
	}
	postID, err := s.boundPost()
	if err != nil {
		return nil, err
	}

	parent, err := s.store.GetComment(ctx, parentID)
	if errors.Is(err, ErrNotFound) {
		return nil, invalid("parent_comment_id", "parent comment does not exist")
	}
	if err != nil {
		return nil, storeErr("get", err)
	}
	if parent.PostID != postID {
		return nil, invalid("parent_comment_id", "parent comment belongs to another post")
	}
	return s.insert(ctx, postID, &parent.ID, in, content)
}

func (s *Synchronizer) insert(ctx context.Context, postID string, parentID *string, in NewComment, content string) (*Node, error) {
	userID := strings.TrimSpace(in.UserID)
	row := &models.Comment{
		PostID:          postID,
		ParentCommentID: parentID,
		UserID:          &userID,
		IsAnonymous:     in.IsAnonymous,
		Content:         content,
		Likes:           0,
	}
	if err := s.store.InsertComment(ctx, row); err != nil {
		return nil, storeErr("insert", err)
	}

	node := newNode(*row)
	s.enricher.enrich(ctx, []*Node{node})
	return node, nil
}

// Comment fetches a single row, for callers that need to check ownership.
func (s *Synchronizer) Comment(ctx context.Context, id string) (*models.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}
	return c, nil
}

// UpdateComment forwards a patch to the row store. The tree is not touched.
func (s *Synchronizer) UpdateComment(ctx context.Context, id string, patch CommentPatch) (*models.Comment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("id", "is required")
	}
	if patch.Empty() {
		return nil, invalid("", "nothing to update")
	}
	if patch.Content != nil {
		content := strings.TrimSpace(*patch.Content)
		if content == "" {
			return nil, invalid("content", "must not be empty")
		}
		if utf8.RuneCountInString(content) > MaxContentLength {
			return nil, invalid("content", "is too long")
		}
		patch.Content = &content
	}
	if patch.Likes != nil && *patch.Likes < 0 {
		return nil, invalid("likes", "must not be negative")
	}
	if s.isClosed() {
		return nil, errClosed
	}

	c, err := s.store.UpdateComment(ctx, id, patch)
	if err != nil {
		return nil, storeErr("update", err)
	}
	return c, nil
}

func (s *Synchronizer) LikeComment(ctx context.Context, id string) (*models.Comment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("id", "is required")
	}
	if s.isClosed() {
		return nil, errClosed
	}
	c, err := s.store.IncrementLikes(ctx, id)
	if err != nil {
		return nil, storeErr("like", err)
	}
	return c, nil
}

func (s *Synchronizer) DeleteComment(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("id", "is required")
	}
	if s.isClosed() {
		return errClosed
	}
	return storeErr("delete", s.store.DeleteComment(ctx, id))
}

func (s *Synchronizer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
