package comments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"unisphere/internal/models"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func row(id, postID string, parent *string, userID *string, minute int) models.Comment {
	return models.Comment{
		ID:              id,
		PostID:          postID,
		ParentCommentID: parent,
		UserID:          userID,
		Content:         "comment " + id,
		CreatedAt:       base.Add(time.Duration(minute) * time.Minute),
	}
}

type fakeStore struct {
	mu      sync.Mutex
	rows    map[string][]models.Comment
	selects int
	nextID  int

	selectErr error
	insertErr error
	// gates, when set for a post, blocks the next SelectComments for it until
	// the channel is closed. A gate is consumed by one call.
	gates map[string]chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string][]models.Comment{}, gates: map[string]chan struct{}{}}
}

func (f *fakeStore) set(postID string, rows ...models.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[postID] = rows
}

func (f *fakeStore) gate(postID string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[postID] = ch
	return ch
}

func (f *fakeStore) failSelects(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectErr = err
}

func (f *fakeStore) selectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selects
}

func (f *fakeStore) SelectComments(ctx context.Context, postID string) ([]models.Comment, error) {
	f.mu.Lock()
	f.selects++
	gate := f.gates[postID]
	delete(f.gates, postID)
	err := f.selectErr
	out := append([]models.Comment(nil), f.rows[postID]...)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeStore) find(id string) (*models.Comment, bool) {
	for _, rows := range f.rows {
		for i := range rows {
			if rows[i].ID == id {
				return &rows[i], true
			}
		}
	}
	return nil, false
}

func (f *fakeStore) GetComment(_ context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.find(id)
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeStore) InsertComment(_ context.Context, c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	c.ID = fmt.Sprintf("new-%d", f.nextID)
	c.CreatedAt = base.Add(time.Hour + time.Duration(f.nextID)*time.Minute)
	f.rows[c.PostID] = append(f.rows[c.PostID], *c)
	return nil
}

func (f *fakeStore) UpdateComment(_ context.Context, id string, patch CommentPatch) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.find(id)
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Content != nil {
		c.Content = *patch.Content
	}
	if patch.Likes != nil {
		c.Likes = *patch.Likes
	}
	out := *c
	return &out, nil
}

func (f *fakeStore) IncrementLikes(_ context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.find(id)
	if !ok {
		return nil, ErrNotFound
	}
	c.Likes++
	out := *c
	return &out, nil
}

func (f *fakeStore) DeleteComment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for postID, rows := range f.rows {
		for i := range rows {
			if rows[i].ID == id {
				f.rows[postID] = append(rows[:i:i], rows[i+1:]...)
				return nil
			}
		}
	}
	return ErrNotFound
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	failing  map[string]bool
	calls    map[string]int
}

func newFakeProfiles(users ...string) *fakeProfiles {
	p := &fakeProfiles{
		profiles: map[string]*models.Profile{},
		failing:  map[string]bool{},
		calls:    map[string]int{},
	}
	for _, u := range users {
		p.profiles[u] = &models.Profile{ID: u, Username: "user_" + u, AvatarURL: "😀"}
	}
	return p
}

func (p *fakeProfiles) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[userID]++
	if p.failing[userID] {
		return nil, errors.New("profile service down")
	}
	return p.profiles[userID], nil
}

func (p *fakeProfiles) callCount(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[userID]
}
