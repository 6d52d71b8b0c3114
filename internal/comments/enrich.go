package comments

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"unisphere/internal/models"
)

const defaultLookupConcurrency = 8

type enricher struct {
	profiles ProfileLookup
	limit    int
	log      logrus.FieldLogger
}

// enrich sets Author on every node reachable from roots. Lookups are made
// once per user id with bounded concurrency. Anonymous nodes, nodes without a
// user and nodes whose lookup failed keep a nil author.
func (e *enricher) enrich(ctx context.Context, roots []*Node) {
	byUser := make(map[string][]*Node)
	Walk(roots, func(n *Node) bool {
		n.Author = nil
		if n.IsAnonymous || n.UserID == nil || *n.UserID == "" {
			return true
		}
		byUser[*n.UserID] = append(byUser[*n.UserID], n)
		return true
	})
	if len(byUser) == 0 || e.profiles == nil {
		return
	}

	var (
		mu      sync.Mutex
		authors = make(map[string]*models.Author, len(byUser))
		g       errgroup.Group
	)
	g.SetLimit(e.limit)
	for userID, nodes := range byUser {
		g.Go(func() error {
			profile, err := e.profiles.GetProfile(ctx, userID)
			if err != nil {
				e.log.WithError(&EnrichmentError{CommentID: nodes[0].ID, UserID: userID, Err: err}).
					WithField("nodes", len(nodes)).
					Warn("profile lookup failed, author left empty")
				return nil
			}
			if profile == nil {
				return nil
			}
			mu.Lock()
			authors[userID] = profile.Author()
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for userID, nodes := range byUser {
		author, ok := authors[userID]
		if !ok {
			continue
		}
		for _, n := range nodes {
			a := *author
			n.Author = &a
		}
	}
}
