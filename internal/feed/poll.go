package feed

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// VersionFunc returns an opaque token that changes whenever a post's comment
// set changes.
type VersionFunc func(ctx context.Context, postID string) (string, error)

// Poll turns periodic version checks into update events. Publish is a no-op;
// the row store itself is the source of truth.
type Poll struct {
	version  VersionFunc
	interval time.Duration
	log      logrus.FieldLogger
}

func NewPoll(version VersionFunc, interval time.Duration, log logrus.FieldLogger) *Poll {
	return &Poll{version: version, interval: interval, log: log}
}

func (p *Poll) Publish(ctx context.Context, ev Event) error {
	return nil
}

func (p *Poll) Subscribe(ctx context.Context, postID string) (<-chan Event, func(), error) {
	baseline, err := p.version(ctx, postID)
	if err != nil {
		return nil, nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		last := baseline
		for {
			select {
			case <-sctx.Done():
				return
			case <-ticker.C:
				v, err := p.version(sctx, postID)
				if err != nil {
					p.log.WithError(err).WithField("post_id", postID).Warn("poll comment version")
					continue
				}
				if v == last {
					continue
				}
				last = v
				select {
				case out <- NewEvent(Update, postID, ""):
				default:
				}
			}
		}
	}()

	return out, cancel, nil
}

func (p *Poll) Close() error {
	return nil
}
