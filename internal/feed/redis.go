package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisChannelPrefix = "forum_comments:"

// Redis fans events out over redis pub/sub, one channel per post.
type Redis struct {
	client *redis.Client
	prefix string
	log    logrus.FieldLogger
}

func NewRedis(redisURL string, log logrus.FieldLogger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisWithClient(client, log), nil
}

func NewRedisWithClient(client *redis.Client, log logrus.FieldLogger) *Redis {
	return &Redis{
		client: client,
		prefix: redisChannelPrefix,
		log:    log,
	}
}

func (r *Redis) channel(postID string) string {
	return r.prefix + postID
}

func (r *Redis) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel(ev.PostID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, postID string) (<-chan Event, func(), error) {
	sctx, cancel := context.WithCancel(ctx)
	ps := r.client.Subscribe(sctx, r.channel(postID))

	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(sctx); err != nil {
		cancel()
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", r.channel(postID), err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-sctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					r.log.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed change event")
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return out, cancel, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
