package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const CommentEventExchange = "forum_comment_events"

// AMQP publishes events on a topic exchange keyed by post. Each subscription
// owns an exclusive auto-delete queue bound to its post's routing key.
type AMQP struct {
	conn     *amqp091.Connection
	mu       sync.Mutex
	pub      *amqp091.Channel
	exchange string
	log      logrus.FieldLogger
}

func NewAMQP(url string, log logrus.FieldLogger) (*AMQP, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		CommentEventExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare comment event exchange: %w", err)
	}

	return &AMQP{conn: conn, pub: ch, exchange: CommentEventExchange, log: log}, nil
}

func RoutingKey(postID string) string {
	return "post." + postID
}

func publishing(ev Event) (amqp091.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.At,
		Body:        body,
	}, nil
}

func (a *AMQP) Publish(ctx context.Context, ev Event) error {
	msg, err := publishing(ev)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	a.mu.Lock()
	defer a.mu.Unlock()
	err = a.pub.PublishWithContext(ctx, a.exchange, RoutingKey(ev.PostID), false, false, msg)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (a *AMQP) Subscribe(ctx context.Context, postID string) (<-chan Event, func(), error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, RoutingKey(postID), a.exchange, false, nil); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	out := make(chan Event, subscriberBuffer)
	go func() {
		defer ch.Close()
		a.relay(sctx, postID, msgs, out)
	}()

	return out, cancel, nil
}

// relay decodes deliveries into out until ctx is done or msgs closes, then
// closes out. Malformed bodies and events for other posts are dropped.
func (a *AMQP) relay(ctx context.Context, postID string, msgs <-chan amqp091.Delivery, out chan<- Event) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				a.log.WithError(err).WithField("routing_key", d.RoutingKey).Warn("dropping malformed change event")
				continue
			}
			if ev.PostID != postID {
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.pub.Close(); err != nil {
		a.log.WithError(err).Warn("close publish channel")
	}
	return a.conn.Close()
}
