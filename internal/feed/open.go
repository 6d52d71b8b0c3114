package feed

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Driver       string
	RedisURL     string
	AMQPURL      string
	PollInterval time.Duration
	Version      VersionFunc
}

// Open builds the feed selected by opts.Driver.
func Open(opts Options, log logrus.FieldLogger) (Feed, error) {
	switch opts.Driver {
	case "", "local":
		return NewLocal(), nil
	case "redis":
		return NewRedis(opts.RedisURL, log)
	case "amqp":
		return NewAMQP(opts.AMQPURL, log)
	case "poll":
		if opts.Version == nil {
			return nil, fmt.Errorf("poll feed requires a version func")
		}
		return NewPoll(opts.Version, opts.PollInterval, log), nil
	}
	return nil, fmt.Errorf("unknown feed driver %q", opts.Driver)
}
