// Package notify delivers request notifications
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wikidomains/internal/platform/logger"
	"wikidomains/internal/services/requests/domain"

	"github.com/redis/go-redis/v9"
)

const (
	defaultChannel  = "notifications:user:%d"
	defaultInbox    = "notifications:inbox:%d"
	defaultInboxCap = 100
	defaultInboxTTL = 30 * 24 * time.Hour
)

// RedisOptions configures a RedisSink
type RedisOptions struct {
	// ChannelFormat and InboxFormat take the recipient id
	ChannelFormat string
	InboxFormat   string
	InboxCap      int64
	InboxTTL      time.Duration
}

// RedisSink publishes each notification on the recipient's channel and keeps
// a capped inbox list so offline users can catch up
type RedisSink struct {
	rdb *redis.Client
	opt RedisOptions
}

// NewRedis returns a RedisSink over rdb
func NewRedis(rdb *redis.Client, o RedisOptions) *RedisSink {
	if o.ChannelFormat == "" {
		o.ChannelFormat = defaultChannel
	}
	if o.InboxFormat == "" {
		o.InboxFormat = defaultInbox
	}
	if o.InboxCap <= 0 {
		o.InboxCap = defaultInboxCap
	}
	if o.InboxTTL <= 0 {
		o.InboxTTL = defaultInboxTTL
	}
	return &RedisSink{rdb: rdb, opt: o}
}

// Send implements domain.NotificationSink
func (s *RedisSink) Send(ctx context.Context, n domain.Notification) error {
	if s.rdb == nil {
		return errors.New("notify: redis client is nil")
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}

	inbox := fmt.Sprintf(s.opt.InboxFormat, n.Recipient.ID)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, inbox, payload)
		p.LTrim(ctx, inbox, 0, s.opt.InboxCap-1)
		p.Expire(ctx, inbox, s.opt.InboxTTL)
		p.Publish(ctx, fmt.Sprintf(s.opt.ChannelFormat, n.Recipient.ID), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("notify: redis: %w", err)
	}
	return nil
}

// LogSink writes notifications to the log, used when no redis is configured
type LogSink struct {
	log logger.Logger
}

// NewLog returns a LogSink
func NewLog() *LogSink { return &LogSink{log: *logger.Named("notify")} }

// Send implements domain.NotificationSink
func (s *LogSink) Send(_ context.Context, n domain.Notification) error {
	s.log.Info().
		Str("event", n.Event).
		Int64("request_id", n.RequestID).
		Str("kind", string(n.Kind)).
		Int64("recipient", n.Recipient.ID).
		Str("agent", n.Agent.Name).
		Msg("notification")
	return nil
}

// Fanout sends to every sink and joins the failures
type Fanout []domain.NotificationSink

// Send implements domain.NotificationSink
func (f Fanout) Send(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
