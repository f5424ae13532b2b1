package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/escape-finder/api-go/metrics"
	"github.com/escape-finder/api-go/middleware"
	"github.com/escape-finder/api-go/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Purger drops cached responses for the given cache groups.
type Purger interface {
	Purge(ctx context.Context, groups ...string) (int, error)
}

// Consumer follows the listing and review queues, logging notifications and
// purging cached listings when the public data changes.
type Consumer struct {
	url        string
	purger     Purger
	log        *zap.Logger
	metrics    *metrics.Metrics
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(url string, purger Purger, log *zap.Logger, m *metrics.Metrics) *Consumer {
	return &Consumer{
		url:        url,
		purger:     purger,
		log:        log.With(zap.String("component", "events.consumer")),
		metrics:    m,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff.
func (c *Consumer) Run(ctx context.Context) {
	backoff := c.minBackoff
	for {
		conn, err := amqp.Dial(c.url)
		if err == nil {
			backoff = c.minBackoff
			err = c.consume(ctx, conn)
			_ = conn.Close()
			if ctx.Err() != nil {
				return
			}
		}
		c.log.Warn("consumer disconnected, retrying", zap.Error(err), zap.Duration("backoff", backoff))

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		if backoff < c.maxBackoff {
			backoff *= 2
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set qos failed", zap.Error(err))
	}

	submitted, err := c.subscribe(ch, QueueListingSubmitted)
	if err != nil {
		return err
	}
	moderated, err := c.subscribe(ch, QueueListingModerated)
	if err != nil {
		return err
	}
	reviews, err := c.subscribe(ch, QueueReviewCreated)
	if err != nil {
		return err
	}
	removed, err := c.subscribe(ch, QueueReviewRemoved)
	if err != nil {
		return err
	}
	c.log.Info("consumer started", zap.Strings("queues", Queues))

	for {
		var (
			d     amqp.Delivery
			ok    bool
			queue string
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-submitted:
			queue = QueueListingSubmitted
		case d, ok = <-moderated:
			queue = QueueListingModerated
		case d, ok = <-reviews:
			queue = QueueReviewCreated
		case d, ok = <-removed:
			queue = QueueReviewRemoved
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		c.deliver(ctx, queue, d)
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := declare(ch, queue); err != nil {
		return nil, err
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return msgs, nil
}

// deliver handles one message and settles it. Failed messages are rejected
// without requeue.
func (c *Consumer) deliver(ctx context.Context, queue string, d amqp.Delivery) {
	if err := c.handle(ctx, queue, d.Body); err != nil {
		c.metrics.Event(queue, "failed")
		c.log.Error("handle message failed", zap.String("queue", queue), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	c.metrics.Event(queue, "consumed")
	_ = d.Ack(false)
}

func (c *Consumer) handle(ctx context.Context, queue string, body []byte) error {
	switch queue {
	case QueueListingSubmitted:
		var ev ListingSubmitted
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		c.log.Info("listing awaiting moderation",
			zap.Uint("listing_id", ev.ListingID),
			zap.Uint("submitter_id", ev.SubmitterID),
			zap.String("name", ev.Name),
			zap.String("city", ev.City),
			zap.String("state", ev.State),
		)
		return nil

	case QueueListingModerated:
		var ev ListingModerated
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		c.log.Info("listing moderated",
			zap.Uint("listing_id", ev.ListingID),
			zap.String("action", ev.Action),
			zap.String("room_slug", ev.RoomSlug),
		)
		if ev.Action != models.ActionApprove {
			return nil
		}
		return c.purge(ctx, middleware.RoomGroups...)

	case QueueReviewCreated:
		var ev ReviewCreated
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		c.log.Info("review created",
			zap.Uint("review_id", ev.ReviewID),
			zap.Uint("room_id", ev.RoomID),
			zap.Int("rating", ev.Rating),
		)
		return c.purge(ctx, middleware.CacheRooms)

	case QueueReviewRemoved:
		var ev ReviewRemoved
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		c.log.Info("review removed",
			zap.Uint("review_id", ev.ReviewID),
			zap.Uint("room_id", ev.RoomID),
			zap.String("reason", ev.Reason),
		)
		return c.purge(ctx, middleware.CacheRooms)
	}
	return fmt.Errorf("unknown queue %q", queue)
}

func (c *Consumer) purge(ctx context.Context, groups ...string) error {
	if c.purger == nil {
		return nil
	}
	n, err := c.purger.Purge(ctx, groups...)
	if err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	c.log.Debug("cache purged", zap.Strings("groups", groups), zap.Int("keys", n))
	return nil
}
