// Package events carries listing and review notifications over RabbitMQ.
// Publishing happens after the database commit; a failed publish is logged
// and never fails the request.
package events

import (
	"context"
	"time"

	"github.com/escape-finder/api-go/metrics"
	"go.uber.org/zap"
)

const (
	QueueListingSubmitted = "listing.submitted"
	QueueListingModerated = "listing.moderated"
	QueueReviewCreated    = "review.created"
	QueueReviewRemoved    = "review.removed"
)

// Queues lists every queue the service declares.
var Queues = []string{QueueListingSubmitted, QueueListingModerated, QueueReviewCreated, QueueReviewRemoved}

type ListingSubmitted struct {
	ListingID   uint      `json:"listing_id"`
	SubmitterID uint      `json:"submitter_id"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ListingModerated struct {
	ListingID   uint      `json:"listing_id"`
	SubmitterID uint      `json:"submitter_id"`
	ModeratorID uint      `json:"moderator_id"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason,omitempty"`
	RoomID      *uint     `json:"room_id,omitempty"`
	RoomSlug    string    `json:"room_slug,omitempty"`
	ModeratedAt time.Time `json:"moderated_at"`
}

type ReviewCreated struct {
	ReviewID  uint      `json:"review_id"`
	RoomID    uint      `json:"room_id"`
	RoomSlug  string    `json:"room_slug"`
	ProfileID uint      `json:"profile_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewRemoved follows an author or admin delete, or a report resolved with
// removal. Reason is "deleted" or "reported".
type ReviewRemoved struct {
	ReviewID  uint      `json:"review_id"`
	RoomID    uint      `json:"room_id"`
	RemovedBy uint      `json:"removed_by"`
	Reason    string    `json:"reason"`
	RemovedAt time.Time `json:"removed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, queue string, event interface{}) error
}

// Notify publishes event and only logs a failure. The publish is detached
// from the request context so a client disconnect does not drop it.
func Notify(ctx context.Context, p Publisher, log *zap.Logger, m *metrics.Metrics, queue string, event interface{}) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.Publish(pctx, queue, event); err != nil {
		m.Event(queue, "publish_failed")
		log.Warn("event publish failed", zap.String("queue", queue), zap.Error(err))
		return
	}
	m.Event(queue, "published")
}
