package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/escape-finder/api-go/metrics"
	"go.uber.org/zap"
)

// Local handles events in process when no broker is configured. Each publish
// runs the consumer's handler synchronously, so cached listings are still
// purged after approvals and review changes.
type Local struct {
	consumer *Consumer
}

func NewLocal(purger Purger, log *zap.Logger, m *metrics.Metrics) *Local {
	return &Local{consumer: NewConsumer("", purger, log, m)}
}

func (l *Local) Publish(ctx context.Context, queue string, event interface{}) error {
	const op = "events.Local.Publish"

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	if err := l.consumer.handle(ctx, queue, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
