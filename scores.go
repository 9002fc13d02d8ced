package luminar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luminar-ai/luminar-go/internal/dispatch"
	"github.com/luminar-ai/luminar-go/types"
)

// ScoreManager records evaluation scores against traces and observations.
// Create is asynchronous: the score is validated, enqueued, and delivered
// in a later batch.
type ScoreManager struct {
	queue  *dispatch.Queue
	logger *zap.Logger
}

// Create validates and enqueues a score. Missing ID, timestamp, and data
// type are filled in. The call never blocks on network I/O; it fails only
// on invalid input or after Shutdown.
func (m *ScoreManager) Create(score *types.Score) error {
	if score == nil {
		return types.NewError(types.ErrInvalidRequest, "score must not be nil")
	}
	if err := score.Validate(); err != nil {
		return err
	}
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	if score.Timestamp.IsZero() {
		score.Timestamp = time.Now().UTC()
	}
	if score.DataType == "" {
		score.DataType = types.ScoreDataTypeNumeric
	}

	ev, err := types.NewEvent(types.EventTypeScoreCreate, score)
	if err != nil {
		return err
	}
	return m.queue.Enqueue(ev)
}

// Flush delivers all buffered scores and waits for completion.
func (m *ScoreManager) Flush(ctx context.Context) error {
	return m.queue.Flush(ctx)
}
