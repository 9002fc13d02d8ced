package luminar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luminar-ai/luminar-go/internal/dispatch"
	"github.com/luminar-ai/luminar-go/internal/usage"
	"github.com/luminar-ai/luminar-go/otelconv"
	"github.com/luminar-ai/luminar-go/types"
)

// TraceManager records traces and their nested observations. All writes
// are asynchronous through the dispatch queue.
//
// When the context carries an active OpenTelemetry span, new traces adopt
// its trace ID so platform records line up with the application's
// distributed traces.
type TraceManager struct {
	queue  *dispatch.Queue
	logger *zap.Logger

	mu         sync.Mutex
	estimators map[string]*usage.Estimator
}

// Create enqueues a trace-create event, filling in the ID (from the OTel
// context when available) and timestamp. The returned trace carries the
// assigned ID for attaching observations and scores.
func (m *TraceManager) Create(ctx context.Context, t *types.Trace) (*types.Trace, error) {
	if t == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "trace must not be nil")
	}
	if t.ID == "" {
		if otelID := otelconv.TraceIDFromContext(ctx); otelID != "" {
			t.ID = otelID
		} else {
			t.ID = uuid.NewString()
		}
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}

	ev, err := types.NewEvent(types.EventTypeTraceCreate, t)
	if err != nil {
		return nil, err
	}
	if err := m.queue.Enqueue(ev); err != nil {
		return nil, err
	}
	return t, nil
}

// Update enqueues a trace-update event for an existing trace.
func (m *TraceManager) Update(ctx context.Context, t *types.Trace) error {
	if t == nil || t.ID == "" {
		return types.NewError(types.ErrInvalidRequest, "trace update requires an id")
	}
	ev, err := types.NewEvent(types.EventTypeTraceUpdate, t)
	if err != nil {
		return err
	}
	return m.queue.Enqueue(ev)
}

// StartSpan enqueues an observation-create event of type SPAN. The trace
// ID is taken from o, or from the OTel context when o leaves it empty.
func (m *TraceManager) StartSpan(ctx context.Context, o *types.Observation) (*types.Observation, error) {
	return m.startObservation(ctx, o, types.ObservationTypeSpan)
}

// StartGeneration enqueues an observation-create event of type GENERATION.
func (m *TraceManager) StartGeneration(ctx context.Context, o *types.Observation) (*types.Observation, error) {
	return m.startObservation(ctx, o, types.ObservationTypeGeneration)
}

// LogEvent enqueues a point-in-time observation of type EVENT.
func (m *TraceManager) LogEvent(ctx context.Context, o *types.Observation) (*types.Observation, error) {
	return m.startObservation(ctx, o, types.ObservationTypeEvent)
}

func (m *TraceManager) startObservation(ctx context.Context, o *types.Observation, typ types.ObservationType) (*types.Observation, error) {
	if o == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "observation must not be nil")
	}
	if o.TraceID == "" {
		o.TraceID = otelconv.TraceIDFromContext(ctx)
	}
	if o.TraceID == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "observation requires a trace id")
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Type = typ
	if o.StartTime.IsZero() {
		o.StartTime = time.Now().UTC()
	}

	ev, err := types.NewEvent(types.EventTypeObservationCreate, o)
	if err != nil {
		return nil, err
	}
	if err := m.queue.Enqueue(ev); err != nil {
		return nil, err
	}
	return o, nil
}

// End closes an observation: sets the end time if unset and enqueues an
// observation-update event.
func (m *TraceManager) End(ctx context.Context, o *types.Observation) error {
	if o == nil || o.ID == "" || o.TraceID == "" {
		return types.NewError(types.ErrInvalidRequest, "observation end requires id and trace id")
	}
	if o.EndTime == nil {
		now := time.Now().UTC()
		o.EndTime = &now
	}
	ev, err := types.NewEvent(types.EventTypeObservationUpdate, o)
	if err != nil {
		return err
	}
	return m.queue.Enqueue(ev)
}

// EndGeneration closes a generation, estimating token usage from the raw
// input and output text when the provider did not report it. Estimation
// is best effort: a failure is logged and the generation is recorded
// without usage.
func (m *TraceManager) EndGeneration(ctx context.Context, o *types.Observation, inputText, outputText string) error {
	if o != nil && o.Usage == nil && o.Model != "" {
		if est, err := m.estimatorFor(o.Model).EstimateUsage(inputText, outputText); err != nil {
			m.logger.Warn("token usage estimation failed",
				zap.String("model", o.Model), zap.Error(err))
		} else {
			o.Usage = &est
		}
	}
	return m.End(ctx, o)
}

// estimatorFor returns the per-model estimator, creating it on first use.
// Estimators are cached because encoding initialization is expensive.
func (m *TraceManager) estimatorFor(model string) *usage.Estimator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.estimators == nil {
		m.estimators = make(map[string]*usage.Estimator)
	}
	est, ok := m.estimators[model]
	if !ok {
		est = usage.NewEstimator(model)
		m.estimators[model] = est
	}
	return est
}

// Flush delivers all buffered trace and observation events.
func (m *TraceManager) Flush(ctx context.Context) error {
	return m.queue.Flush(ctx)
}
