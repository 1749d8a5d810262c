package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zenops/shieldscan/internal/metrics"
	"github.com/zenops/shieldscan/internal/zend"
	"github.com/zenops/shieldscan/pkg/logger"
	"github.com/zenops/shieldscan/pkg/types"
)

// DefaultProgressEvery is how many blocks pass between progress log lines.
const DefaultProgressEvery = 10000

// State represents the engine's position in a synchronization run.
type State int

const (
	// StateIdle indicates no run is in progress
	StateIdle State = iota
	// StateResolving indicates the engine is computing the fetch range
	StateResolving
	// StateFetching indicates heights are being fetched from the source
	StateFetching
	// StateCancelling indicates a cancellation was observed mid-fetch
	StateCancelling
	// StateFlushing indicates buffered entries are being persisted
	StateFlushing
	// StateDone indicates the run completed successfully
	StateDone
	// StateFailed indicates the run ended with a fatal error
	StateFailed
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateFetching:
		return "fetching"
	case StateCancelling:
		return "cancelling"
	case StateFlushing:
		return "flushing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes the outcome of a synchronization run.
type Result struct {
	// StartHeight is the first height fetched this run.
	StartHeight int64 `json:"start_height"`
	// TipHeight is the chain tip the run aimed for.
	TipHeight int64 `json:"tip_height"`
	// Fetched is how many entries were fetched and persisted.
	Fetched int `json:"fetched"`
	// Complete is false when the run was cancelled before reaching the tip.
	Complete bool `json:"complete"`
}

// Engine brings the series store up to date against a remote value source.
// One run fetches every missing height in ascending order, buffers the
// results, and persists the buffer in a single append on every exit path,
// so interrupted runs never lose completed work and always resume exactly
// where they stopped.
type Engine struct {
	source  ValueSource
	store   SeriesStore
	logger  *logger.Logger
	metrics *metrics.Collector

	progressEvery int64

	mu    sync.RWMutex
	state State
}

// NewEngine creates a sync engine. progressEvery controls progress logging
// during long fetches (0 for the default).
func NewEngine(source ValueSource, store SeriesStore, collector *metrics.Collector, progressEvery int64, logger *logger.Logger) *Engine {
	if progressEvery <= 0 {
		progressEvery = DefaultProgressEvery
	}
	return &Engine{
		source:        source,
		store:         store,
		logger:        logger,
		metrics:       collector,
		progressEvery: progressEvery,
		state:         StateIdle,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Synchronize extends the store from its last known height to the source's
// current tip. Cancellation is cooperative: ctx is checked between fetches,
// never mid-request, so the in-flight call always completes or fails
// normally first. A cancelled run returns Complete=false and a nil error;
// the caller decides whether to exit or retry.
//
// Fetch failures are fatal for the run, but the buffer accumulated so far
// is persisted before the error is returned.
func (e *Engine) Synchronize(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() {
		e.metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}()

	e.setState(StateResolving)

	last, haveLast, err := e.store.LastHeight()
	if err != nil {
		e.setState(StateFailed)
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("failed to resolve resume height: %w", err)
	}
	next := int64(0)
	if haveLast {
		next = last + 1
	}

	tip, err := e.source.GetChainTip(ctx)
	if err != nil {
		e.setState(StateFailed)
		e.metrics.FetchErrors.WithLabelValues(errorKind(err)).Inc()
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("failed to resolve chain tip: %w", err)
	}
	e.metrics.ChainTipHeight.Set(float64(tip))

	result := Result{StartHeight: next, TipHeight: tip}

	if haveLast && last >= tip {
		e.logger.Info("store already current",
			zap.Int64("last_height", last),
			zap.Int64("chain_tip", tip))
		e.setState(StateDone)
		e.metrics.SyncRuns.WithLabelValues("complete").Inc()
		result.Complete = true
		return result, nil
	}

	e.logger.Info("synchronizing series",
		zap.Int64("from_height", next),
		zap.Int64("chain_tip", tip))

	e.setState(StateFetching)

	buffer := make(types.Series, 0, tip-next+1)
	var fetchErr error
	cancelled := false

	for h := next; h <= tip; h++ {
		if ctx.Err() != nil {
			e.setState(StateCancelling)
			cancelled = true
			break
		}

		value, err := e.source.GetPoolValue(ctx, h)
		if err != nil {
			// An in-flight request aborted by the context counts as a
			// cancellation, not a fetch failure.
			if ctx.Err() != nil {
				e.setState(StateCancelling)
				cancelled = true
				break
			}
			e.metrics.FetchErrors.WithLabelValues(errorKind(err)).Inc()
			fetchErr = fmt.Errorf("failed to fetch pool value at height %d: %w", h, err)
			break
		}

		buffer = append(buffer, types.Entry{Height: h, Value: value})
		e.metrics.BlocksFetched.Inc()

		if h%e.progressEvery == 0 {
			e.logger.Info("fetch progress",
				zap.Int64("height", h),
				zap.Int64("chain_tip", tip),
				zap.Int64("percent", h*100/max64(tip, 1)))
		}
	}

	// Flush runs unconditionally: on completion, cancellation and fetch
	// failure alike, so nothing fetched is ever silently dropped.
	e.setState(StateFlushing)
	if err := e.store.Append(buffer); err != nil {
		e.setState(StateFailed)
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		if fetchErr != nil {
			// The fetch failure is the primary fault of the run.
			e.logger.Error("failed to flush buffer after fetch error", zap.Error(err))
			return result, fetchErr
		}
		return result, fmt.Errorf("failed to flush %d entries: %w", len(buffer), err)
	}
	result.Fetched = len(buffer)
	e.metrics.StoreEntries.Set(float64(next + int64(len(buffer))))

	switch {
	case fetchErr != nil:
		e.setState(StateFailed)
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		return result, fetchErr
	case cancelled:
		// The run ends where it was interrupted; only a successful run
		// reaches Done.
		e.setState(StateCancelling)
		e.logger.Warn("synchronization cancelled",
			zap.Int("fetched", result.Fetched),
			zap.Int64("chain_tip", tip))
		e.metrics.SyncRuns.WithLabelValues("cancelled").Inc()
		return result, nil
	default:
		e.setState(StateDone)
		e.logger.Info("synchronization complete",
			zap.Int("fetched", result.Fetched),
			zap.Int64("chain_tip", tip))
		e.metrics.SyncRuns.WithLabelValues("complete").Inc()
		result.Complete = true
		return result, nil
	}
}

// errorKind maps a fetch error to its metric label.
func errorKind(err error) string {
	var transport *zend.TransportError
	var remote *zend.RemoteError
	switch {
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &remote):
		return "remote"
	default:
		return "other"
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
