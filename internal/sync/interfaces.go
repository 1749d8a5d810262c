package sync

import (
	"context"

	"github.com/zenops/shieldscan/pkg/types"
)

// ValueSource resolves block heights to shielded pool values on a remote
// node. Implementations must be safe for repeated calls; the engine calls
// them strictly sequentially.
type ValueSource interface {
	// GetPoolValue returns the pool value at the given height.
	GetPoolValue(ctx context.Context, height int64) (float64, error)

	// GetChainTip returns the node's current maximum known height.
	GetChainTip(ctx context.Context) (int64, error)
}

// SeriesStore is the durable side of the series as the engine sees it: a
// resume cursor and an ordered append.
type SeriesStore interface {
	// LastHeight returns the height of the last persisted entry; ok is
	// false when the store is empty.
	LastHeight() (height int64, ok bool, err error)

	// Append durably adds entries in the order given. The engine only
	// hands over batches whose first height extends the persisted run by
	// exactly one.
	Append(entries types.Series) error
}
