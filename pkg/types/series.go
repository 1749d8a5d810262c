package types

import "fmt"

// Entry is a single observation of the shielded pool: the aggregate value
// locked in the pool at one block height.
type Entry struct {
	Height int64   `json:"height"`
	Value  float64 `json:"value"`
}

// Series is the ordered height-to-value history. Heights are expected to
// form a contiguous ascending run starting at 0; gaps are surfaced by the
// verifier, not by this type.
type Series []Entry

// LastHeight returns the height of the final entry. ok is false when the
// series is empty.
func (s Series) LastHeight() (height int64, ok bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Height, true
}

// From returns the suffix of the series whose heights are >= start.
// Heights are contiguous from 0, so this is an index operation, clamped to
// the series bounds.
func (s Series) From(start int64) Series {
	if start <= 0 || len(s) == 0 {
		return s
	}
	if start > int64(len(s)) {
		return Series{}
	}
	return s[start:]
}

// Anomaly records one violation of the contiguity invariant: an entry whose
// height does not follow its predecessor by exactly one.
type Anomaly struct {
	Index      int   `json:"index"`
	Height     int64 `json:"height"`
	PrevHeight int64 `json:"prev_height"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("unexpected height %d after %d (row %d)", a.Height, a.PrevHeight, a.Index)
}
