// Package verify checks the series for violations of the contiguity
// invariant: stored heights must form an unbroken ascending run.
package verify

import "github.com/zenops/shieldscan/pkg/types"

// Verify scans the full ordered series once and reports every adjacent
// pair whose heights are not consecutive. It never stops at the first
// violation; the returned list is complete, and empty when the series is
// gap-free. Read-only.
func Verify(series types.Series) []types.Anomaly {
	var anomalies []types.Anomaly
	for i := 1; i < len(series); i++ {
		if series[i].Height != series[i-1].Height+1 {
			anomalies = append(anomalies, types.Anomaly{
				Index:      i,
				Height:     series[i].Height,
				PrevHeight: series[i-1].Height,
			})
		}
	}
	return anomalies
}
