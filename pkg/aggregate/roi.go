package aggregate

import (
	"sort"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// DefaultROITop is the number of structures in the budget optimization view.
const DefaultROITop = 3

// ROIEntry is one record's cost and ROI index.
type ROIEntry struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	StructureType infra.StructureType `json:"structure_type"`
	RiskScore     float64             `json:"risk_score"`
	Cost          float64             `json:"cost"`
	ROI           float64             `json:"roi"`
}

// RankByROI sorts entries by ROI, highest first, and keeps the first n.
// Ties keep input order. n <= 0 keeps all entries. The input is not modified.
func RankByROI(entries []ROIEntry, n int) []ROIEntry {
	out := make([]ROIEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ROI > out[j].ROI })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ROIEntries computes cost and ROI for every record, in input order.
func (a *Aggregator) ROIEntries(records []infra.Infrastructure) []ROIEntry {
	out := make([]ROIEntry, 0, len(records))
	for _, rec := range a.engine.EnrichAll(records) {
		cost := a.engine.EstimateCost(rec.StructureType, rec.RiskLevel, rec.Age)
		out = append(out, ROIEntry{
			ID:            rec.ID,
			Name:          rec.Name,
			StructureType: rec.StructureType,
			RiskScore:     rec.RiskScore,
			Cost:          cost,
			ROI:           a.engine.ROIIndex(rec.RiskScore, cost),
		})
	}
	return out
}

// TopROI returns the n records that reduce the most risk per dollar.
func (a *Aggregator) TopROI(records []infra.Infrastructure, n int) []ROIEntry {
	return RankByROI(a.ROIEntries(records), n)
}
