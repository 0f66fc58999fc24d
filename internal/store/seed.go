package store

import (
	"context"
	"fmt"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// SampleRecords returns the demo portfolio loaded into an empty store.
// The records are unclassified; callers enrich them before storing.
func SampleRecords() []infra.Infrastructure {
	type sample struct {
		id, name, area string
		t              infra.StructureType
		m              infra.MaterialType
		lat, lon       float64
		age            int
		traffic, env   float64
		condition      float64
		notes          string
	}
	samples := []sample{
		{"br-harbor", "Harbor Crossing", "Waterfront", infra.Bridge, infra.Steel, 41.8881, -87.6126, 68, 0.92, 0.85, 1.8, "Salt spray corrosion on lower chords"},
		{"br-mill", "Mill Creek Bridge", "Mill District", infra.Bridge, infra.Concrete, 41.9012, -87.6710, 45, 0.55, 0.60, 2.7, "Spalling at east abutment"},
		{"br-union", "Union Avenue Overpass", "Downtown", infra.Bridge, infra.Composite, 41.8790, -87.6359, 12, 0.80, 0.30, 4.3, ""},
		{"br-north", "North Branch Viaduct", "Riverside", infra.Bridge, infra.Steel, 41.9254, -87.6605, 87, 0.70, 0.75, 1.5, "Load posting in effect"},
		{"br-park", "Lincoln Park Footbridge", "Lakeshore", infra.Bridge, infra.Composite, 41.9214, -87.6334, 6, 0.15, 0.55, 4.8, ""},
		{"rd-main", "Main Street", "Downtown", infra.Road, infra.Asphalt, 41.8827, -87.6233, 22, 0.95, 0.40, 3.1, "Rutting in bus lanes"},
		{"rd-lake", "Lakeshore Drive North", "Lakeshore", infra.Road, infra.Asphalt, 41.9100, -87.6260, 35, 0.88, 0.90, 2.2, "Freeze-thaw cracking"},
		{"rd-indust", "Foundry Road", "Mill District", infra.Road, infra.Concrete, 41.8650, -87.6800, 54, 0.65, 0.70, 2.0, "Heavy truck traffic"},
		{"rd-river", "River Walk Lane", "Riverside", infra.Road, infra.Asphalt, 41.8870, -87.6300, 9, 0.30, 0.45, 4.5, ""},
		{"rd-pier", "Pier Access Road", "Waterfront", infra.Road, infra.Concrete, 41.8917, -87.6086, 31, 0.50, 0.95, 3.0, "Tidal flooding twice a year"},
	}

	out := make([]infra.Infrastructure, 0, len(samples))
	for _, s := range samples {
		out = append(out, infra.Infrastructure{
			ID:                          s.id,
			Name:                        s.name,
			StructureType:               s.t,
			MaterialType:                s.m,
			Location:                    infra.Location{Latitude: s.lat, Longitude: s.lon, Area: s.area},
			Age:                         s.age,
			TrafficLoadFactor:           s.traffic,
			EnvironmentalExposureFactor: s.env,
			StructuralConditionRating:   s.condition,
			Notes:                       s.notes,
		})
	}
	return out
}

// Seed adds records to the store if it is empty. It returns how many
// records were added.
func Seed(ctx context.Context, s Store, records []infra.Infrastructure) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, rec := range records {
		if err := s.Add(ctx, rec); err != nil {
			return i, fmt.Errorf("seed: %w", err)
		}
	}
	return len(records), nil
}
