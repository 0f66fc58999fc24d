package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// PostgresStore persists records in the infrastructure table.
// The photo itself lives in blob storage; only its reference is stored.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a store on an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// row is the flat table shape of a record.
type row struct {
	ID                          string  `db:"id"`
	Name                        string  `db:"name"`
	StructureType               string  `db:"structure_type"`
	MaterialType                string  `db:"material_type"`
	Latitude                    float64 `db:"latitude"`
	Longitude                   float64 `db:"longitude"`
	Area                        string  `db:"area"`
	Age                         int     `db:"age"`
	TrafficLoadFactor           float64 `db:"traffic_load_factor"`
	EnvironmentalExposureFactor float64 `db:"environmental_exposure_factor"`
	StructuralConditionRating   float64 `db:"structural_condition_rating"`
	Notes                       string  `db:"notes"`
	RiskScore                   float64 `db:"risk_score"`
	RiskLevel                   string  `db:"risk_level"`
	PhotoRef                    string  `db:"photo_ref"`
}

func toRow(rec infra.Infrastructure) row {
	return row{
		ID:                          rec.ID,
		Name:                        rec.Name,
		StructureType:               string(rec.StructureType),
		MaterialType:                string(rec.MaterialType),
		Latitude:                    rec.Location.Latitude,
		Longitude:                   rec.Location.Longitude,
		Area:                        rec.Location.Area,
		Age:                         rec.Age,
		TrafficLoadFactor:           rec.TrafficLoadFactor,
		EnvironmentalExposureFactor: rec.EnvironmentalExposureFactor,
		StructuralConditionRating:   rec.StructuralConditionRating,
		Notes:                       rec.Notes,
		RiskScore:                   rec.RiskScore,
		RiskLevel:                   string(rec.RiskLevel),
		PhotoRef:                    rec.PhotoRef,
	}
}

func (r row) record() (infra.Infrastructure, error) {
	st, err := infra.ParseStructureType(r.StructureType)
	if err != nil {
		return infra.Infrastructure{}, fmt.Errorf("row %s: %w", r.ID, err)
	}
	mt, err := infra.ParseMaterialType(r.MaterialType)
	if err != nil {
		return infra.Infrastructure{}, fmt.Errorf("row %s: %w", r.ID, err)
	}
	var rl infra.RiskLevel
	if r.RiskLevel != "" {
		if rl, err = infra.ParseRiskLevel(r.RiskLevel); err != nil {
			return infra.Infrastructure{}, fmt.Errorf("row %s: %w", r.ID, err)
		}
	}
	return infra.Infrastructure{
		ID:                          r.ID,
		Name:                        r.Name,
		StructureType:               st,
		MaterialType:                mt,
		Location:                    infra.Location{Latitude: r.Latitude, Longitude: r.Longitude, Area: r.Area},
		Age:                         r.Age,
		TrafficLoadFactor:           r.TrafficLoadFactor,
		EnvironmentalExposureFactor: r.EnvironmentalExposureFactor,
		StructuralConditionRating:   r.StructuralConditionRating,
		Notes:                       r.Notes,
		RiskScore:                   r.RiskScore,
		RiskLevel:                   rl,
		PhotoRef:                    r.PhotoRef,
	}, nil
}

const selectColumns = `id, name, structure_type, material_type, latitude, longitude, area, age,
	traffic_load_factor, environmental_exposure_factor, structural_condition_rating,
	notes, risk_score, risk_level, photo_ref`

func (s *PostgresStore) List(ctx context.Context) ([]infra.Infrastructure, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+selectColumns+` FROM infrastructure ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list infrastructure: %w", err)
	}

	out := make([]infra.Infrastructure, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (infra.Infrastructure, error) {
	var r row
	err := s.db.GetContext(ctx, &r,
		`SELECT `+selectColumns+` FROM infrastructure WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return infra.Infrastructure{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return infra.Infrastructure{}, fmt.Errorf("get %s: %w", id, err)
	}
	return r.record()
}

func (s *PostgresStore) Add(ctx context.Context, rec infra.Infrastructure) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO infrastructure (
			id, name, structure_type, material_type, latitude, longitude, area, age,
			traffic_load_factor, environmental_exposure_factor, structural_condition_rating,
			notes, risk_score, risk_level, photo_ref)
		 VALUES (
			:id, :name, :structure_type, :material_type, :latitude, :longitude, :area, :age,
			:traffic_load_factor, :environmental_exposure_factor, :structural_condition_rating,
			:notes, :risk_score, :risk_level, :photo_ref)`,
		toRow(rec))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("add %s: %w", rec.ID, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("add %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, rec infra.Infrastructure) error {
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE infrastructure SET
			name = :name, structure_type = :structure_type, material_type = :material_type,
			latitude = :latitude, longitude = :longitude, area = :area, age = :age,
			traffic_load_factor = :traffic_load_factor,
			environmental_exposure_factor = :environmental_exposure_factor,
			structural_condition_rating = :structural_condition_rating,
			notes = :notes, risk_score = :risk_score, risk_level = :risk_level,
			photo_ref = :photo_ref, updated_at = now()
		 WHERE id = :id`,
		toRow(rec))
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.ID, err)
	}
	return affected(res, "update", rec.ID)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM infrastructure WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return affected(res, "delete", id)
}

func affected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return nil
}
