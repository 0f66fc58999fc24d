package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveRecords writes records to disk as indented JSON.
func SaveRecords(path string, records []Infrastructure) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for records: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}

	return nil
}

// LoadRecords reads a JSON array of records from disk and validates each one.
func LoadRecords(path string) ([]Infrastructure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	var records []Infrastructure
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshaling records: %w", err)
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.ID, err)
		}
	}

	return records, nil
}

// FindByID returns the record with the given id.
func FindByID(records []Infrastructure, id string) (Infrastructure, bool) {
	for _, rec := range records {
		if rec.ID == id {
			return rec, true
		}
	}
	return Infrastructure{}, false
}
