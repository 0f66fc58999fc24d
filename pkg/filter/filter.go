// Package filter narrows a record collection with AND-combined predicates.
//
// Criteria is a plain value. Callers construct it, pass it around and
// apply it; there is no shared filter state.
package filter

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// All is the wildcard accepted by Set for every field.
const All = "all"

// ErrUnknownField is returned by Set for a field name it does not know.
var ErrUnknownField = errors.New("unknown filter field")

// Field names accepted by Set.
const (
	FieldRiskLevel     = "riskLevel"
	FieldStructureType = "structureType"
	FieldArea          = "area"
	FieldUrgency       = "urgency"
)

// Criteria selects records. A zero field matches everything; the zero
// Criteria is the identity filter.
//
// Urgency is not a record attribute: it selects the risk level it maps to.
type Criteria struct {
	RiskLevel     infra.RiskLevel     `json:"riskLevel,omitempty" yaml:"risk_level"`
	StructureType infra.StructureType `json:"structureType,omitempty" yaml:"structure_type"`
	Area          string              `json:"area,omitempty" yaml:"area"`
	Urgency       infra.UrgencyLevel  `json:"urgency,omitempty" yaml:"urgency"`
}

// Set assigns one field from its string form. "all" or "" clears it.
func (c *Criteria) Set(field, value string) error {
	if value == All {
		value = ""
	}
	switch field {
	case FieldRiskLevel:
		if value == "" {
			c.RiskLevel = ""
			return nil
		}
		l, err := infra.ParseRiskLevel(value)
		if err != nil {
			return err
		}
		c.RiskLevel = l
	case FieldStructureType:
		if value == "" {
			c.StructureType = ""
			return nil
		}
		t, err := infra.ParseStructureType(value)
		if err != nil {
			return err
		}
		c.StructureType = t
	case FieldArea:
		c.Area = value
	case FieldUrgency:
		if value == "" {
			c.Urgency = ""
			return nil
		}
		u, err := infra.ParseUrgencyLevel(value)
		if err != nil {
			return err
		}
		c.Urgency = u
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Reset clears every field.
func (c *Criteria) Reset() {
	*c = Criteria{}
}

// IsIdentity reports whether the criteria match every record.
func (c Criteria) IsIdentity() bool {
	return c == Criteria{}
}

// Match reports whether a record satisfies every set field. Records without
// a risk level only match when neither RiskLevel nor Urgency is set.
func (c Criteria) Match(rec infra.Infrastructure) bool {
	if c.RiskLevel != "" && rec.RiskLevel != c.RiskLevel {
		return false
	}
	if c.Urgency != "" && rec.RiskLevel != c.Urgency.RiskLevel() {
		return false
	}
	if c.StructureType != "" && rec.StructureType != c.StructureType {
		return false
	}
	if c.Area != "" && rec.Location.Area != c.Area {
		return false
	}
	return true
}

// Apply returns the matching records in input order. The input is not
// modified.
func (c Criteria) Apply(records []infra.Infrastructure) []infra.Infrastructure {
	out := make([]infra.Infrastructure, 0, len(records))
	for _, rec := range records {
		if c.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Areas returns the distinct areas in first-seen order, for building
// area pickers.
func Areas(records []infra.Infrastructure) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range records {
		if a := rec.Location.Area; !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// FromQuery builds criteria from the query parameters risk, type, area
// and urgency.
func FromQuery(q url.Values) (Criteria, error) {
	var c Criteria
	params := []struct{ key, field string }{
		{"risk", FieldRiskLevel},
		{"type", FieldStructureType},
		{"area", FieldArea},
		{"urgency", FieldUrgency},
	}
	for _, p := range params {
		if err := c.Set(p.field, q.Get(p.key)); err != nil {
			return Criteria{}, fmt.Errorf("query parameter %s: %w", p.key, err)
		}
	}
	return c, nil
}
