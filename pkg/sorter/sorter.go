// Package sorter orders records by a named column with toggle semantics:
// selecting the current key flips direction, selecting a new key starts
// descending.
package sorter

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// ErrUnknownKey is returned for a sort key or direction that does not exist.
var ErrUnknownKey = errors.New("unknown sort key")

// Key names a sortable column.
type Key string

const (
	KeyName            Key = "name"
	KeyStructureType   Key = "structureType"
	KeyArea            Key = "area"
	KeyAge             Key = "age"
	KeyRiskScore       Key = "riskScore"
	KeyHealthScore     Key = "healthScore"
	KeyMaintenanceYear Key = "maintenanceYear" // ordered by age
)

// Keys lists every sort key.
var Keys = []Key{KeyName, KeyStructureType, KeyArea, KeyAge, KeyRiskScore, KeyHealthScore, KeyMaintenanceYear}

func (k Key) numeric() bool {
	switch k {
	case KeyName, KeyStructureType, KeyArea:
		return false
	case KeyAge, KeyRiskScore, KeyHealthScore, KeyMaintenanceYear:
		return true
	}
	panic(fmt.Sprintf("sorter: unknown key %q", string(k)))
}

// ParseKey parses a sort key.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if !slices.Contains(Keys, k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	return k, nil
}

// Direction is ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection parses "asc" or "desc".
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Asc, Desc:
		return Direction(s), nil
	}
	return "", fmt.Errorf("%w: direction %q", ErrUnknownKey, s)
}

// Sorter holds the current key, direction and collation locale.
type Sorter struct {
	Key       Key
	Direction Direction
	Locale    language.Tag
}

// New returns a sorter on risk score, descending.
func New(locale language.Tag) Sorter {
	return Sorter{Key: KeyRiskScore, Direction: Desc, Locale: locale}
}

// Select applies a column click: the same key flips direction, a new key
// resets to descending.
func (s *Sorter) Select(k Key) {
	if s.Key == k {
		if s.Direction == Asc {
			s.Direction = Desc
		} else {
			s.Direction = Asc
		}
		return
	}
	s.Key = k
	s.Direction = Desc
}

// Sort returns a stably sorted copy of records.
func (s Sorter) Sort(records []infra.Infrastructure) []infra.Infrastructure {
	out := slices.Clone(records)
	if out == nil {
		out = []infra.Infrastructure{}
	}

	if s.Key == "" {
		s.Key = KeyRiskScore
	}

	var compare func(a, b infra.Infrastructure) int
	if s.Key.numeric() {
		compare = func(a, b infra.Infrastructure) int {
			return cmp.Compare(number(s.Key, a), number(s.Key, b))
		}
	} else {
		// Collators keep internal buffers and are not shared between calls.
		col := collate.New(s.Locale)
		compare = func(a, b infra.Infrastructure) int {
			return col.CompareString(text(s.Key, a), text(s.Key, b))
		}
	}

	if s.Direction == Desc {
		asc := compare
		compare = func(a, b infra.Infrastructure) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func number(k Key, rec infra.Infrastructure) float64 {
	switch k {
	case KeyAge, KeyMaintenanceYear:
		return float64(rec.Age)
	case KeyRiskScore:
		return rec.RiskScore
	case KeyHealthScore:
		return float64(scoring.HealthScore(rec.RiskScore))
	}
	panic(fmt.Sprintf("sorter: %q is not numeric", string(k)))
}

func text(k Key, rec infra.Infrastructure) string {
	switch k {
	case KeyName:
		return rec.Name
	case KeyStructureType:
		return string(rec.StructureType)
	case KeyArea:
		return rec.Location.Area
	}
	panic(fmt.Sprintf("sorter: %q is not a text key", string(k)))
}
