// Package infra defines the infrastructure record model shared by the
// scoring, simulation, filtering and aggregation packages.
//
// The categorical fields are closed sets. Every constructor and decoder
// rejects values outside the set, so consumers can switch over them
// exhaustively.
package infra

import (
	"errors"
	"fmt"
)

// ErrInvalidEnum is returned when a categorical value is outside its closed set.
var ErrInvalidEnum = errors.New("invalid enum value")

// StructureType is the kind of asset.
type StructureType string

const (
	Bridge StructureType = "bridge"
	Road   StructureType = "road"
)

// StructureTypes lists every structure type in display order.
var StructureTypes = []StructureType{Bridge, Road}

func (t StructureType) Valid() bool {
	switch t {
	case Bridge, Road:
		return true
	}
	return false
}

// Label returns the human-readable name.
func (t StructureType) Label() string {
	switch t {
	case Bridge:
		return "Bridge"
	case Road:
		return "Road"
	}
	return string(t)
}

// ParseStructureType parses a structure type key.
func ParseStructureType(s string) (StructureType, error) {
	t := StructureType(s)
	if !t.Valid() {
		return "", fmt.Errorf("structure type %q: %w", s, ErrInvalidEnum)
	}
	return t, nil
}

func (t *StructureType) UnmarshalText(b []byte) error {
	v, err := ParseStructureType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MaterialType is the primary construction material.
type MaterialType string

const (
	Concrete  MaterialType = "concrete"
	Steel     MaterialType = "steel"
	Asphalt   MaterialType = "asphalt"
	Composite MaterialType = "composite"
)

func (m MaterialType) Valid() bool {
	switch m {
	case Concrete, Steel, Asphalt, Composite:
		return true
	}
	return false
}

func (m MaterialType) Label() string {
	switch m {
	case Concrete:
		return "Concrete"
	case Steel:
		return "Steel"
	case Asphalt:
		return "Asphalt"
	case Composite:
		return "Composite"
	}
	return string(m)
}

// ParseMaterialType parses a material key. The legacy key
// "compositeMaterial" is accepted as an alias of Composite.
func ParseMaterialType(s string) (MaterialType, error) {
	if s == "compositeMaterial" {
		return Composite, nil
	}
	m := MaterialType(s)
	if !m.Valid() {
		return "", fmt.Errorf("material type %q: %w", s, ErrInvalidEnum)
	}
	return m, nil
}

func (m *MaterialType) UnmarshalText(b []byte) error {
	v, err := ParseMaterialType(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// RiskLevel is the categorical risk band of a structure.
// The zero value means the record has not been classified yet.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// RiskLevels lists every risk level from least to most severe.
var RiskLevels = []RiskLevel{RiskLow, RiskModerate, RiskHigh}

func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

func (l RiskLevel) Label() string {
	switch l {
	case RiskLow:
		return "Low"
	case RiskModerate:
		return "Moderate"
	case RiskHigh:
		return "High"
	}
	return string(l)
}

// ParseRiskLevel parses a risk level key.
func ParseRiskLevel(s string) (RiskLevel, error) {
	l := RiskLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("risk level %q: %w", s, ErrInvalidEnum)
	}
	return l, nil
}

// UnmarshalText accepts an empty value as "not yet classified".
func (l *RiskLevel) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*l = ""
		return nil
	}
	v, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// UrgencyLevel is the maintenance priority derived from a risk level.
type UrgencyLevel string

const (
	MonitorOnly          UrgencyLevel = "monitorOnly"
	ScheduledMaintenance UrgencyLevel = "scheduledMaintenance"
	ImmediateRepair      UrgencyLevel = "immediateRepair"
)

func (u UrgencyLevel) Valid() bool {
	switch u {
	case MonitorOnly, ScheduledMaintenance, ImmediateRepair:
		return true
	}
	return false
}

func (u UrgencyLevel) Label() string {
	switch u {
	case MonitorOnly:
		return "Monitor Only"
	case ScheduledMaintenance:
		return "Scheduled Maintenance"
	case ImmediateRepair:
		return "Immediate Repair"
	}
	return string(u)
}

// RiskLevel returns the risk level an urgency corresponds to.
func (u UrgencyLevel) RiskLevel() RiskLevel {
	switch u {
	case ImmediateRepair:
		return RiskHigh
	case ScheduledMaintenance:
		return RiskModerate
	case MonitorOnly:
		return RiskLow
	}
	panic(fmt.Sprintf("infra: unknown urgency level %q", string(u)))
}

// ParseUrgencyLevel parses an urgency key.
func ParseUrgencyLevel(s string) (UrgencyLevel, error) {
	u := UrgencyLevel(s)
	if !u.Valid() {
		return "", fmt.Errorf("urgency level %q: %w", s, ErrInvalidEnum)
	}
	return u, nil
}

// UnmarshalText accepts an empty value as "not yet estimated".
func (u *UrgencyLevel) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*u = ""
		return nil
	}
	v, err := ParseUrgencyLevel(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}
