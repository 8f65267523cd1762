package layout

import (
	"strconv"
	"strings"
)

// This file defines the unit handling used by style presets.

// Unit represents the original unit of a value as written in a style preset.
type Unit int

const (
	UnitNone    Unit = iota // unit-less numbers
	UnitPX                  // logical pixels
	UnitPT                  // points
	UnitPercent             // percent of the 50-unit reference
)

// Conversion constants. The canvas backend measures in millimetres; a logical
// pixel is mapped onto one canvas unit, so font sizes are converted to points
// with MmToPt at the boundary.
const (
	PtToMm = 25.4 / 72.0
	MmToPt = 1.0 / PtToMm
	PtToPx = 96.0 / 72.0
)

// ReferencePercent is the padding scale value that means "100%".
const ReferencePercent = 50.0

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitPercent:
		return "%"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// String formats the length as it would be written in a preset, e.g. "12pt".
func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// PX converts the length to logical pixels. Unit-less and percent values are
// returned as-is.
func (l Length) PX() float64 {
	if l.Unit == UnitPT {
		return l.Value * PtToPx
	}
	return l.Value
}

// ParseLength parses a preset length such as "10px", "12pt", "120%" or "8".
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"%", UnitPercent}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// PaddingScale turns a percent length into the 50-based slider value used by
// StyleConfig: "100%" -> 50, "200%" -> 100. Unit-less numbers are taken as
// slider values already.
func PaddingScale(l Length) float64 {
	if l.Unit == UnitPercent {
		return l.Value * ReferencePercent / 100
	}
	return l.Value
}
