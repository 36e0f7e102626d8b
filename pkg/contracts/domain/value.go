package domain

import (
	"encoding/json"
	"time"
)

// ValueState describes whether an optional value carries usable data.
type ValueState uint8

const (
	// Absent means the source had no column for the value or the cell was empty.
	Absent ValueState = iota
	// Present means the value was read and coerced successfully.
	Present
	// Invalid means a cell was present but could not be coerced, or a
	// label did not belong to the configured scale.
	Invalid
)

// String returns the lowercase state name
func (s ValueState) String() string {
	switch s {
	case Present:
		return "present"
	case Invalid:
		return "invalid"
	default:
		return "absent"
	}
}

// Number is an optional real value.
type Number struct {
	Value float64
	State ValueState
}

// NumberOf returns a present Number.
func NumberOf(v float64) Number {
	return Number{Value: v, State: Present}
}

// InvalidNumber returns a Number marked invalid.
func InvalidNumber() Number {
	return Number{State: Invalid}
}

// IsPresent reports whether n carries a usable value.
func (n Number) IsPresent() bool {
	return n.State == Present
}

// Get returns the value and whether it is present.
func (n Number) Get() (float64, bool) {
	return n.Value, n.State == Present
}

// MarshalJSON encodes absent and invalid numbers as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.State != Present {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Label is an optional categorical value.
type Label struct {
	Value string
	State ValueState
}

// LabelOf returns a present Label.
func LabelOf(v string) Label {
	return Label{Value: v, State: Present}
}

// IsPresent reports whether l carries a usable value.
func (l Label) IsPresent() bool {
	return l.State == Present
}

// MarshalJSON encodes absent and invalid labels as null.
func (l Label) MarshalJSON() ([]byte, error) {
	if l.State != Present {
		return []byte("null"), nil
	}
	return json.Marshal(l.Value)
}

// Date is an optional calendar date.
type Date struct {
	Value time.Time
	State ValueState
}

// DateOf returns a present Date.
func DateOf(t time.Time) Date {
	return Date{Value: t, State: Present}
}

// IsPresent reports whether d carries a usable value.
func (d Date) IsPresent() bool {
	return d.State == Present
}

// Year returns the calendar year bucket, e.g. "2023".
func (d Date) Year() (string, bool) {
	if !d.IsPresent() {
		return "", false
	}
	return d.Value.Format("2006"), true
}

// Month returns the month-of-year bucket, e.g. "07".
func (d Date) Month() (string, bool) {
	if !d.IsPresent() {
		return "", false
	}
	return d.Value.Format("01"), true
}

// YearMonth returns the year-month bucket, e.g. "2023-07".
func (d Date) YearMonth() (string, bool) {
	if !d.IsPresent() {
		return "", false
	}
	return d.Value.Format("2006-01"), true
}

// MarshalJSON encodes absent and invalid dates as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.State != Present {
		return []byte("null"), nil
	}
	return json.Marshal(d.Value.Format("2006-01-02"))
}
