// Package cronspec implements the spec §4.1 cron dialect: a 5- or 6-field
// expression (minutes hours day_of_month month day_of_week [year]) whose
// elements are wildcards, single values, ranges, or step sequences, matched
// against zoneless wall-clock components.
//
// This is a hand-rolled evaluator rather than a wrapper around
// github.com/robfig/cron/v3: the dialect's day-of-week numbering (0 =
// Sunday, no MON/JAN-style aliases), its optional trailing year field, and
// its Step(base, step) "component >= base" requirement do not map onto
// robfig's grammar. It is grounded on
// _examples/original_source/src/types/cron.rs, the Rust implementation this
// spec was distilled from.
package cronspec

import (
	"fmt"
	"strconv"
	"strings"
)

// Element is one comma-separated member of a Field.
type Element struct {
	Kind  ElementKind
	Value uint32 // Single: the value. Range: start. Step: base.
	End   uint32 // Range: end.
	Step  uint32 // Step: the step size.
}

// ElementKind discriminates the variants of Element.
type ElementKind int

const (
	Single ElementKind = iota
	Range
	Step
)

// Contains reports whether value matches this element, per spec §4.1:
//   - Single(n): component == n.
//   - Range(a,b): a <= component <= b, inclusive, no wrap.
//   - Step(base,step): step > 0 && component >= base && (component-base)%step == 0.
func (e Element) Contains(value uint32) bool {
	switch e.Kind {
	case Single:
		return value == e.Value
	case Range:
		return e.Value <= value && value <= e.End
	case Step:
		if e.Step == 0 || value < e.Value {
			return false
		}
		return (value-e.Value)%e.Step == 0
	default:
		return false
	}
}

func (e Element) String() string {
	switch e.Kind {
	case Single:
		return strconv.FormatUint(uint64(e.Value), 10)
	case Range:
		return fmt.Sprintf("%d-%d", e.Value, e.End)
	case Step:
		return fmt.Sprintf("%d/%d", e.Value, e.Step)
	default:
		return ""
	}
}

// Field is one of the six positions in a CronExpression: either the
// wildcard (All, matches anything) or a list of Elements where any matching
// element matches the field.
type Field struct {
	All      bool
	Elements []Element
}

// Matches reports whether value satisfies this field.
func (f Field) Matches(value uint32) bool {
	if f.All {
		return true
	}
	for _, el := range f.Elements {
		if el.Contains(value) {
			return true
		}
	}
	return false
}

func (f Field) String() string {
	if f.All {
		return "*"
	}
	parts := make([]string, len(f.Elements))
	for i, el := range f.Elements {
		parts[i] = el.String()
	}
	return strings.Join(parts, ",")
}

// Expression is the parsed form of a cron string: minutes hours
// day_of_month month day_of_week, plus an optional year field when the
// source string had six fields. Day-of-week uses 0 = Sunday; month uses
// 1 = January; minutes 0-59; hours 0-23 (spec §4.1).
type Expression struct {
	Minutes    Field
	Hours      Field
	DayOfMonth Field
	Month      Field
	DayOfWeek  Field
	Year       *Field
}

// String serializes the expression back to its canonical 5- or 6-field
// form. parse(serialize(parse(e))) == parse(e) for any e that parsed
// successfully (spec §8 property 4).
func (e Expression) String() string {
	fields := []string{
		e.Minutes.String(), e.Hours.String(), e.DayOfMonth.String(),
		e.Month.String(), e.DayOfWeek.String(),
	}
	if e.Year != nil {
		fields = append(fields, e.Year.String())
	}
	return strings.Join(fields, " ")
}
