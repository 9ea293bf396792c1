package cronspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/myyrakle/batchman/internal/apierr"
)

// Parse parses a whitespace-separated 5- or 6-field cron expression into an
// Expression. Field order is minutes hours day_of_month month day_of_week
// [year]. Each field is "*", "?" (accepted as a synonym for "*"), or a
// comma-separated list of "N", "A-B", or "BASE/STEP" elements.
//
// Parse fails with apierr.ErrInvalidCronExpression when: the field count is
// not 5 or 6; any element fails to parse as a non-negative integer; a range
// or step has the wrong arity; step == 0 (spec §9: "rejecting at parse is
// safer" than silently never matching); or a range has start > end (spec §9,
// also rejected at parse per the same rationale).
func Parse(expression string) (Expression, error) {
	parts := strings.Fields(expression)

	if len(parts) != 5 && len(parts) != 6 {
		return Expression{}, apierr.InvalidCronExpression(fmt.Sprintf(
			"expected 5 or 6 fields, got %d", len(parts)))
	}

	minutes, err := parseField(parts[0])
	if err != nil {
		return Expression{}, err
	}
	hours, err := parseField(parts[1])
	if err != nil {
		return Expression{}, err
	}
	dayOfMonth, err := parseField(parts[2])
	if err != nil {
		return Expression{}, err
	}
	month, err := parseField(parts[3])
	if err != nil {
		return Expression{}, err
	}
	dayOfWeek, err := parseField(parts[4])
	if err != nil {
		return Expression{}, err
	}

	expr := Expression{
		Minutes:    minutes,
		Hours:      hours,
		DayOfMonth: dayOfMonth,
		Month:      month,
		DayOfWeek:  dayOfWeek,
	}

	if len(parts) == 6 {
		year, err := parseField(parts[5])
		if err != nil {
			return Expression{}, err
		}
		expr.Year = &year
	}

	return expr, nil
}

func parseField(raw string) (Field, error) {
	if raw == "*" || raw == "?" {
		return Field{All: true}, nil
	}

	pieces := strings.Split(raw, ",")
	elements := make([]Element, 0, len(pieces))
	for _, piece := range pieces {
		el, err := parseElement(piece)
		if err != nil {
			return Field{}, err
		}
		elements = append(elements, el)
	}
	return Field{Elements: elements}, nil
}

func parseElement(part string) (Element, error) {
	switch {
	case strings.Contains(part, "/"):
		pieces := strings.SplitN(part, "/", 2)
		if len(pieces) != 2 || strings.Contains(pieces[1], "/") {
			return Element{}, apierr.InvalidCronExpression(
				fmt.Sprintf("invalid step expression: %q", part))
		}
		base, err := parseUint(pieces[0], part, "step base")
		if err != nil {
			return Element{}, err
		}
		step, err := parseUint(pieces[1], part, "step value")
		if err != nil {
			return Element{}, err
		}
		if step == 0 {
			return Element{}, apierr.InvalidCronExpression(
				fmt.Sprintf("step value must be greater than 0: %q", part))
		}
		return Element{Kind: Step, Value: base, Step: step}, nil

	case strings.Contains(part, "-"):
		pieces := strings.SplitN(part, "-", 2)
		if len(pieces) != 2 {
			return Element{}, apierr.InvalidCronExpression(
				fmt.Sprintf("invalid range expression: %q", part))
		}
		start, err := parseUint(pieces[0], part, "start of range")
		if err != nil {
			return Element{}, err
		}
		end, err := parseUint(pieces[1], part, "end of range")
		if err != nil {
			return Element{}, err
		}
		if start > end {
			return Element{}, apierr.InvalidCronExpression(
				fmt.Sprintf("range start must not exceed end: %q", part))
		}
		return Element{Kind: Range, Value: start, End: end}, nil

	default:
		value, err := parseUint(part, part, "value")
		if err != nil {
			return Element{}, err
		}
		return Element{Kind: Single, Value: value}, nil
	}
}

func parseUint(s, context, what string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, apierr.InvalidCronExpression(
			fmt.Sprintf("invalid %s in expression %q", what, context))
	}
	return uint32(n), nil
}
