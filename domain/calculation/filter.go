package calculation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidFilter is returned when a history query parameter is malformed.
var ErrInvalidFilter = errors.New("invalid history filter")

// OperationType names an operator in history queries.
type OperationType string

const (
	OperationSum OperationType = "sum"
	OperationSub OperationType = "sub"
	OperationMul OperationType = "mul"
	OperationDiv OperationType = "div"
)

// Symbol returns the operator character matched against stored expressions.
func (o OperationType) Symbol() string {
	switch o {
	case OperationSum:
		return "+"
	case OperationSub:
		return "-"
	case OperationMul:
		return "*"
	case OperationDiv:
		return "/"
	default:
		return ""
	}
}

// SortField selects the ordering key for history results.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByResult SortField = "result"
)

// SortOrder selects the ordering direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// HistoryFilter narrows and orders a history query. A calculation matches
// when its expression contains any of the listed operation symbols and its
// creation time falls within the inclusive [Start, End] range.
type HistoryFilter struct {
	Operations []OperationType
	Start      *time.Time
	End        *time.Time
	SortBy     SortField
	SortOrder  SortOrder
}

// DefaultHistoryFilter returns a filter matching everything, newest first.
func DefaultHistoryFilter() HistoryFilter {
	return HistoryFilter{SortBy: SortByDate, SortOrder: SortDesc}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts ISO-8601 timestamps with or without a zone, or a bare
// date. Values without a zone are taken as UTC.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: malformed date %q", ErrInvalidFilter, value)
}

// ParseHistoryFilter builds a filter from raw query parameter values.
// Empty values fall back to the defaults.
func ParseHistoryFilter(operationTypes, startDate, endDate, sortBy, sortOrder string) (HistoryFilter, error) {
	f := DefaultHistoryFilter()

	if operationTypes != "" {
		for _, raw := range strings.Split(operationTypes, ",") {
			op := OperationType(strings.ToLower(strings.TrimSpace(raw)))
			if op == "" {
				continue
			}
			if op.Symbol() == "" {
				return HistoryFilter{}, fmt.Errorf("%w: unknown operation type %q", ErrInvalidFilter, raw)
			}
			f.Operations = append(f.Operations, op)
		}
	}

	if startDate != "" {
		t, err := ParseDate(startDate)
		if err != nil {
			return HistoryFilter{}, err
		}
		f.Start = &t
	}
	if endDate != "" {
		t, err := ParseDate(endDate)
		if err != nil {
			return HistoryFilter{}, err
		}
		// A bare date as upper bound covers that whole day.
		if len(endDate) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.End = &t
	}

	switch SortField(sortBy) {
	case "":
	case SortByDate, SortByResult:
		f.SortBy = SortField(sortBy)
	default:
		return HistoryFilter{}, fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, sortBy)
	}

	switch SortOrder(sortOrder) {
	case "":
	case SortAsc, SortDesc:
		f.SortOrder = SortOrder(sortOrder)
	default:
		return HistoryFilter{}, fmt.Errorf("%w: unknown sort order %q", ErrInvalidFilter, sortOrder)
	}

	return f, nil
}

// Matches reports whether c satisfies the filter's predicates.
func (f HistoryFilter) Matches(c *Calculation) bool {
	if f.Start != nil && c.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && c.CreatedAt.After(*f.End) {
		return false
	}
	if len(f.Operations) == 0 {
		return true
	}
	for _, op := range f.Operations {
		if strings.Contains(c.Expression, op.Symbol()) {
			return true
		}
	}
	return false
}

// Sort orders calculations in place according to the filter. Ties are
// broken by creation time so results are stable across stores.
func (f HistoryFilter) Sort(calcs []Calculation) {
	desc := f.SortOrder != SortAsc
	sort.SliceStable(calcs, func(i, j int) bool {
		a, b := calcs[i], calcs[j]
		if f.SortBy == SortByResult && a.Result != b.Result {
			if desc {
				return a.Result > b.Result
			}
			return a.Result < b.Result
		}
		if desc {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// SortSteps orders steps by creation time, then by sequence number.
func SortSteps(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		if !steps[i].CreatedAt.Equal(steps[j].CreatedAt) {
			return steps[i].CreatedAt.Before(steps[j].CreatedAt)
		}
		return steps[i].Seq < steps[j].Seq
	})
}
