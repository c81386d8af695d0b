package calculation

import (
	"errors"
	"testing"
	"time"
)

func TestParseHistoryFilter_Defaults(t *testing.T) {
	f, err := ParseHistoryFilter("", "", "", "", "")
	if err != nil {
		t.Fatalf("ParseHistoryFilter() error = %v", err)
	}
	if f.SortBy != SortByDate {
		t.Errorf("SortBy = %q, want %q", f.SortBy, SortByDate)
	}
	if f.SortOrder != SortDesc {
		t.Errorf("SortOrder = %q, want %q", f.SortOrder, SortDesc)
	}
	if f.Start != nil || f.End != nil || len(f.Operations) != 0 {
		t.Errorf("expected empty predicates, got %+v", f)
	}
}

func TestParseHistoryFilter(t *testing.T) {
	f, err := ParseHistoryFilter("sum, DIV", "2024-01-01T10:00:00.000Z", "2024-01-02", "result", "asc")
	if err != nil {
		t.Fatalf("ParseHistoryFilter() error = %v", err)
	}
	if len(f.Operations) != 2 || f.Operations[0] != OperationSum || f.Operations[1] != OperationDiv {
		t.Errorf("Operations = %v", f.Operations)
	}
	wantStart := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if f.Start == nil || !f.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", f.Start, wantStart)
	}
	wantEnd := time.Date(2024, 1, 2, 23, 59, 59, 999999999, time.UTC)
	if f.End == nil || !f.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", f.End, wantEnd)
	}
	if f.SortBy != SortByResult || f.SortOrder != SortAsc {
		t.Errorf("sort = %s %s", f.SortBy, f.SortOrder)
	}
}

func TestParseHistoryFilter_Invalid(t *testing.T) {
	tests := []struct {
		name                               string
		ops, start, end, sortBy, sortOrder string
	}{
		{name: "unknown operation", ops: "pow"},
		{name: "malformed start", start: "yesterday"},
		{name: "malformed end", end: "2024-13-45"},
		{name: "unknown sort field", sortBy: "expression"},
		{name: "unknown sort order", sortOrder: "up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHistoryFilter(tt.ops, tt.start, tt.end, tt.sortBy, tt.sortOrder)
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("expected ErrInvalidFilter, got %v", err)
			}
		})
	}
}

func TestHistoryFilter_Matches(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	before := base.Add(-time.Hour)
	after := base.Add(time.Hour)

	calc := &Calculation{Expression: "2*3+1", CreatedAt: base}

	tests := []struct {
		name   string
		filter HistoryFilter
		want   bool
	}{
		{"no predicates", HistoryFilter{}, true},
		{"contains mul", HistoryFilter{Operations: []OperationType{OperationMul}}, true},
		{"any of sub or sum", HistoryFilter{Operations: []OperationType{OperationSub, OperationSum}}, true},
		{"only div", HistoryFilter{Operations: []OperationType{OperationDiv}}, false},
		{"inclusive start", HistoryFilter{Start: &base}, true},
		{"inclusive end", HistoryFilter{End: &base}, true},
		{"start after", HistoryFilter{Start: &after}, false},
		{"end before", HistoryFilter{End: &before}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(calc); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistoryFilter_Sort(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calcs := func() []Calculation {
		return []Calculation{
			{ID: "a", Result: 5, CreatedAt: t0},
			{ID: "b", Result: 1, CreatedAt: t0.Add(time.Minute)},
			{ID: "c", Result: 9, CreatedAt: t0.Add(2 * time.Minute)},
		}
	}

	tests := []struct {
		name   string
		filter HistoryFilter
		want   string
	}{
		{"date desc", HistoryFilter{SortBy: SortByDate, SortOrder: SortDesc}, "cba"},
		{"date asc", HistoryFilter{SortBy: SortByDate, SortOrder: SortAsc}, "abc"},
		{"result desc", HistoryFilter{SortBy: SortByResult, SortOrder: SortDesc}, "cab"},
		{"result asc", HistoryFilter{SortBy: SortByResult, SortOrder: SortAsc}, "bac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calcs()
			tt.filter.Sort(got)
			ids := ""
			for _, c := range got {
				ids += c.ID
			}
			if ids != tt.want {
				t.Errorf("order = %s, want %s", ids, tt.want)
			}
		})
	}
}

func TestSortSteps(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	steps := []Step{
		{Seq: 2, CreatedAt: t0},
		{Seq: 0, CreatedAt: t0},
		{Seq: 1, CreatedAt: t0.Add(-time.Second)},
	}
	SortSteps(steps)

	want := []int{1, 0, 2}
	for i, s := range steps {
		if s.Seq != want[i] {
			t.Errorf("steps[%d].Seq = %d, want %d", i, s.Seq, want[i])
		}
	}
}
