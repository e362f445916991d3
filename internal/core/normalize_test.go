package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  []RawRecord
		want []NormalizedRecord
	}{
		{
			name: "empty input",
			raw:  nil,
			want: []NormalizedRecord{},
		},
		{
			name: "trims all fields",
			raw: []RawRecord{
				{Line: 2, Area: "  Finance ", SubArea: "\tTax", Field: "Rate  ", Prompt: "  Enter rate\n"},
			},
			want: []NormalizedRecord{
				{Key: Key{"Finance", "Tax", "Rate"}, Prompt: "Enter rate", Line: 2},
			},
		},
		{
			name: "drops rows missing a key part",
			raw: []RawRecord{
				{Line: 2, Area: "", SubArea: "Tax", Field: "Rate", Prompt: "a"},
				{Line: 3, Area: "Finance", SubArea: "   ", Field: "Rate", Prompt: "b"},
				{Line: 4, Area: "Finance", SubArea: "Tax", Field: "", Prompt: "c"},
				{Line: 5, Area: "Finance", SubArea: "Tax", Field: "Rate", Prompt: ""},
			},
			want: []NormalizedRecord{
				{Key: Key{"Finance", "Tax", "Rate"}, Prompt: "", Line: 5},
			},
		},
		{
			name: "last duplicate wins",
			raw: []RawRecord{
				{Line: 2, Area: "Finance", SubArea: "Tax", Field: "Rate", Prompt: "old"},
				{Line: 3, Area: "Finance", SubArea: "Tax", Field: "Rate ", Prompt: "new"},
			},
			want: []NormalizedRecord{
				{Key: Key{"Finance", "Tax", "Rate"}, Prompt: "new", Line: 3},
			},
		},
		{
			name: "ordered by surviving row position",
			raw: []RawRecord{
				{Line: 2, Area: "A", SubArea: "S", Field: "x", Prompt: "x1"},
				{Line: 3, Area: "A", SubArea: "S", Field: "y", Prompt: "y1"},
				{Line: 4, Area: "A", SubArea: "S", Field: "x", Prompt: "x2"},
				{Line: 5, Area: "A", SubArea: "S", Field: "z", Prompt: "z1"},
			},
			want: []NormalizedRecord{
				{Key: Key{"A", "S", "y"}, Prompt: "y1", Line: 3},
				{Key: Key{"A", "S", "x"}, Prompt: "x2", Line: 4},
				{Key: Key{"A", "S", "z"}, Prompt: "z1", Line: 5},
			},
		},
		{
			name: "keys are case sensitive",
			raw: []RawRecord{
				{Area: "HR", SubArea: "Payroll", Field: "salary"},
				{Area: "HR", SubArea: "Payroll", Field: "Salary"},
			},
			want: []NormalizedRecord{
				{Key: Key{"HR", "Payroll", "salary"}},
				{Key: Key{"HR", "Payroll", "Salary"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeWithStats(t *testing.T) {
	raw := []RawRecord{
		{Area: "A", SubArea: "S", Field: "x", Prompt: "1"},
		{Area: "A", SubArea: "", Field: "y", Prompt: "2"},
		{Area: "A", SubArea: "S", Field: "x", Prompt: "3"},
		{Area: "A", SubArea: "S", Field: "x", Prompt: "4"},
		{Area: "B", SubArea: "S", Field: "x", Prompt: "5"},
	}

	_, stats := NormalizeWithStats(raw)
	want := NormalizeStats{Input: 5, Incomplete: 1, Superseded: 2, Output: 2}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("NormalizeWithStats() stats mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []RawRecord{
		{Area: " A", SubArea: "S ", Field: "x", Prompt: " p "},
		{Area: "A", SubArea: "S", Field: "y", Prompt: "q"},
		{Area: "A", SubArea: "S", Field: "x", Prompt: "r"},
	}

	first := Normalize(raw)
	again := make([]RawRecord, len(first))
	for i, r := range first {
		again[i] = RawRecord{Line: r.Line, Area: r.Area, SubArea: r.SubArea, Field: r.Field, Prompt: r.Prompt}
	}

	if diff := cmp.Diff(first, Normalize(again)); diff != "" {
		t.Errorf("Normalize() not idempotent (-first +second):\n%s", diff)
	}
}
