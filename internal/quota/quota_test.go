package quota

import (
	"testing"

	"newsloom/internal/core"
)

func itemsForSource(sourceID string, n int, cat core.Category) []Scored {
	out := make([]Scored, n)
	for i := 0; i < n; i++ {
		out[i] = Scored{Item: &core.Item{ID: sourceID + string(rune('a'+i)), SourceID: sourceID, Category: cat}, Score: float64(n - i)}
	}
	return out
}

func TestApply_QuotaThenCap(t *testing.T) {
	m := New(Config{
		SourceQuotas: map[string]int{"A": 2, "B": 10},
		DefaultQuota: 5,
		CategoryCaps: map[core.Category]int{core.CategoryNews: 3},
	})

	var input []Scored
	input = append(input, itemsForSource("A", 5, core.CategoryNews)...)
	input = append(input, itemsForSource("B", 5, core.CategoryNews)...)

	final := m.Apply(input)

	if len(final) != 3 {
		t.Fatalf("expected 3 admitted items (2 from A + 1 from B before cap), got %d", len(final))
	}
	if final[0].Item.SourceID != "A" || final[1].Item.SourceID != "A" {
		t.Fatalf("expected first two admitted to be from source A")
	}
	if final[2].Item.SourceID != "B" {
		t.Fatalf("expected third admitted to be from source B")
	}
}

func TestApply_StableOrder(t *testing.T) {
	m := New(Config{DefaultQuota: 100, CategoryCaps: map[core.Category]int{core.CategoryNews: 100}})
	input := itemsForSource("X", 4, core.CategoryNews)
	final := m.Apply(input)
	for i, s := range final {
		if s.Item.ID != input[i].Item.ID {
			t.Fatalf("expected stable order preserved, mismatch at index %d", i)
		}
	}
}
