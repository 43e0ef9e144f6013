package focus_test

import (
	"testing"

	"github.com/wardenhq/go-warden/pkg/focus"
)

func TestHistoryBounded(t *testing.T) {
	h := focus.NewHistory(3)

	for i := 0; i < 5; i++ {
		h.Push(focus.Sample{Score: i})
	}

	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}

	all := h.All()
	want := []int{2, 3, 4}
	for i, s := range all {
		if s.Score != want[i] {
			t.Errorf("all[%d].Score = %d, want %d", i, s.Score, want[i])
		}
	}

	last, ok := h.Last()
	if !ok || last.Score != 4 {
		t.Errorf("last = %+v ok=%v, want score 4", last, ok)
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := focus.NewHistory(4)

	if _, ok := h.Last(); ok {
		t.Error("expected no last sample")
	}
	if got := h.All(); len(got) != 0 {
		t.Errorf("all = %v, want empty", got)
	}
}

func TestHistoryOrderPreserved(t *testing.T) {
	h := focus.NewHistory(10)

	for i := 0; i < 4; i++ {
		h.Push(focus.Sample{Score: i * 10})
	}

	all := h.All()
	if len(all) != 4 {
		t.Fatalf("len = %d, want 4", len(all))
	}
	for i, s := range all {
		if s.Score != i*10 {
			t.Errorf("all[%d].Score = %d, want %d", i, s.Score, i*10)
		}
	}
}
