package types

import (
	"sync"
	"testing"
)

func TestRingAppendBelowCapacity(t *testing.T) {
	r := NewRing[int](5)
	for i := 1; i <= 3; i++ {
		r.Append(i)
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	got := r.Items()
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Items = %v, want %v", got, want)
		}
	}
}

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing[int](1000)
	n := 2500
	for i := 0; i < n; i++ {
		r.Append(i)
	}
	if r.Len() != 1000 {
		t.Fatalf("Len = %d, want 1000", r.Len())
	}
	items := r.Items()
	for i, v := range items {
		if v != n-1000+i {
			t.Fatalf("Items[%d] = %d, want %d", i, v, n-1000+i)
		}
	}
}

func TestRingLast(t *testing.T) {
	r := NewRing[int](10)
	for i := 0; i < 7; i++ {
		r.Append(i)
	}
	last := r.Last(3)
	if len(last) != 3 || last[0] != 4 || last[2] != 6 {
		t.Fatalf("Last(3) = %v, want [4 5 6]", last)
	}
	all := r.Last(100)
	if len(all) != 7 {
		t.Fatalf("Last(100) len = %d, want 7", len(all))
	}
}

func TestRingClear(t *testing.T) {
	r := NewRing[string](4)
	r.Append("a")
	r.Append("b")
	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", r.Len())
	}
	r.Append("c")
	if got := r.Items(); len(got) != 1 || got[0] != "c" {
		t.Fatalf("Items after reuse = %v, want [c]", got)
	}
}

func TestRingConcurrentAppends(t *testing.T) {
	r := NewRing[int](100)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				r.Append(i)
			}
		}()
	}
	wg.Wait()
	if r.Len() != 100 {
		t.Fatalf("Len = %d, want 100", r.Len())
	}
}

func TestParseMood(t *testing.T) {
	if m, ok := ParseMood("savage"); !ok || m != MoodSavage {
		t.Fatalf("ParseMood(savage) = %v %v", m, ok)
	}
	if m, ok := ParseMood("bogus"); ok || m != MoodDefault {
		t.Fatalf("ParseMood(bogus) = %v %v, want default/false", m, ok)
	}
}
