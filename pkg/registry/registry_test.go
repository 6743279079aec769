package registry

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewSeededHoldsDefaults(t *testing.T) {
	r := NewSeeded(DefaultSeed())

	cases := map[string]Junction{
		"junction_1": {Status: "green", TimeLeft: 30},
		"junction_2": {Status: "red", TimeLeft: 45},
		"junction_3": {Status: "yellow", TimeLeft: 10},
	}
	for id, want := range cases {
		got, ok := r.Get(id)
		if !ok {
			t.Fatalf("expected %s to be seeded", id)
		}
		if got != want {
			t.Fatalf("unexpected state for %s: %+v", id, got)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 junctions, got %d", r.Len())
	}
}

func TestNewSeededCopiesInput(t *testing.T) {
	seed := DefaultSeed()
	r := NewSeeded(seed)
	seed["junction_1"] = Junction{Status: "red", TimeLeft: 1}

	got, _ := r.Get("junction_1")
	if got.Status != "green" {
		t.Fatalf("registry shares the seed map: %+v", got)
	}
}

func TestSetReplacesWholeState(t *testing.T) {
	r := New()
	r.Set("junction_9", Junction{Status: "green", TimeLeft: 20})
	r.Set("junction_9", Junction{Status: "red", TimeLeft: 5})

	got, ok := r.Get("junction_9")
	if !ok {
		t.Fatalf("expected junction_9 to exist")
	}
	if got.Status != "red" || got.TimeLeft != 5 {
		t.Fatalf("unexpected state after overwrite: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	r := New()
	if _, ok := r.Get("nope"); ok {
		t.Fatalf("expected missing junction")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	r := NewSeeded(DefaultSeed())
	snap := r.Snapshot()
	snap["junction_1"] = Junction{Status: "blue", TimeLeft: 99}
	delete(snap, "junction_2")

	if got, _ := r.Get("junction_1"); got.Status != "green" {
		t.Fatalf("snapshot mutation leaked into registry: %+v", got)
	}
	if _, ok := r.Get("junction_2"); !ok {
		t.Fatalf("snapshot delete leaked into registry")
	}
}

func TestIDsSorted(t *testing.T) {
	r := NewSeeded(DefaultSeed())
	r.Set("junction_0", Junction{Status: "red", TimeLeft: 3})

	ids := r.IDs()
	want := []string{"junction_0", "junction_1", "junction_2", "junction_3"}
	if len(ids) != len(want) {
		t.Fatalf("unexpected ids: %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected ids: %v", ids)
		}
	}
}

func TestConcurrentWriters(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				r.Set(fmt.Sprintf("junction_%d", k%4), Junction{Status: "green", TimeLeft: float64(n)})
				r.Get("junction_0")
				r.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 4 {
		t.Fatalf("expected 4 junctions, got %d", r.Len())
	}
}
