package display

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIdle(t *testing.T) {
	var q Idle
	var order []string

	q.Schedule(func() { order = append(order, "a") })
	cancel := q.Schedule(func() { order = append(order, "b") })
	q.Schedule(func() {
		order = append(order, "c")
		q.Schedule(func() { order = append(order, "d") })
	})
	cancel()

	if got := q.Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}
	if ran := q.Run(); ran != 2 {
		t.Errorf("Run() = %d, want 2", ran)
	}
	if diff := cmp.Diff([]string{"a", "c"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	// Callbacks queued while running wait for the next Run.
	if ran := q.Run(); ran != 1 {
		t.Errorf("second Run() = %d, want 1", ran)
	}
	if q.Run() != 0 {
		t.Error("Run() on an empty queue ran something")
	}
}
