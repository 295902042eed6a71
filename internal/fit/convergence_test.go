package fit

import (
	"math"
	"testing"
)

func TestConvergenceTrackerPatience(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 0.01,
	})

	if tracker.BestCost() != math.Inf(1) {
		t.Errorf("Expected initial best cost to be Inf, got %v", tracker.BestCost())
	}
	if tracker.Update(1.0) {
		t.Error("Should not converge on first update")
	}
	if tracker.Update(0.8) {
		t.Error("Should not converge after improvement")
	}
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count 0 after improvement, got %v", tracker.StaleCount())
	}

	// below 1% relative to 0.8
	if tracker.Update(0.795) {
		t.Error("Should not converge yet (1/3)")
	}
	if tracker.Update(0.796) {
		t.Error("Should not converge yet (2/3)")
	}
	if !tracker.Update(0.797) {
		t.Error("Should converge after patience exceeded (3/3)")
	}
	if tracker.BestCost() != 0.795 {
		t.Errorf("Expected best cost 0.795, got %v", tracker.BestCost())
	}
	if len(tracker.History()) != 5 {
		t.Errorf("Expected 5 history entries, got %d", len(tracker.History()))
	}
}

func TestConvergenceTrackerZeroCost(t *testing.T) {
	tracker := NewConvergenceTracker(DefaultConvergenceConfig())
	if !tracker.Update(0) {
		t.Error("A perfect first round should count as converged")
	}
}

func TestConvergenceTrackerDisabled(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: false, Patience: 1})
	for i := 0; i < 10; i++ {
		if tracker.Update(1.0) {
			t.Fatal("Disabled tracker should never converge")
		}
	}
	if tracker.BestCost() != 1.0 {
		t.Errorf("Expected best cost 1.0, got %v", tracker.BestCost())
	}

	tracker.Reset()
	if len(tracker.History()) != 0 || tracker.StaleCount() != 0 {
		t.Error("Expected Reset to clear history and stale count")
	}
}
