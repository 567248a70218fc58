package core

import (
	"errors"
	"testing"
)

// TestNewAnalysisIDUniqueness tests that NewAnalysisID generates unique identifiers
func TestNewAnalysisIDUniqueness(t *testing.T) {
	const numIDs = 2000

	ids := make(map[AnalysisID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewAnalysisID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestAnalysisIDString(t *testing.T) {
	id := AnalysisID("run-7")
	if id.String() != "run-7" {
		t.Errorf("Expected String() to return 'run-7', got '%s'", id.String())
	}
	if !AnalysisID("").IsEmpty() {
		t.Error("Expected empty ID to report IsEmpty")
	}
}

func TestInputErrorClassification(t *testing.T) {
	cases := []error{
		NewUnknownTermError("A*C"),
		NewUnknownVariableError("score"),
		NewNoLevelsError("group"),
		NewNoValidDataError("score"),
		ErrUnknownContrast,
	}
	for _, err := range cases {
		if !IsInputError(err) {
			t.Errorf("expected %v to be an input error", err)
		}
	}
	if !errors.Is(NewUnknownTermError("A"), ErrNotFound) {
		t.Error("unknown term should wrap ErrNotFound")
	}
	if IsInputError(errors.New("boom")) {
		t.Error("plain error misclassified as input error")
	}
}
