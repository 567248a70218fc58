package core

import (
	"github.com/google/uuid"
)

// AnalysisID identifies a single analysis request
type AnalysisID string

// NewAnalysisID creates a time-ordered identifier (UUID v7, v4 fallback)
func NewAnalysisID() AnalysisID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return AnalysisID(id.String())
}

// String returns the string representation
func (id AnalysisID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id AnalysisID) IsEmpty() bool {
	return id == ""
}
