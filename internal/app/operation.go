package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation tracks a single CLI command or server run. Its ID tags every
// log line written while it is in progress.
type Operation struct {
	ID      string
	Name    string
	Started time.Time
	Status  string // "running", "success" or "error"
}

// NewOperation creates a running operation.
func NewOperation(name string, started time.Time) *Operation {
	return &Operation{
		ID:      uuid.New().String()[:8],
		Name:    name,
		Started: started,
		Status:  "running",
	}
}

// Finish records the outcome of the operation.
func (op *Operation) Finish(err error) {
	if err != nil {
		op.Status = "error"
		return
	}
	op.Status = "success"
}

// Finished returns true once Finish was called.
func (op *Operation) Finished() bool {
	return op.Status != "running"
}
