// Package common holds small helpers shared across the processing packages.
package common

import (
	"fmt"
	"time"
)

// Phase measures the wall-clock time of a named pipeline stage.
type Phase struct {
	name  string
	start time.Time
}

// StartPhase begins timing a stage.
func StartPhase(name string) Phase {
	return Phase{name: name, start: time.Now()}
}

// Record stores the elapsed time under the phase name and returns it.
// A nil map is allowed, the duration is then only returned.
func (p Phase) Record(into map[string]time.Duration) time.Duration {
	d := time.Since(p.start)
	if into != nil {
		into[p.name] = d
	}
	return d
}

// Name returns the phase name.
func (p Phase) Name() string {
	return p.name
}

// String formats the phase with its elapsed time so far.
func (p Phase) String() string {
	return fmt.Sprintf("%s: %v", p.name, time.Since(p.start))
}
