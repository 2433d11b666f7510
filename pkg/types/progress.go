// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status is a worker's position in its run lifecycle.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// ProgressState maps worker name to its current status.
type ProgressState map[string]Status

// Count returns how many workers are in status s.
func (p ProgressState) Count(s Status) int {
	n := 0
	for _, st := range p {
		if st == s {
			n++
		}
	}
	return n
}

// Done reports whether every worker has reached a terminal status.
func (p ProgressState) Done() bool {
	for _, st := range p {
		if !st.Terminal() {
			return false
		}
	}
	return true
}
