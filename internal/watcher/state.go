// Package watcher runs the polling loop: it searches on a fixed interval,
// keeps only same-day uploads that match the term and were never reported
// before, and hands them to an Observer.
package watcher

// LoopState is the lifecycle of the polling loop:
// Idle → Running → StopRequested → Idle.
type LoopState int32

const (
	Idle LoopState = iota
	Running
	StopRequested
)

func (s LoopState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case StopRequested:
		return "stopping"
	}
	return "unknown"
}
