package server

// ControlEvent is a typed operator command. Events are produced by the
// console (or any other operator surface) and consumed by the server's single
// control loop, so no listener registration is needed.
type ControlEvent interface {
	controlEvent()
}

// StartEvent opens the server for incoming clients.
type StartEvent struct{}

// ShutdownEvent force-closes every session and stops accepting clients.
type ShutdownEvent struct{}

// SetClientLimitEvent replaces the global concurrent-client limit.
type SetClientLimitEvent struct {
	Limit int
}

func (StartEvent) controlEvent()          {}
func (ShutdownEvent) controlEvent()       {}
func (SetClientLimitEvent) controlEvent() {}
