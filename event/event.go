package event

import (
	"time"

	"github.com/spawnq/spawnq/internal/clock"
	"github.com/spawnq/spawnq/internal/idgen"
)

// Kind classifies a scheduler lifecycle notification.
type Kind string

const (
	// ProcessStarted is published right after a process was started.
	ProcessStarted Kind = "process.started"
	// ProcessFinished is published once a process was observed no longer
	// running and its finish hook completed.
	ProcessFinished Kind = "process.finished"
	// ProcessTimeout is published when a timeout check failed during a poll.
	ProcessTimeout Kind = "process.timeout"
)

// Event describes a single process lifecycle transition. Pid is zero when
// the process exited before its identifier could be observed.
type Event struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	Pid        int               `json:"pid,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NewEvent returns an event stamped with a fresh id and the current time.
func NewEvent(kind Kind, pid int, attributes map[string]string) *Event {
	return &Event{
		ID:         idgen.New(),
		Kind:       kind,
		Pid:        pid,
		CreatedAt:  clock.Now(),
		Attributes: attributes,
	}
}
