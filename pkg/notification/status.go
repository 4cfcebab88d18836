package notification

import "fmt"

// transitions enumerates the legal aggregate status changes. The lifecycle
// only moves forward (pending → sent → delivered → read) with two explicit
// exceptions: cancel while pending, and reschedule back to pending from a
// terminal failure or cancellation.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusSent:      true,
		StatusDelivered: true,
		StatusRead:      true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
	StatusSent: {
		StatusDelivered: true,
		StatusRead:      true,
	},
	StatusDelivered: {
		StatusRead: true,
	},
	StatusFailed: {
		StatusPending: true, // reschedule
	},
	StatusCancelled: {
		StatusPending: true, // reschedule
	},
}

// CanTransition reports whether the aggregate status may move from one state
// to another.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

func (n *Notification) transition(to Status) error {
	if !CanTransition(n.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Status, to)
	}
	n.Status = to
	return nil
}
