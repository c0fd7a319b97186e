package models

// Status is an order's position in the fulfillment ring.
type Status string

const (
	StatusIntake     Status = "intake"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusDone       Status = "done"
)

// Ring lists the statuses in board column order.
var Ring = [4]Status{StatusIntake, StatusInProgress, StatusReady, StatusDone}

// Index returns the ring position. Unknown values land in the intake column.
func (s Status) Index() int {
	for i, st := range Ring {
		if st == s {
			return i
		}
	}
	return 0
}

// Next advances one step, wrapping done back to intake.
func (s Status) Next() Status {
	return Ring[(s.Index()+1)%len(Ring)]
}

// Printable reports whether a shipping label may be printed.
func (s Status) Printable() bool {
	return s == StatusReady || s == StatusDone
}

func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "In progress"
	case StatusReady:
		return "Ready"
	case StatusDone:
		return "Done"
	default:
		return "Intake"
	}
}
