package approval

import "fmt"

// StatusKind enum constants — aggregate request status as stored
type StatusKind string

const (
	StatusAwaitingManagers  StatusKind = "awaiting_managers"
	StatusPartiallyApproved StatusKind = "partially_approved"
	StatusManagerApproved   StatusKind = "manager_approved"
	StatusRejected          StatusKind = "rejected"
	StatusHrApproved        StatusKind = "hr_approved"
	StatusHrRejected        StatusKind = "hr_rejected"
)

// Terminal reports whether no further decision can move the request.
func (k StatusKind) Terminal() bool {
	return k == StatusRejected || k == StatusHrApproved || k == StatusHrRejected
}

// AwaitingManagers reports whether manager decisions are still being
// collected, i.e. the token channel may still act on the request.
func (k StatusKind) AwaitingManagers() bool {
	return k == StatusAwaitingManagers || k == StatusPartiallyApproved
}

// Status is the aggregate status of a request together with the approval
// counts. Counts are informational (display only) and never gate transitions.
type Status struct {
	Kind     StatusKind `json:"kind"`
	Approved int        `json:"approved"`
	Total    int        `json:"total"`
}

// Display renders the status for presentation. Structured counts stay in the
// Status value; only this boundary produces the human-readable form.
func (s Status) Display() string {
	switch s.Kind {
	case StatusAwaitingManagers:
		return "Pending Manager Approval"
	case StatusPartiallyApproved:
		return fmt.Sprintf("Partially Approved (%d/%d)", s.Approved, s.Total)
	case StatusManagerApproved:
		return "Pending HR Approval"
	case StatusRejected:
		return "Rejected"
	case StatusHrApproved:
		return "Approved"
	case StatusHrRejected:
		return "Rejected by HR"
	default:
		return string(s.Kind)
	}
}

// Aggregate computes the aggregate status from the set of approver slots.
// It is a pure function and order-independent: only the multiset of present
// decisions matters, never their arrival sequence.
//
// Rules:
//   - any present Rejected slot wins unconditionally (any manager can veto)
//   - every present slot Approved promotes to ManagerApproved
//   - no present slots at all also yields ManagerApproved: there is no
//     manager gate, but the HR gate still applies downstream
//   - otherwise the request is awaiting or partially approved
func Aggregate(slots []Slot) Status {
	approved, rejected, total := 0, 0, 0
	for _, s := range slots {
		if !s.Present() {
			continue
		}
		total++
		switch s.Decision {
		case DecisionApproved:
			approved++
		case DecisionRejected:
			rejected++
		}
	}

	switch {
	case rejected > 0:
		return Status{Kind: StatusRejected, Approved: approved, Total: total}
	case approved == total:
		// covers total == 0: no assigned managers, straight to HR review
		return Status{Kind: StatusManagerApproved, Approved: approved, Total: total}
	case approved == 0:
		return Status{Kind: StatusAwaitingManagers, Approved: 0, Total: total}
	default:
		return Status{Kind: StatusPartiallyApproved, Approved: approved, Total: total}
	}
}
