package approval

import "errors"

// Workflow error taxonomy. All of these are recoverable, user-facing errors:
// they reflect a stale or invalid client action, are returned to the caller
// and never retried automatically.
var (
	// ErrNotAssigned: the authenticated actor has no approver slot on the
	// request.
	ErrNotAssigned = errors.New("approver is not assigned to this request")

	// ErrAlreadyDecided: a decision was attempted against a slot that is no
	// longer Pending (authenticated path).
	ErrAlreadyDecided = errors.New("request already processed by this approver")

	// ErrAlreadyProcessed: the token path found no pending slot left to act
	// on, or the request has moved past manager review. Distinct from
	// ErrInvalidToken so replayed links get a clear answer.
	ErrAlreadyProcessed = errors.New("request already processed")

	// ErrInvalidToken: the presented token does not match the stored one.
	ErrInvalidToken = errors.New("invalid or expired approval token")

	// ErrNotReady: HR attempted a final decision while the request is not
	// ManagerApproved.
	ErrNotReady = errors.New("request is not awaiting HR decision")

	// ErrSettlementFailure: ledger postings could not be committed; the HR
	// decision rolls back with them.
	ErrSettlementFailure = errors.New("settlement could not be committed")
)
