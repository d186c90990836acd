package approval

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slot(idx int, decision string) Slot {
	id := uuid.New()
	return Slot{Index: idx, ApproverID: &id, ApproverName: "Manager " + string(rune('A'+idx)), Decision: decision}
}

func absentSlot(idx int) Slot {
	return Slot{Index: idx}
}

func TestAggregateRejectionWinsUnconditionally(t *testing.T) {
	cases := []struct {
		name  string
		slots []Slot
	}{
		{"single rejection", []Slot{slot(0, DecisionRejected)}},
		{"rejection among approvals", []Slot{slot(0, DecisionApproved), slot(1, DecisionRejected), slot(2, DecisionApproved)}},
		{"rejection with pending", []Slot{slot(0, DecisionPending), slot(1, DecisionRejected)}},
		{"all rejected", []Slot{slot(0, DecisionRejected), slot(1, DecisionRejected), slot(2, DecisionRejected)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := Aggregate(tc.slots)
			assert.Equal(t, StatusRejected, status.Kind)
		})
	}
}

func TestAggregateAllApprovedPromotes(t *testing.T) {
	status := Aggregate([]Slot{slot(0, DecisionApproved), slot(1, DecisionApproved)})
	assert.Equal(t, StatusManagerApproved, status.Kind)
	assert.Equal(t, 2, status.Approved)
	assert.Equal(t, 2, status.Total)
}

func TestAggregatePartialApproval(t *testing.T) {
	status := Aggregate([]Slot{slot(0, DecisionApproved), slot(1, DecisionPending), slot(2, DecisionPending)})
	assert.Equal(t, StatusPartiallyApproved, status.Kind)
	assert.Equal(t, 1, status.Approved)
	assert.Equal(t, 3, status.Total)
}

func TestAggregateNoDecisionsYet(t *testing.T) {
	status := Aggregate([]Slot{slot(0, DecisionPending), slot(1, DecisionPending)})
	assert.Equal(t, StatusAwaitingManagers, status.Kind)
	assert.Equal(t, 0, status.Approved)
	assert.Equal(t, 2, status.Total)
}

func TestAggregateNoAssignedManagers(t *testing.T) {
	// No manager gate at all: the request goes straight to HR review.
	status := Aggregate(nil)
	assert.Equal(t, StatusManagerApproved, status.Kind)
	assert.Equal(t, 0, status.Total)

	status = Aggregate([]Slot{absentSlot(0), absentSlot(1), absentSlot(2)})
	assert.Equal(t, StatusManagerApproved, status.Kind)
	assert.Equal(t, 0, status.Total)
}

func TestAggregateIgnoresAbsentSlots(t *testing.T) {
	status := Aggregate([]Slot{slot(0, DecisionApproved), absentSlot(1), absentSlot(2)})
	assert.Equal(t, StatusManagerApproved, status.Kind)
	assert.Equal(t, 1, status.Total)
}

// The aggregate depends only on the multiset of decisions, never on the
// order the slots are presented in.
func TestAggregateOrderIndependence(t *testing.T) {
	decisions := []string{DecisionApproved, DecisionRejected, DecisionPending}
	perms := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	base := Aggregate([]Slot{slot(0, decisions[0]), slot(1, decisions[1]), slot(2, decisions[2])})
	for _, p := range perms {
		got := Aggregate([]Slot{slot(0, decisions[p[0]]), slot(1, decisions[p[1]]), slot(2, decisions[p[2]])})
		assert.Equal(t, base.Kind, got.Kind, "permutation %v changed the aggregate kind", p)
		assert.Equal(t, base.Approved, got.Approved)
		assert.Equal(t, base.Total, got.Total)
	}
}

func TestStatusDisplay(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{Status{Kind: StatusAwaitingManagers, Total: 2}, "Pending Manager Approval"},
		{Status{Kind: StatusPartiallyApproved, Approved: 1, Total: 3}, "Partially Approved (1/3)"},
		{Status{Kind: StatusPartiallyApproved, Approved: 2, Total: 3}, "Partially Approved (2/3)"},
		{Status{Kind: StatusManagerApproved, Approved: 2, Total: 2}, "Pending HR Approval"},
		{Status{Kind: StatusRejected}, "Rejected"},
		{Status{Kind: StatusHrApproved}, "Approved"},
		{Status{Kind: StatusHrRejected}, "Rejected by HR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.status.Display())
	}
}

func TestStatusKindPredicates(t *testing.T) {
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusHrApproved.Terminal())
	assert.True(t, StatusHrRejected.Terminal())
	assert.False(t, StatusAwaitingManagers.Terminal())
	assert.False(t, StatusManagerApproved.Terminal())

	assert.True(t, StatusAwaitingManagers.AwaitingManagers())
	assert.True(t, StatusPartiallyApproved.AwaitingManagers())
	assert.False(t, StatusManagerApproved.AwaitingManagers())
	assert.False(t, StatusRejected.AwaitingManagers())
}

func TestSlotPredicates(t *testing.T) {
	id := uuid.New()
	now := time.Now()

	present := Slot{Index: 0, ApproverID: &id, ApproverName: "Alice Vu", Decision: DecisionPending}
	assert.True(t, present.Present())
	assert.True(t, present.Pending())
	assert.False(t, present.Decided())

	decided := Slot{Index: 0, ApproverID: &id, ApproverName: "Alice Vu", Decision: DecisionApproved, DecidedAt: &now}
	assert.True(t, decided.Decided())
	assert.False(t, decided.Pending())

	// Both id and name are required for a slot to count
	assert.False(t, Slot{Index: 1, ApproverName: "Ghost"}.Present())
	assert.False(t, Slot{Index: 1, ApproverID: &id}.Present())
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 64) // 32 bytes hex-encoded
	assert.NotEqual(t, a, b)
}

func TestTokenMatches(t *testing.T) {
	token, err := NewToken()
	require.NoError(t, err)
	other, err := NewToken()
	require.NoError(t, err)

	assert.True(t, TokenMatches(token, token))
	assert.False(t, TokenMatches(token, other))
	assert.False(t, TokenMatches(token, ""))
	assert.False(t, TokenMatches("", ""))
}
