package data

import (
	"fmt"
	"slices"
	"strings"
)

type LeaseStatus string

const (
	DraftLeaseStatus           LeaseStatus = "DRAFT"
	PendingApprovalLeaseStatus LeaseStatus = "PENDING_APPROVAL"
	ActiveLeaseStatus          LeaseStatus = "ACTIVE"
	RenewedLeaseStatus         LeaseStatus = "RENEWED"
	ExpiredLeaseStatus         LeaseStatus = "EXPIRED"
	TerminatedLeaseStatus      LeaseStatus = "TERMINATED"
	SuspendedLeaseStatus       LeaseStatus = "SUSPENDED"
)

// OccupyingLeaseStatuses are the statuses whose date ranges may not overlap on the same unit.
var OccupyingLeaseStatuses = []LeaseStatus{ActiveLeaseStatus, PendingApprovalLeaseStatus}

func LeaseStatuses() []LeaseStatus {
	return []LeaseStatus{
		DraftLeaseStatus,
		PendingApprovalLeaseStatus,
		ActiveLeaseStatus,
		RenewedLeaseStatus,
		ExpiredLeaseStatus,
		TerminatedLeaseStatus,
		SuspendedLeaseStatus,
	}
}

// LeaseStateMachineWithInitialState returns the lease lifecycle state machine positioned at initialState.
func LeaseStateMachineWithInitialState(initialState LeaseStatus) *StateMachine {
	transitions := []StateTransition{
		{From: DraftLeaseStatus.State(), To: PendingApprovalLeaseStatus.State()},  // submitted for approval
		{From: DraftLeaseStatus.State(), To: ActiveLeaseStatus.State()},           // activated
		{From: PendingApprovalLeaseStatus.State(), To: ActiveLeaseStatus.State()}, // approved and activated
		{From: ActiveLeaseStatus.State(), To: RenewedLeaseStatus.State()},         // superseded by a successor
		{From: ActiveLeaseStatus.State(), To: TerminatedLeaseStatus.State()},      // ended early
	}
	// administrative paths
	for _, from := range []LeaseStatus{DraftLeaseStatus, PendingApprovalLeaseStatus, ActiveLeaseStatus} {
		transitions = append(transitions,
			StateTransition{From: from.State(), To: ExpiredLeaseStatus.State()},
			StateTransition{From: from.State(), To: SuspendedLeaseStatus.State()},
		)
	}

	return NewStateMachine(initialState.State(), transitions)
}

// TransitionTo checks that the lease lifecycle allows moving from status to targetStatus.
func (status LeaseStatus) TransitionTo(targetStatus LeaseStatus) error {
	return LeaseStateMachineWithInitialState(status).TransitionTo(targetStatus.State())
}

// SourceStatuses returns the statuses a lease can be in to transition to status.
func (status LeaseStatus) SourceStatuses() []LeaseStatus {
	stateMachine := LeaseStateMachineWithInitialState(DraftLeaseStatus)
	fromStates := []LeaseStatus{}
	for _, fromState := range LeaseStatuses() {
		if stateMachine.Transitions[fromState.State()][status.State()] {
			fromStates = append(fromStates, fromState)
		}
	}
	return fromStates
}

func (status LeaseStatus) IsTerminal() bool {
	return slices.Contains([]LeaseStatus{RenewedLeaseStatus, TerminatedLeaseStatus, ExpiredLeaseStatus}, status)
}

func (status LeaseStatus) Validate() error {
	if slices.Contains(LeaseStatuses(), LeaseStatus(strings.ToUpper(string(status)))) {
		return nil
	}
	return fmt.Errorf("invalid lease status: %s", status)
}

func ToLeaseStatus(s string) (LeaseStatus, error) {
	if err := LeaseStatus(s).Validate(); err != nil {
		return "", err
	}
	return LeaseStatus(strings.ToUpper(s)), nil
}

func (status LeaseStatus) State() State {
	return State(status)
}
