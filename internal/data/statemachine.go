package data

import (
	"errors"
	"fmt"
)

type State string

type StateTransition struct {
	From State
	To   State
}

// ErrInvalidStateTransition is matched by errors.Is on every *InvalidTransitionError.
var ErrInvalidStateTransition = errors.New("invalid state transition")

type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

type StateMachine struct {
	CurrentState State
	Transitions  map[State]map[State]bool
}

func NewStateMachine(initialState State, transitions []StateTransition) *StateMachine {
	sm := &StateMachine{
		CurrentState: initialState,
		Transitions:  make(map[State]map[State]bool, len(transitions)),
	}

	for _, t := range transitions {
		if sm.Transitions[t.From] == nil {
			sm.Transitions[t.From] = make(map[State]bool)
		}
		sm.Transitions[t.From][t.To] = true
	}

	return sm
}

func (sm *StateMachine) CanTransitionTo(targetState State) bool {
	return sm.Transitions[sm.CurrentState][targetState]
}

// TransitionTo moves the machine to targetState, or returns an *InvalidTransitionError leaving it unchanged.
func (sm *StateMachine) TransitionTo(targetState State) error {
	if !sm.CanTransitionTo(targetState) {
		return &InvalidTransitionError{From: sm.CurrentState, To: targetState}
	}
	sm.CurrentState = targetState
	return nil
}
