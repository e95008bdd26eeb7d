package workflows

import (
	"fmt"
	"sync"
)

// StateMachine enforces transitions between named states
type StateMachine struct {
	mu                 sync.Mutex
	current            string
	allowedTransitions map[string][]string
}

// NewStateMachine creates a state machine starting at initial with the given transition table
func NewStateMachine(initial string, transitions map[string][]string) *StateMachine {
	allowed := make(map[string][]string, len(transitions))
	for from, to := range transitions {
		allowed[from] = append([]string(nil), to...)
	}
	return &StateMachine{
		current:            initial,
		allowedTransitions: allowed,
	}
}

// Current returns the current state
func (sm *StateMachine) Current() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// CanTransition checks if a transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// Transition moves to the given state if the table allows it
func (sm *StateMachine) Transition(to string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.CanTransition(sm.current, to) {
		return fmt.Errorf("transition %s -> %s not allowed", sm.current, to)
	}
	sm.current = to
	return nil
}

// GetAllowedTransitions returns the allowed next states for a given state
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
