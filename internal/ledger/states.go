// internal/ledger/states.go
package ledger

import "fmt"

type ProductState string

const (
	StateManufactured ProductState = "manufactured"
	StateInTransit    ProductState = "in_transit"
	StateWarehoused   ProductState = "warehoused"
	StateDelivered    ProductState = "delivered"
	StateSold         ProductState = "sold"
	StateRecalled     ProductState = "recalled"
)

func (s ProductState) Valid() bool {
	switch s {
	case StateManufactured, StateInTransit, StateWarehoused, StateDelivered, StateSold, StateRecalled:
		return true
	}
	return false
}

// TransitionValidator decides whether a state write is acceptable. Deployments
// that want forward-only travel can swap in StrictTransitions without touching
// the component contracts.
type TransitionValidator interface {
	Validate(from, to ProductState) error
}

// PermissiveTransitions accepts every write between valid states. This is the
// default: any authorized handler may set any valid state value.
type PermissiveTransitions struct{}

func (PermissiveTransitions) Validate(from, to ProductState) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidInput, to)
	}
	return nil
}

// StrictTransitions enforces the forward-only lifecycle
// manufactured -> in_transit -> warehoused -> delivered -> sold, with recalled
// reachable from any non-sold, non-recalled state.
type StrictTransitions struct{}

var forwardOrder = map[ProductState]int{
	StateManufactured: 0,
	StateInTransit:    1,
	StateWarehoused:   2,
	StateDelivered:    3,
	StateSold:         4,
}

func (StrictTransitions) Validate(from, to ProductState) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidInput, to)
	}
	if from == StateRecalled {
		return fmt.Errorf("%w: product is recalled", ErrInvalidInput)
	}
	if to == StateRecalled {
		if from == StateSold {
			return fmt.Errorf("%w: sold products cannot be recalled", ErrInvalidInput)
		}
		return nil
	}
	if forwardOrder[to] < forwardOrder[from] {
		return fmt.Errorf("%w: cannot move state backwards from %q to %q", ErrInvalidInput, from, to)
	}
	return nil
}
