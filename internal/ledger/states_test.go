// internal/ledger/states_test.go
package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissiveTransitions(t *testing.T) {
	v := PermissiveTransitions{}

	// Any valid target state is accepted, including backwards movement and
	// leaving the recalled state.
	assert.NoError(t, v.Validate(StateManufactured, StateSold))
	assert.NoError(t, v.Validate(StateSold, StateManufactured))
	assert.NoError(t, v.Validate(StateRecalled, StateInTransit))
	assert.NoError(t, v.Validate(StateDelivered, StateRecalled))

	err := v.Validate(StateManufactured, ProductState("teleported"))
	assert.True(t, IsInvalidInput(err))
}

func TestStrictTransitions(t *testing.T) {
	v := StrictTransitions{}

	tests := []struct {
		name    string
		from    ProductState
		to      ProductState
		wantErr bool
	}{
		{"forward step", StateManufactured, StateInTransit, false},
		{"forward skip", StateManufactured, StateDelivered, false},
		{"same state", StateWarehoused, StateWarehoused, false},
		{"backwards", StateDelivered, StateInTransit, true},
		{"recall from transit", StateInTransit, StateRecalled, false},
		{"recall after sale", StateSold, StateRecalled, true},
		{"leave recalled", StateRecalled, StateWarehoused, true},
		{"unknown target", StateManufactured, ProductState("teleported"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.from, tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsInvalidInput(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProductStateValid(t *testing.T) {
	for _, s := range []ProductState{
		StateManufactured, StateInTransit, StateWarehoused,
		StateDelivered, StateSold, StateRecalled,
	} {
		assert.True(t, s.Valid())
	}
	assert.False(t, ProductState("teleported").Valid())
	assert.False(t, ProductState("").Valid())
}
