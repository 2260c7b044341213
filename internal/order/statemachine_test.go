package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		changed bool
		wantErr bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, true, false},
		{"pending to cancelled", StatusPending, StatusCancelled, true, false},
		{"processing to shipped", StatusProcessing, StatusShipped, true, false},
		{"processing to cancelled", StatusProcessing, StatusCancelled, true, false},
		{"shipped to delivered", StatusShipped, StatusDelivered, true, false},
		{"same state is a no-op", StatusShipped, StatusShipped, false, false},
		{"delivered to processing", StatusDelivered, StatusProcessing, false, true},
		{"cancelled to pending", StatusCancelled, StatusPending, false, true},
		{"shipped to cancelled", StatusShipped, StatusCancelled, false, true},
		{"pending skips to shipped", StatusPending, StatusShipped, false, true},
		{"unknown target", StatusPending, Status("refunded"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed, err := Transition(tt.from, tt.to)

			assert.Equal(t, tt.changed, changed)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalStatusTransition)
				assert.Equal(t, tt.from, next)

				var te *TransitionError
				if assert.True(t, errors.As(err, &te)) {
					assert.Equal(t, tt.from, te.From)
					assert.Equal(t, tt.to, te.To)
				}
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.to, next)
		})
	}
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError{From: StatusDelivered, To: StatusProcessing}
	assert.Equal(t, "illegal status transition: delivered -> processing", err.Error())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusDelivered))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusShipped))
	assert.False(t, IsTerminal(Status("bogus")))
}

func TestNotifies(t *testing.T) {
	assert.True(t, Notifies(StatusShipped))
	assert.True(t, Notifies(StatusDelivered))
	assert.True(t, Notifies(StatusCancelled))
	assert.False(t, Notifies(StatusProcessing))
	assert.False(t, Notifies(StatusPending))
}
