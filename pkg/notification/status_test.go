package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from    notification.Status
		to      notification.Status
		allowed bool
	}{
		{notification.StatusPending, notification.StatusSent, true},
		{notification.StatusPending, notification.StatusDelivered, true},
		{notification.StatusPending, notification.StatusRead, true},
		{notification.StatusPending, notification.StatusFailed, true},
		{notification.StatusPending, notification.StatusCancelled, true},
		{notification.StatusSent, notification.StatusDelivered, true},
		{notification.StatusSent, notification.StatusRead, true},
		{notification.StatusDelivered, notification.StatusRead, true},
		{notification.StatusFailed, notification.StatusPending, true},
		{notification.StatusCancelled, notification.StatusPending, true},

		// The lifecycle never moves backwards.
		{notification.StatusSent, notification.StatusPending, false},
		{notification.StatusDelivered, notification.StatusSent, false},
		{notification.StatusRead, notification.StatusPending, false},
		{notification.StatusRead, notification.StatusCancelled, false},
		{notification.StatusSent, notification.StatusCancelled, false},
		{notification.StatusDelivered, notification.StatusCancelled, false},
		{notification.StatusFailed, notification.StatusSent, false},
		{notification.StatusCancelled, notification.StatusRead, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.allowed, notification.CanTransition(tt.from, tt.to))
		})
	}
}
