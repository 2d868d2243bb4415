package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannel_Expand(t *testing.T) {
	assert.Equal(t, []Channel{ChannelEmail, ChannelSMS, ChannelPush}, ChannelAll.Expand())
	assert.Equal(t, []Channel{ChannelSMS}, ChannelSMS.Expand())
	assert.Nil(t, Channel("FAX").Expand())
}

func TestReminderStatus_Terminal(t *testing.T) {
	assert.False(t, ReminderPending.Terminal())
	assert.True(t, ReminderSent.Terminal())
	assert.True(t, ReminderCancelled.Terminal())
	assert.True(t, ReminderFailed.Terminal())
}

func TestCapacityError_Unwraps(t *testing.T) {
	var err error = &CapacityError{FlightID: 7, Requested: 2, Available: 0, Contended: true}
	assert.True(t, errors.Is(err, ErrCapacityExhausted))
	assert.Contains(t, err.Error(), "concurrent")

	var capErr *CapacityError
	assert.True(t, errors.As(err, &capErr))
	assert.Equal(t, int64(7), capErr.FlightID)
}

func TestFlight_HasCapacity(t *testing.T) {
	f := Flight{AvailableSeats: 2, IsBookable: true}
	assert.True(t, f.HasCapacity(2))
	assert.False(t, f.HasCapacity(3))
	f.IsBookable = false
	assert.False(t, f.HasCapacity(1))
}
