package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "confirmed", "completed", "cancelled", "no_show"} {
		got, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), got)
	}

	for _, invalid := range []string{"", "Pending", "noshow", "expired", "done"} {
		_, err := ParseStatus(invalid)
		assert.ErrorIs(t, err, ErrUnknownStatus, "input %q", invalid)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr error
	}{
		{name: "pending to confirmed", from: StatusPending, to: StatusConfirmed},
		{name: "pending to completed", from: StatusPending, to: StatusCompleted},
		{name: "pending to cancelled", from: StatusPending, to: StatusCancelled},
		{name: "pending to no_show", from: StatusPending, to: StatusNoShow},
		{name: "confirmed to completed", from: StatusConfirmed, to: StatusCompleted},
		{name: "confirmed to cancelled", from: StatusConfirmed, to: StatusCancelled},
		{name: "confirmed back to pending", from: StatusConfirmed, to: StatusPending},
		{name: "completed admits nothing", from: StatusCompleted, to: StatusConfirmed, wantErr: ErrTerminalState},
		{name: "completed to cancelled blocked", from: StatusCompleted, to: StatusCancelled, wantErr: ErrTerminalState},
		{name: "no_show admits nothing", from: StatusNoShow, to: StatusConfirmed, wantErr: ErrTerminalState},
		{name: "cancelled again", from: StatusCancelled, to: StatusCancelled, wantErr: ErrAlreadyCancelled},
		{name: "cancelled to anything else", from: StatusCancelled, to: StatusConfirmed, wantErr: ErrTerminalState},
		{name: "unknown target", from: StatusPending, to: Status("archived"), wantErr: ErrUnknownStatus},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.to)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, got)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusNoShow.IsTerminal())
}

func TestCountsTowardConflicts(t *testing.T) {
	assert.True(t, StatusPending.CountsTowardConflicts())
	assert.True(t, StatusConfirmed.CountsTowardConflicts())
	assert.False(t, StatusCompleted.CountsTowardConflicts())
	assert.False(t, StatusCancelled.CountsTowardConflicts())
	assert.False(t, StatusNoShow.CountsTowardConflicts())
}

func TestCanEditTimes(t *testing.T) {
	assert.True(t, CanEditTimes(StatusPending))
	assert.True(t, CanEditTimes(StatusConfirmed))
	assert.True(t, CanEditTimes(StatusNoShow))
	assert.False(t, CanEditTimes(StatusCompleted))
	assert.False(t, CanEditTimes(StatusCancelled))
}

func TestAppendCancelReason(t *testing.T) {
	t.Run("no existing notes", func(t *testing.T) {
		got := AppendCancelReason(nil, "patient requested")
		require.NotNil(t, got)
		assert.Equal(t, "[CANCELLED]: patient requested", *got)
	})

	t.Run("appends below existing notes", func(t *testing.T) {
		notes := "first session"
		got := AppendCancelReason(&notes, "weather")
		require.NotNil(t, got)
		assert.Equal(t, "first session\n[CANCELLED]: weather", *got)
	})

	t.Run("empty reason leaves notes untouched", func(t *testing.T) {
		notes := "keep me"
		got := AppendCancelReason(&notes, "")
		require.NotNil(t, got)
		assert.Equal(t, "keep me", *got)

		assert.Nil(t, AppendCancelReason(nil, ""))
	})
}
