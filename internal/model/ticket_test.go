package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TicketStatus
		wantErr bool
	}{
		{name: "active", input: "active", want: TicketStatusActive},
		{name: "used", input: "used", want: TicketStatusUsed},
		{name: "cancelled", input: "cancelled", want: TicketStatusCancelled},
		{name: "unknown value", input: "expired", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "wrong case", input: "Active", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTicketStatus(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTicketStatusTerminal(t *testing.T) {
	assert.False(t, TicketStatusActive.Terminal())
	assert.True(t, TicketStatusUsed.Terminal())
	assert.True(t, TicketStatusCancelled.Terminal())
}
