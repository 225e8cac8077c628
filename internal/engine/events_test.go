package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordwire/internal/ir"
)

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "connect", EventConnect.String())
	assert.Equal(t, "event(99)", EventType(99).String())

	for typ, name := range eventNames {
		got, err := ParseEventType(name)
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := ParseEventType("explode")
	assert.Error(t, err)
}

func TestEvent_JournalRoundTrip(t *testing.T) {
	events := []Event{
		Place(ir.P(1, -2, 3), "Record Player"),
		Break(ir.P(0, 0, 0)),
		Connect(ir.P(0, 0, 0), ir.P(4, 0, 0)),
		Disconnect(ir.P(4, 0, 0), ir.P(0, 0, 0)),
		Unload(ir.P(7, 7, 7)),
		Load(ir.P(7, 7, 7)),
		Save(),
	}

	for _, ev := range events {
		t.Run(ev.Type.String(), func(t *testing.T) {
			got, err := eventFromJournal(ev.Type.String(), ev.args())
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestEventFromJournal_Malformed(t *testing.T) {
	tests := []struct {
		name string
		kind string
		args map[string]any
	}{
		{"unknown kind", "explode", map[string]any{}},
		{"missing pos", "break", map[string]any{}},
		{"bad pos", "break", map[string]any{"pos": "1,2"}},
		{"missing component", "place", map[string]any{"pos": "1,2,3"}},
		{"missing b", "connect", map[string]any{"a": "1,2,3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eventFromJournal(tt.kind, tt.args)
			assert.Error(t, err)
		})
	}
}
