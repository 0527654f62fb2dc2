package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"event":"join","data":{"roomId":"r1","userName":"alice"}}`))
	require.NoError(t, err)
	require.Equal(t, EventJoin, f.Event)

	var p JoinPayload
	require.NoError(t, json.Unmarshal(f.Data, &p))
	require.Equal(t, "r1", p.RoomID)
	require.Equal(t, "alice", p.UserName)
}

func TestDecodeFrameMissingEvent(t *testing.T) {
	_, err := DecodeFrame([]byte(`{"data":{}}`))
	require.Error(t, err)
}

func TestDecodeFrameInvalidJSON(t *testing.T) {
	_, err := DecodeFrame([]byte("not json"))
	require.Error(t, err)
}

func TestEncodeFrameRoundTrip(t *testing.T) {
	raw, err := EncodeFrame(EventUserJoined, []string{"alice", "bob"})
	require.NoError(t, err)

	f, err := DecodeFrame(raw)
	require.NoError(t, err)
	require.Equal(t, EventUserJoined, f.Event)

	var names []string
	require.NoError(t, json.Unmarshal(f.Data, &names))
	require.Equal(t, []string{"alice", "bob"}, names)
}
