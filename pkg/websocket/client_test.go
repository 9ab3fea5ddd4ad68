package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageEncodesData(t *testing.T) {
	msg, err := NewMessage("select_route", "session-1", map[string]int{"index": 2})
	require.NoError(t, err)

	assert.Equal(t, "select_route", msg.Type)
	assert.Equal(t, "session-1", msg.SessionID)
	assert.JSONEq(t, `{"index":2}`, string(msg.Data))
	assert.False(t, msg.Timestamp.IsZero())

	var payload struct {
		Index int `json:"index"`
	}
	require.NoError(t, msg.Decode(&payload))
	assert.Equal(t, 2, payload.Index)
}

func TestMessageDecodeWithoutData(t *testing.T) {
	msg := &Message{Type: "update"}
	err := msg.Decode(&struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update message has no data")
}

func TestMessageDecodeMalformed(t *testing.T) {
	msg := &Message{Type: "update", Data: json.RawMessage(`[1,2]`)}
	err := msg.Decode(&struct{ Origin string }{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode update payload")
}

func TestMessageMarshalJSON(t *testing.T) {
	msg := &Message{
		Type:      "frame",
		SessionID: "session-1",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Data:      json.RawMessage(`{"visible":true}`),
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "frame", result["type"])
	assert.Equal(t, "session-1", result["session_id"])
	assert.Equal(t, "2024-01-01T12:00:00Z", result["timestamp"])
	assert.Equal(t, true, result["data"].(map[string]interface{})["visible"])
}

func TestMessageUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{name: "with timestamp", json: `{"type":"update","timestamp":"2024-01-01T12:00:00Z","data":{}}`},
		{name: "without timestamp", json: `{"type":"update","data":{}}`},
		{name: "without data", json: `{"type":"reset_selection"}`},
		{name: "invalid timestamp", json: `{"type":"update","timestamp":"yesterday"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg Message
			err := json.Unmarshal([]byte(tt.json), &msg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, msg.Type)
		})
	}
}

func TestClientSendMessageAfterClose(t *testing.T) {
	client := NewClient(context.Background(), "session-1", nil, NewHub())

	assert.True(t, client.SendData("frame", map[string]bool{"visible": false}))
	client.close()
	client.close()

	assert.True(t, client.Closed())
	assert.False(t, client.SendData("frame", nil))
}

func TestUpgraderCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no origin header", allowed: []string{"https://maps.example.com"}, want: true},
		{name: "listed origin", allowed: []string{"https://maps.example.com/"}, origin: "https://maps.example.com", want: true},
		{name: "case insensitive", allowed: []string{"https://Maps.Example.com"}, origin: "https://maps.example.com", want: true},
		{name: "unlisted origin", allowed: []string{"https://maps.example.com"}, origin: "https://evil.example.com", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anything.example.com", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, NewUpgrader(tt.allowed).CheckOrigin(req))
		})
	}
}
