package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangesPayload_Decode(t *testing.T) {
	raw := `{
		"data": {
			"type": "INSERT",
			"schema": "public",
			"table": "user_notifications",
			"record": {"id": 51, "user_id": 7, "notification_id": 101},
			"old_record": null
		}
	}`

	var payload changesPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	event := payload.Data.toEvent()
	assert.Equal(t, ChangeInsert, event.Type)
	assert.Equal(t, "public", event.Schema)
	assert.Equal(t, "user_notifications", event.Table)
	assert.Equal(t, float64(51), event.Record["id"])
	assert.Nil(t, event.Old)
}

func TestNewBindingConfig_Defaults(t *testing.T) {
	payload := newBindingConfig([]Binding{
		{Table: "table_sessions", Filter: "restaurant_id=eq.3"},
		{Event: "INSERT", Schema: "audit", Table: "order_items"},
	})

	changes := payload.Config.PostgresChanges
	require.Len(t, changes, 2)

	assert.Equal(t, "*", changes[0].Event)
	assert.Equal(t, "public", changes[0].Schema)
	assert.Equal(t, "restaurant_id=eq.3", changes[0].Filter)

	assert.Equal(t, "INSERT", changes[1].Event)
	assert.Equal(t, "audit", changes[1].Schema)
}

func TestNewBindingConfig_FilterOmittedFromWire(t *testing.T) {
	payload := newBindingConfig([]Binding{{Table: "order_items"}})

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "filter")
}

func TestWireMessage_RoundTrip(t *testing.T) {
	raw := `{"topic":"realtime:sessions:3:7:ab12cd34","event":"phx_reply","payload":{"status":"ok"},"ref":"1"}`

	var msg wireMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, "realtime:sessions:3:7:ab12cd34", msg.Topic)
	assert.Equal(t, eventReply, msg.Event)

	var reply replyPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &reply))
	assert.Equal(t, "ok", reply.Status)
}
