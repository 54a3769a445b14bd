package realtime

import "encoding/json"

// ChangeType - тип мутации строки в канале изменений.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Binding - один логический поток внутри канала: таблица + серверный фильтр.
// Фильтр имеет вид "<column>=eq.<value>", пустая строка - без фильтра.
type Binding struct {
	Event  string
	Schema string
	Table  string
	Filter string
}

// ChangeEvent - событие об изменении строки, доставленное подписке.
type ChangeEvent struct {
	Type   ChangeType
	Schema string
	Table  string
	Record map[string]interface{}
	Old    map[string]interface{}
}

// Протокольные события канала.
const (
	eventJoin      = "phx_join"
	eventLeave     = "phx_leave"
	eventReply     = "phx_reply"
	eventError     = "phx_error"
	eventClose     = "phx_close"
	eventHeartbeat = "heartbeat"
	eventChanges   = "postgres_changes"

	heartbeatTopic = "phoenix"
)

// wireMessage - конверт протокола поверх websocket.
type wireMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

type joinPayload struct {
	Config joinConfig `json:"config"`
}

type joinConfig struct {
	PostgresChanges []postgresChange `json:"postgres_changes"`
}

type postgresChange struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type replyPayload struct {
	Status string `json:"status"`
}

type changesPayload struct {
	Data changeData `json:"data"`
}

type changeData struct {
	Type      string                 `json:"type"`
	Schema    string                 `json:"schema"`
	Table     string                 `json:"table"`
	Record    map[string]interface{} `json:"record"`
	OldRecord map[string]interface{} `json:"old_record"`
}

func (d changeData) toEvent() ChangeEvent {
	return ChangeEvent{
		Type:   ChangeType(d.Type),
		Schema: d.Schema,
		Table:  d.Table,
		Record: d.Record,
		Old:    d.OldRecord,
	}
}

func newBindingConfig(bindings []Binding) joinPayload {
	changes := make([]postgresChange, 0, len(bindings))
	for _, b := range bindings {
		event := b.Event
		if event == "" {
			event = "*"
		}
		schema := b.Schema
		if schema == "" {
			schema = "public"
		}
		changes = append(changes, postgresChange{
			Event:  event,
			Schema: schema,
			Table:  b.Table,
			Filter: b.Filter,
		})
	}
	return joinPayload{Config: joinConfig{PostgresChanges: changes}}
}
