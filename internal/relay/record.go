package relay

import (
	"encoding/json"
	"strconv"
	"time"
)

// Помощники для чтения полей сырого события. Полезная нагрузка события
// используется только для маршрутизации: сами данные всегда
// перечитываются канонической выборкой.

func recordUint64(record map[string]interface{}, key string) uint64 {
	if record == nil {
		return 0
	}
	switch v := record[key].(type) {
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case int64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case json.Number:
		parsed, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func recordBool(record map[string]interface{}, key string) bool {
	if record == nil {
		return false
	}
	v, _ := record[key].(bool)
	return v
}

func recordTime(record map[string]interface{}, key string) time.Time {
	if record != nil {
		if s, ok := record[key].(string); ok {
			for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
				if parsed, err := time.Parse(layout, s); err == nil {
					return parsed
				}
			}
		}
	}
	return time.Now().UTC()
}
