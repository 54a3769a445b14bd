package alerts

import (
	"time"

	"resto-sync/internal/entities"
)

// Policy - правила показа оповещения для одного приоритета.
// AutoDismiss == 0 означает, что тост не закрывается сам.
type Policy struct {
	AutoDismiss        time.Duration
	PlaySound          bool
	RequireInteraction bool
	Sound              string
}

var policies = map[string]Policy{
	entities.PriorityUrgent: {AutoDismiss: 0, PlaySound: true, RequireInteraction: true, Sound: "alert-urgent"},
	entities.PriorityHigh:   {AutoDismiss: 8 * time.Second, PlaySound: true, Sound: "alert-high"},
	entities.PriorityNormal: {AutoDismiss: 5 * time.Second, PlaySound: true, Sound: "alert-normal"},
	entities.PriorityLow:    {AutoDismiss: 3 * time.Second},
}

// PolicyFor возвращает правила для приоритета.
// Неизвестный или пустой приоритет ведет себя как normal.
func PolicyFor(priority string) Policy {
	if policy, ok := policies[priority]; ok {
		return policy
	}
	return policies[entities.PriorityNormal]
}
