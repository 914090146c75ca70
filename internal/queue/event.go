// Package queue defines the domain events exchanged over the message broker
// together with their publisher and the activity-log consumer.
package queue

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Routing keys of the events published on the exchange.
const (
	EventUserRegistered = "user.registered"
	EventUserDeleted    = "user.deleted"
	EventAuthLogout     = "auth.logout"
	EventPlantCreated   = "plant.created"
	EventDiaryCreated   = "diary.created"
	EventImageUploaded  = "image.uploaded"
)

// Event is the payload of every message. ResourceID identifies the plant,
// diary or image the event is about; it is empty for account events.
type Event struct {
	Type       string            `json:"type"`
	UserID     string            `json:"user_id"`
	ResourceID string            `json:"resource_id,omitempty"`
	OccurredAt string            `json:"occurred_at"`
	Attrs      map[string]string `json:"attrs,omitempty"`
}

func NewEvent(typ, userID, resourceID string, at time.Time) Event {
	return Event{Type: typ, UserID: userID, ResourceID: resourceID, OccurredAt: at.UTC().Format(time.RFC3339)}
}

// With returns a copy of e with an extra attribute.
func (e Event) With(key, value string) Event {
	attrs := make(map[string]string, len(e.Attrs)+1)
	for k, v := range e.Attrs {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attrs = attrs
	return e
}

// LogLine renders e as one line of the activity log.
func (e Event) LogLine() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | user_id=%s", e.OccurredAt, e.Type, e.UserID)
	if e.ResourceID != "" {
		fmt.Fprintf(&b, " | resource_id=%s", e.ResourceID)
	}
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " | %s=%q", k, e.Attrs[k])
	}
	b.WriteByte('\n')
	return b.String()
}
