// Package webhook parses inbound notifications sent by the Sellsy webhook
// system. Sellsy transmits every notification as a JSON document carried in
// a form field named "notif".
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lutece-labs/sellsy-bridge/pkg/sellsy"
)

// Event is a parsed webhook notification. The typed fields cover the common
// envelope Sellsy sends with every notification; Payload keeps the full
// decoded document for event types that carry more.
type Event struct {
	EventType   string         `json:"event"`
	RelatedType string         `json:"relatedtype"`
	RelatedID   sellsy.FlexInt `json:"relatedid"`
	CorpID      sellsy.FlexInt `json:"corpid"`
	OwnerID     sellsy.FlexInt `json:"ownerid"`
	Timestamp   sellsy.FlexInt `json:"timestamp"`

	Payload map[string]any `json:"-"`
}

// ParseNotification extracts and parses the "notif" form field of an
// inbound webhook request. A missing or malformed payload is logged and
// yields nil; no failure ever escapes to the calling HTTP framework.
func ParseNotification(r *http.Request) *Event {
	raw := r.PostFormValue("notif")
	slog.Debug("received sellsy webhook message", "raw", raw)

	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		slog.Warn("unable to parse sellsy webhook message", "error", err)
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		event.Payload = payload
	}

	return &event
}
