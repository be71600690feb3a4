package webhook

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseNotification(t *testing.T) {
	form := url.Values{}
	form.Set("notif", `{
		"event": "invoice.created",
		"relatedtype": "invoice",
		"relatedid": "99",
		"corpid": "1",
		"ownerid": 12,
		"timestamp": "1700000000",
		"extra": {"status": "draft"}
	}`)

	req := httptest.NewRequest("POST", "/webhooks/sellsy", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	event := ParseNotification(req)
	if event == nil {
		t.Fatal("ParseNotification() returned nil for a valid payload")
	}

	if event.EventType != "invoice.created" {
		t.Errorf("EventType = %q, expected %q", event.EventType, "invoice.created")
	}
	if event.RelatedType != "invoice" {
		t.Errorf("RelatedType = %q, expected %q", event.RelatedType, "invoice")
	}
	if int64(event.RelatedID) != 99 {
		t.Errorf("RelatedID = %d, expected 99", event.RelatedID)
	}
	if int64(event.OwnerID) != 12 {
		t.Errorf("OwnerID = %d, expected 12", event.OwnerID)
	}
	if int64(event.Timestamp) != 1700000000 {
		t.Errorf("Timestamp = %d, expected 1700000000", event.Timestamp)
	}

	// The full decoded document stays available for richer event types.
	if event.Payload == nil {
		t.Fatal("Payload should carry the full document")
	}
	extra, _ := event.Payload["extra"].(map[string]any)
	if extra["status"] != "draft" {
		t.Errorf("unexpected payload: %v", event.Payload)
	}
}

func TestParseNotificationMalformed(t *testing.T) {
	tests := []struct {
		name  string
		notif string
	}{
		{"broken json", `{"event": `},
		{"missing field", ""},
		{"not an object", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			if tt.notif != "" {
				form.Set("notif", tt.notif)
			}

			req := httptest.NewRequest("POST", "/webhooks/sellsy", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			if event := ParseNotification(req); event != nil {
				t.Errorf("ParseNotification() = %v, expected nil", event)
			}
		})
	}
}
