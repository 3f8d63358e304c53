package outbox

import (
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	appoutbox "rentdesk/internal/app/outbox"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	ContentType = "application/cloudevents+json"
	specVersion = "1.0"
)

// CloudEvent is the structured-mode envelope put on the wire.
type CloudEvent struct {
	SpecVersion     string              `json:"specversion"`
	ID              string              `json:"id"`
	Type            string              `json:"type"`
	Source          string              `json:"source"`
	Subject         string              `json:"subject,omitempty"`
	Time            time.Time           `json:"time"`
	DataContentType string              `json:"datacontenttype"`
	Data            jsoniter.RawMessage `json:"data"`
	TraceParent     string              `json:"traceparent,omitempty"`
}

// Wrap envelopes rec. The record id becomes the event id so consumers can de-duplicate
// redeliveries.
func Wrap(rec appoutbox.EventRecord, source string) ([]byte, error) {
	if !json.Valid(rec.Payload) {
		return nil, fmt.Errorf("outbox: event %s has a non-JSON payload", rec.ID)
	}
	ev := CloudEvent{
		SpecVersion:     specVersion,
		ID:              rec.ID,
		Type:            rec.Name + ".v1",
		Source:          source,
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt.UTC(),
		DataContentType: "application/json",
		Data:            rec.Payload,
		TraceParent:     rec.Headers["traceparent"],
	}
	return json.Marshal(ev)
}

// Unwrap restores the record carried by an envelope produced by Wrap.
func Unwrap(raw []byte) (appoutbox.EventRecord, error) {
	var ev CloudEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return appoutbox.EventRecord{}, fmt.Errorf("outbox: decode cloudevent: %w", err)
	}
	if ev.ID == "" || ev.Type == "" {
		return appoutbox.EventRecord{}, fmt.Errorf("outbox: cloudevent misses id or type")
	}
	name := strings.TrimSuffix(ev.Type, ".v1")
	headers := map[string]string{}
	if ev.TraceParent != "" {
		headers["traceparent"] = ev.TraceParent
	}
	return appoutbox.EventRecord{
		ID:         ev.ID,
		Name:       name,
		Payload:    []byte(ev.Data),
		OccurredAt: ev.Time,
		Aggregate:  ev.Subject,
		Headers:    headers,
	}, nil
}
