package workflow

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
)

// Event is one inbound tracker notification. Consumed once, never
// stored.
type Event struct {
	Action string       `mapstructure:"action"`
	Object EventObject  `mapstructure:"object"`
	New    EventPayload `mapstructure:"new"`
}

// EventObject identifies the entity the event is about.
type EventObject struct {
	Type string `mapstructure:"type"`
	ID   int    `mapstructure:"id"`
}

// EventPayload carries the new values of the entity, of which we only
// consume the title.
type EventPayload struct {
	Title string `mapstructure:"title"`
}

// Validate checks the event carries the fields any handler needs.
func (e Event) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Action, validation.Required),
	)
}

// IsProjectCreated reports whether the event means "a project was
// created" in the tracker.
func (e Event) IsProjectCreated() bool {
	return (e.Action == "post" || e.Action == "create") && e.Object.Type == "project"
}

// ParseDelivery decodes a webhook request body into events. A delivery
// is either a single event object or an array of them, and the tracker
// is loose about field types (IDs arrive as numbers or strings), so the
// raw JSON is decoded weakly typed.
func ParseDelivery(body []byte) ([]Event, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid delivery body: %w", err)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("unexpected delivery shape %T", raw)
	}

	events := make([]Event, 0, len(items))
	for i, item := range items {
		var ev Event
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &ev,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(item); err != nil {
			return nil, fmt.Errorf("decoding event %d: %w", i, err)
		}
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("invalid event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
