package whatsapp

import (
	"encoding/json"
	"fmt"
)

// Payload is the webhook notification body.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups changes for one business account.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one webhook field update.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value carries messages and the contacts that sent them.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

// Metadata identifies the receiving business number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is a sender profile.
type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Message is one inbound message. Only text is handled.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

// Inbound is a parent's text message ready for the chat flow.
type Inbound struct {
	MessageID string
	From      string
	Name      string
	Text      string
}

// Skipped explains why a message was not turned into an Inbound.
type Skipped struct {
	From   string
	Reason string
}

// ParsePayload decodes a webhook body.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("whatsapp: decode payload: %w", err)
	}
	return &p, nil
}

// TextMessages extracts text messages from "messages" changes. Non-text
// messages are reported in skipped.
func (p *Payload) TextMessages() (inbound []Inbound, skipped []Skipped) {
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range change.Value.Messages {
				if m.Type != "text" || m.Text == nil || m.Text.Body == "" {
					skipped = append(skipped, Skipped{From: m.From, Reason: "non-text message type: " + m.Type})
					continue
				}
				inbound = append(inbound, Inbound{
					MessageID: m.ID,
					From:      m.From,
					Name:      names[m.From],
					Text:      m.Text.Body,
				})
			}
		}
	}
	return inbound, skipped
}
