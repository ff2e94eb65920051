package consumer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrIgnoredMessage is returned for well-formed messages that must not start a run
var ErrIgnoredMessage = errors.New("message does not concern raw input")

// Trigger sources
const (
	TriggerSourceS3     = "s3"
	TriggerSourceManual = "manual"
)

// Trigger is a request to rebuild the star schema
type Trigger struct {
	Source string
	Reason string
	Keys   []string
}

// s3Notification is the body S3 publishes for bucket events
type s3Notification struct {
	Event   string `json:"Event"`
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
	Reason string `json:"reason"`
}

// JSONTriggerParser implements MessageParser for S3 event notifications and manual trigger messages
type JSONTriggerParser struct {
	prefixes []string
}

// NewJSONTriggerParser creates a parser that only accepts object keys under the given prefixes
func NewJSONTriggerParser(prefixes ...string) *JSONTriggerParser {
	return &JSONTriggerParser{prefixes: prefixes}
}

// Parse parses a JSON message body into a Trigger
func (p *JSONTriggerParser) Parse(body []byte) (*Trigger, error) {
	var msg s3Notification
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if msg.Event == "s3:TestEvent" {
		return nil, ErrIgnoredMessage
	}

	if len(msg.Records) == 0 {
		if msg.Reason == "" {
			return nil, fmt.Errorf("message has neither records nor reason")
		}
		return &Trigger{Source: TriggerSourceManual, Reason: msg.Reason}, nil
	}

	trigger := &Trigger{Source: TriggerSourceS3}
	for _, record := range msg.Records {
		if !strings.HasPrefix(record.EventName, "ObjectCreated:") && !strings.HasPrefix(record.EventName, "ObjectRemoved:") {
			continue
		}
		// S3 URL-encodes object keys in notifications
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			key = record.S3.Object.Key
		}
		if p.relevant(key) {
			trigger.Keys = append(trigger.Keys, key)
		}
	}

	if len(trigger.Keys) == 0 {
		return nil, ErrIgnoredMessage
	}
	trigger.Reason = msg.Records[0].EventName
	return trigger, nil
}

func (p *JSONTriggerParser) relevant(key string) bool {
	if !strings.HasSuffix(strings.ToLower(key), ".json") {
		return false
	}
	if len(p.prefixes) == 0 {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
