package parser

import (
	"fmt"
	"io"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// LogParser decodes raw user activity log documents
type LogParser struct{}

// NewLogParser creates a new log event parser
func NewLogParser() *LogParser {
	return &LogParser{}
}

// Parse decodes every log document in r. Only song plays are validated beyond the page field,
// other event types are excluded downstream anyway.
func (p *LogParser) Parse(r io.Reader, source string) ([]domain.LogEvent, []error, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	var (
		events  []domain.LogEvent
		rejects []error
	)
	decodeDocuments(data, func(index int, doc map[string]interface{}, err error) {
		if err != nil {
			rejects = append(rejects, &domain.RecordError{Source: source, Index: index, Err: err})
			return
		}
		event, field, err := logEventFromDocument(doc)
		if err != nil {
			rejects = append(rejects, &domain.RecordError{Source: source, Index: index, Field: field, Err: err})
			return
		}
		events = append(events, event)
	})

	return events, rejects, nil
}

func logEventFromDocument(doc map[string]interface{}) (domain.LogEvent, string, error) {
	event := domain.LogEvent{
		Page:      getStringField(doc, "page"),
		UserID:    getStringField(doc, "userId"),
		FirstName: getStringField(doc, "firstName"),
		LastName:  getStringField(doc, "lastName"),
		Gender:    getStringField(doc, "gender"),
		Level:     getStringField(doc, "level"),
		Song:      getStringField(doc, "song"),
		Artist:    getStringField(doc, "artist"),
		Location:  getStringField(doc, "location"),
		UserAgent: getStringField(doc, "userAgent"),
	}
	event.SessionID, _ = getInt64Field(doc, "sessionId")

	if event.Page == "" {
		return domain.LogEvent{}, "page", domain.ErrMissingField
	}
	if !event.IsSongPlay() {
		event.Timestamp, _ = getInt64Field(doc, "ts")
		return event, "", nil
	}

	if event.UserID == "" {
		return domain.LogEvent{}, "userId", domain.ErrMissingField
	}
	if !hasValue(doc, "ts") {
		return domain.LogEvent{}, "ts", domain.ErrMissingField
	}
	ts, ok := getInt64Field(doc, "ts")
	if !ok {
		return domain.LogEvent{}, "ts", domain.ErrMalformedTimestamp
	}
	event.Timestamp = ts

	return event, "", nil
}
