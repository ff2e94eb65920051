package parser

import (
	"fmt"
	"io"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// SongParser decodes raw song metadata documents
type SongParser struct{}

// NewSongParser creates a new song metadata parser
func NewSongParser() *SongParser {
	return &SongParser{}
}

// Parse decodes every song document in r. Records that fail validation are returned as
// *domain.RecordError values; the error result is only set when r cannot be read.
func (p *SongParser) Parse(r io.Reader, source string) ([]domain.SongRecord, []error, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	var (
		records []domain.SongRecord
		rejects []error
	)
	decodeDocuments(data, func(index int, doc map[string]interface{}, err error) {
		if err != nil {
			rejects = append(rejects, &domain.RecordError{Source: source, Index: index, Err: err})
			return
		}
		record, field := songFromDocument(doc)
		if field != "" {
			rejects = append(rejects, &domain.RecordError{Source: source, Index: index, Field: field, Err: domain.ErrMissingField})
			return
		}
		records = append(records, record)
	})

	return records, rejects, nil
}

// songFromDocument returns the record or the name of the first missing required field
func songFromDocument(doc map[string]interface{}) (domain.SongRecord, string) {
	for _, field := range []string{"song_id", "title", "artist_id"} {
		if getStringField(doc, field) == "" {
			return domain.SongRecord{}, field
		}
	}

	year, _ := getInt64Field(doc, "year")
	duration, _ := getFloatField(doc, "duration")

	return domain.SongRecord{
		SongID:          getStringField(doc, "song_id"),
		Title:           getStringField(doc, "title"),
		ArtistID:        getStringField(doc, "artist_id"),
		ArtistName:      getStringField(doc, "artist_name"),
		ArtistLocation:  getStringField(doc, "artist_location"),
		ArtistLatitude:  getOptionalFloatField(doc, "artist_latitude"),
		ArtistLongitude: getOptionalFloatField(doc, "artist_longitude"),
		Year:            int(year),
		Duration:        duration,
	}, ""
}
