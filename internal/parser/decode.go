package parser

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// decodeDocuments walks a buffer of concatenated or newline-delimited JSON documents.
// A document that cannot be decoded is reported once and decoding resumes on the next
// line that opens an object, so neither the following records nor the remaining lines
// of a broken pretty-printed document are misread.
func decodeDocuments(data []byte, visit func(index int, doc map[string]interface{}, err error)) {
	index := 0
	for {
		data = bytes.TrimLeft(data, " \t\r\n")
		if len(data) == 0 {
			return
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			visit(index, nil, domain.ErrMalformedRecord)
			index++
			data = nextObjectLine(data)
			continue
		}
		data = data[dec.InputOffset():]

		doc, err := decodeObject(raw)
		visit(index, doc, err)
		index++
	}
}

func decodeObject(raw json.RawMessage) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, domain.ErrMalformedRecord
	}
	return doc, nil
}

// nextObjectLine skips the document that starts at data[0] up to the next line whose
// first non-blank byte opens an object
func nextObjectLine(data []byte) []byte {
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return nil
		}
		data = data[i+1:]
		if line := bytes.TrimLeft(data, " \t\r"); len(line) > 0 && line[0] == '{' {
			return data
		}
	}
}

// Helper functions for extracting fields from decoded documents

func getStringField(m map[string]interface{}, key string) string {
	switch val := m[key].(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	}
	return ""
}

func getInt64Field(m map[string]interface{}, key string) (int64, bool) {
	switch val := m[key].(type) {
	case json.Number:
		return numberToInt64(val.String())
	case string:
		return numberToInt64(strings.TrimSpace(val))
	}
	return 0, false
}

func getFloatField(m map[string]interface{}, key string) (float64, bool) {
	var raw string
	switch val := m[key].(type) {
	case json.Number:
		raw = val.String()
	case string:
		raw = strings.TrimSpace(val)
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func getOptionalFloatField(m map[string]interface{}, key string) *float64 {
	f, ok := getFloatField(m, key)
	if !ok {
		return nil
	}
	return &f
}

func hasValue(m map[string]interface{}, key string) bool {
	val, ok := m[key]
	return ok && val != nil
}

func numberToInt64(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which no int64 can hold
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
