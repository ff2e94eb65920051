package pipeline

import (
	"errors"
	"time"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// Input names used in reports
const (
	InputSongs = "song_data"
	InputLogs  = "log_data"
)

// InputStats summarizes one raw input collection
type InputStats struct {
	Name       string         `json:"name"`
	Files      int            `json:"files"`
	Records    int            `json:"records"`
	Skipped    int            `json:"skipped"`
	Empty      bool           `json:"empty"`
	Rejections map[string]int `json:"rejections,omitempty"`
}

// TableStats summarizes one derived table
type TableStats struct {
	Name          string   `json:"name"`
	Rows          int      `json:"rows"`
	Skipped       int      `json:"skipped"`
	PartitionKeys []string `json:"partition_keys,omitempty"`
}

// Report describes a completed run
type Report struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Inputs     []InputStats `json:"inputs"`
	Tables     []TableStats `json:"tables"`
	Sinks      []string     `json:"sinks"`
}

// Duration returns the wall time of the run
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Table returns the stats of the named table
func (r *Report) Table(name string) (TableStats, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableStats{}, false
}

// Input returns the stats of the named input
func (r *Report) Input(name string) (InputStats, bool) {
	for _, in := range r.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return InputStats{}, false
}

// rejectionReason maps a record error to its report bucket
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		return "missing_field"
	case errors.Is(err, domain.ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, domain.ErrMalformedRecord):
		return "malformed_record"
	default:
		return "other"
	}
}

// tableStats builds the per-table section of the report.
// Song-derived tables inherit the song rejections, log-derived tables the log rejections.
func tableStats(schema *domain.StarSchema, songs, logs InputStats) []TableStats {
	stats := make([]TableStats, 0, 5)
	for _, ds := range schema.Datasets() {
		skipped := logs.Skipped
		if ds.TableName() == domain.TableSongs || ds.TableName() == domain.TableArtists {
			skipped = songs.Skipped
		}
		stats = append(stats, TableStats{
			Name:          ds.TableName(),
			Rows:          ds.Len(),
			Skipped:       skipped,
			PartitionKeys: ds.Partitioning(),
		})
	}
	return stats
}
