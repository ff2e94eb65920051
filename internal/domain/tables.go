package domain

import "strconv"

// NullPartition is the directory value used when a partition column is null
const NullPartition = "__HIVE_DEFAULT_PARTITION__"

// Song is a row of the songs dimension
type Song struct {
	SongID   string  `parquet:"song_id"`
	Title    string  `parquet:"title"`
	ArtistID string  `parquet:"artist_id"`
	Year     int     `parquet:"year"`
	Duration float64 `parquet:"duration"`
}

func (s Song) PartitionValues() []string {
	return []string{strconv.Itoa(s.Year), s.ArtistID}
}

// Artist is a row of the artists dimension
type Artist struct {
	ArtistID  string   `parquet:"artist_id"`
	Name      string   `parquet:"name"`
	Location  string   `parquet:"location"`
	Latitude  *float64 `parquet:"latitude,optional"`
	Longitude *float64 `parquet:"longitude,optional"`
}

func (a Artist) PartitionValues() []string { return nil }

// User is a row of the users dimension holding the latest known state of a user
type User struct {
	UserID    string `parquet:"user_id"`
	FirstName string `parquet:"first_name"`
	LastName  string `parquet:"last_name"`
	Gender    string `parquet:"gender"`
	Level     string `parquet:"level"`
}

func (u User) PartitionValues() []string { return nil }

// TimeRow is a row of the time dimension. All fields are derived in UTC.
type TimeRow struct {
	Timestamp int64 `parquet:"start_time"`
	Hour      int   `parquet:"hour"`
	Day       int   `parquet:"day"`
	Week      int   `parquet:"week"`
	Month     int   `parquet:"month"`
	Year      int   `parquet:"year"`
	Weekday   int   `parquet:"weekday"`
}

func (t TimeRow) PartitionValues() []string {
	return []string{strconv.Itoa(t.Year), strconv.Itoa(t.Month)}
}

// Songplay is a row of the songplays fact table
type Songplay struct {
	SongplayID int64   `parquet:"songplay_id"`
	Timestamp  int64   `parquet:"start_time"`
	UserID     string  `parquet:"user_id"`
	Level      string  `parquet:"level"`
	SongID     *string `parquet:"song_id,optional"`
	ArtistID   *string `parquet:"artist_id,optional"`
	SessionID  int64   `parquet:"session_id"`
	Location   string  `parquet:"location"`
	UserAgent  string  `parquet:"user_agent"`
	Month      *int    `parquet:"month,optional"`
	Year       *int    `parquet:"year,optional"`
}

func (p Songplay) PartitionValues() []string {
	return []string{optionalInt(p.Year), optionalInt(p.Month)}
}

func optionalInt(v *int) string {
	if v == nil {
		return NullPartition
	}
	return strconv.Itoa(*v)
}
