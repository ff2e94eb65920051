package domain

// PageNextSong is the page value that marks a log event as a song play
const PageNextSong = "NextSong"

// SongRecord represents one raw song metadata document
type SongRecord struct {
	SongID          string
	Title           string
	ArtistID        string
	ArtistName      string
	ArtistLocation  string
	ArtistLatitude  *float64
	ArtistLongitude *float64
	Year            int
	Duration        float64
}

// LogEvent represents one raw user activity event
type LogEvent struct {
	Page      string
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string
	Song      string
	Artist    string
	SessionID int64
	Location  string
	UserAgent string
	// Timestamp is milliseconds since the Unix epoch
	Timestamp int64
}

// IsSongPlay reports whether the event is a song play
func (e LogEvent) IsSongPlay() bool {
	return e.Page == PageNextSong
}
