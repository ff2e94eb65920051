package transform

import (
	"cmp"
	"slices"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

type songMatchKey struct {
	title      string
	artistName string
}

type songMatch struct {
	songID   string
	artistID string
}

// songplayKey is the comparable business tuple of a fact row
type songplayKey struct {
	timestamp int64
	userID    string
	level     string
	songID    string
	hasSong   bool
	artistID  string
	hasArtist bool
	sessionID int64
	location  string
	userAgent string
	month     int
	year      int
	hasTime   bool
}

// BuildSongplays derives the fact table from song plays. Every play yields at most one row:
// song and artist ids come from an exact, case-sensitive match of (song, artist) against the
// title and artist name of the song records the songs and artists dimensions were built from,
// and stay null without a match; month and year come from the time dimension row with the
// same timestamp. Identical rows collapse before surrogate keys are assigned.
func BuildSongplays(plays []domain.LogEvent, records []domain.SongRecord, times []domain.TimeRow, keys KeyGenerator) []domain.Songplay {
	matches := indexSongMatches(records)

	timeIndex := make(map[int64]domain.TimeRow, len(times))
	for _, row := range times {
		timeIndex[row.Timestamp] = row
	}

	tuples := make([]songplayKey, 0, len(plays))
	for _, e := range plays {
		k := songplayKey{
			timestamp: e.Timestamp,
			userID:    e.UserID,
			level:     e.Level,
			sessionID: e.SessionID,
			location:  e.Location,
			userAgent: e.UserAgent,
		}
		if m, ok := matches[songMatchKey{title: e.Song, artistName: e.Artist}]; ok {
			k.songID, k.hasSong = m.songID, true
			k.artistID, k.hasArtist = m.artistID, true
		}
		if row, ok := timeIndex[e.Timestamp]; ok {
			k.month, k.year, k.hasTime = row.Month, row.Year, true
		}
		tuples = append(tuples, k)
	}

	tuples = Distinct(tuples)
	slices.SortFunc(tuples, compareSongplayKeys)

	out := make([]domain.Songplay, 0, len(tuples))
	for _, k := range tuples {
		out = append(out, k.toSongplay(keys.Next()))
	}
	return out
}

// indexSongMatches maps (title, artist name) to ids. Each record contributes its own artist
// name, so every spelling an artist_id was published under can match. When several records
// share a title and artist name the smallest (song_id, artist_id) pair wins.
func indexSongMatches(records []domain.SongRecord) map[songMatchKey]songMatch {
	matches := make(map[songMatchKey]songMatch, len(records))
	for _, r := range records {
		k := songMatchKey{title: r.Title, artistName: r.ArtistName}
		candidate := songMatch{songID: r.SongID, artistID: r.ArtistID}
		if current, ok := matches[k]; ok && compareMatches(current, candidate) <= 0 {
			continue
		}
		matches[k] = candidate
	}
	return matches
}

func compareMatches(a, b songMatch) int {
	return cmp.Or(cmp.Compare(a.songID, b.songID), cmp.Compare(a.artistID, b.artistID))
}

func compareSongplayKeys(a, b songplayKey) int {
	return cmp.Or(
		cmp.Compare(a.timestamp, b.timestamp),
		cmp.Compare(a.userID, b.userID),
		cmp.Compare(a.sessionID, b.sessionID),
		cmp.Compare(a.level, b.level),
		compareBool(a.hasSong, b.hasSong),
		cmp.Compare(a.songID, b.songID),
		compareBool(a.hasArtist, b.hasArtist),
		cmp.Compare(a.artistID, b.artistID),
		cmp.Compare(a.location, b.location),
		cmp.Compare(a.userAgent, b.userAgent),
		compareBool(a.hasTime, b.hasTime),
		cmp.Compare(a.year, b.year),
		cmp.Compare(a.month, b.month),
	)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func (k songplayKey) toSongplay(id int64) domain.Songplay {
	play := domain.Songplay{
		SongplayID: id,
		Timestamp:  k.timestamp,
		UserID:     k.userID,
		Level:      k.level,
		SessionID:  k.sessionID,
		Location:   k.location,
		UserAgent:  k.userAgent,
	}
	if k.hasSong {
		songID := k.songID
		play.SongID = &songID
	}
	if k.hasArtist {
		artistID := k.artistID
		play.ArtistID = &artistID
	}
	if k.hasTime {
		month, year := k.month, k.year
		play.Month = &month
		play.Year = &year
	}
	return play
}
