package transform

import (
	"cmp"
	"slices"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// BuildSongs projects song records into the songs dimension and removes exact duplicates.
// Two records sharing a song_id with different attributes both survive.
func BuildSongs(records []domain.SongRecord) []domain.Song {
	songs := make([]domain.Song, 0, len(records))
	for _, r := range records {
		songs = append(songs, domain.Song{
			SongID:   r.SongID,
			Title:    r.Title,
			ArtistID: r.ArtistID,
			Year:     r.Year,
			Duration: r.Duration,
		})
	}

	songs = Distinct(songs)
	slices.SortFunc(songs, compareSongs)
	return songs
}

// BuildArtists projects song records into the artists dimension with one row per artist_id.
// Conflicting rows for the same artist_id resolve to the smallest row.
func BuildArtists(records []domain.SongRecord) []domain.Artist {
	artists := make([]domain.Artist, 0, len(records))
	for _, r := range records {
		artists = append(artists, domain.Artist{
			ArtistID:  r.ArtistID,
			Name:      r.ArtistName,
			Location:  r.ArtistLocation,
			Latitude:  r.ArtistLatitude,
			Longitude: r.ArtistLongitude,
		})
	}

	artists = ReduceByKey(artists,
		func(a domain.Artist) string { return a.ArtistID },
		func(current, candidate domain.Artist) bool { return compareArtists(candidate, current) < 0 },
	)
	slices.SortFunc(artists, func(a, b domain.Artist) int { return cmp.Compare(a.ArtistID, b.ArtistID) })
	return artists
}

func compareSongs(a, b domain.Song) int {
	return cmp.Or(
		cmp.Compare(a.SongID, b.SongID),
		cmp.Compare(a.Title, b.Title),
		cmp.Compare(a.ArtistID, b.ArtistID),
		cmp.Compare(a.Year, b.Year),
		cmp.Compare(a.Duration, b.Duration),
	)
}

func compareArtists(a, b domain.Artist) int {
	return cmp.Or(
		cmp.Compare(a.ArtistID, b.ArtistID),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Location, b.Location),
		compareOptional(a.Latitude, b.Latitude),
		compareOptional(a.Longitude, b.Longitude),
	)
}

// compareOptional orders nil before any value
func compareOptional[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}
