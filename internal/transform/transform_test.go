package transform

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// sequenceKeys is a deterministic KeyGenerator for tests
type sequenceKeys struct {
	next int64
}

func (s *sequenceKeys) Next() int64 {
	s.next++
	return s.next
}

func float(v float64) *float64 { return &v }

func play(userID string, ts int64, level string) domain.LogEvent {
	return domain.LogEvent{
		Page:      domain.PageNextSong,
		UserID:    userID,
		FirstName: "First" + userID,
		LastName:  "Last" + userID,
		Gender:    "F",
		Level:     level,
		SessionID: 100,
		Location:  "Phoenix-Mesa-Scottsdale, AZ",
		UserAgent: "Mozilla/5.0",
		Timestamp: ts,
	}
}

func testSongRecords() []domain.SongRecord {
	return []domain.SongRecord{
		{SongID: "SOUPIRU12A6D4FA1E1", Title: "Der Kleine Dompfaff", ArtistID: "ARJIE2Y1187B994AB7", ArtistName: "Line Renaud", Year: 0, Duration: 152.92036},
		{SongID: "SOUPIRU12A6D4FA1E1", Title: "Der Kleine Dompfaff", ArtistID: "ARJIE2Y1187B994AB7", ArtistName: "Line Renaud", Year: 0, Duration: 152.92036},
		{SongID: "SOZCTXZ12AB0182364", Title: "Setanta matins", ArtistID: "AR5KOSW1187FB35FF4", ArtistName: "Elena", ArtistLocation: "Dubai UAE", ArtistLatitude: float(49.80388), ArtistLongitude: float(15.47491), Year: 0, Duration: 269.58322},
		{SongID: "SOBLFFE12AF72AA5BA", Title: "Scream", ArtistID: "ARJNIUY12298900C91", ArtistName: "Adelitas Way", Year: 2009, Duration: 213.9424},
	}
}

func TestDistinct_KeepsFirstOccurrence(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, Distinct([]int{3, 1, 3, 2, 1}))
	assert.Empty(t, Distinct([]string{}))
}

func TestReduceByKey_ReplacesByOrder(t *testing.T) {
	type pair struct {
		key   string
		value int
	}
	rows := []pair{{"a", 1}, {"b", 5}, {"a", 3}, {"b", 2}}

	out := ReduceByKey(rows,
		func(p pair) string { return p.key },
		func(current, candidate pair) bool { return candidate.value > current.value },
	)

	assert.Equal(t, []pair{{"a", 3}, {"b", 5}}, out)
}

func TestBuildSongs_CollapsesIdenticalRecords(t *testing.T) {
	songs := BuildSongs(testSongRecords())

	require.Len(t, songs, 3)
	assert.Equal(t, "SOBLFFE12AF72AA5BA", songs[0].SongID)
	assert.Equal(t, "SOUPIRU12A6D4FA1E1", songs[1].SongID)
	assert.Equal(t, "SOZCTXZ12AB0182364", songs[2].SongID)
	assert.Equal(t, 2009, songs[0].Year)
}

func TestBuildSongs_KeepsConflictingSongIDs(t *testing.T) {
	records := []domain.SongRecord{
		{SongID: "S1", Title: "Title", ArtistID: "A1", Year: 2001},
		{SongID: "S1", Title: "Title", ArtistID: "A1", Year: 2002},
	}

	songs := BuildSongs(records)

	require.Len(t, songs, 2)
	assert.Equal(t, 2001, songs[0].Year)
	assert.Equal(t, 2002, songs[1].Year)
}

func TestBuildSongs_EmptyInput(t *testing.T) {
	assert.Empty(t, BuildSongs(nil))
	assert.Empty(t, BuildArtists(nil))
}

func TestBuildArtists_OneRowPerArtist(t *testing.T) {
	records := append(testSongRecords(),
		domain.SongRecord{SongID: "S9", Title: "Other", ArtistID: "AR5KOSW1187FB35FF4", ArtistName: "Elena", ArtistLocation: "Dubai UAE"},
	)

	artists := BuildArtists(records)

	require.Len(t, artists, 3)
	ids := map[string]bool{}
	for _, a := range artists {
		assert.False(t, ids[a.ArtistID], "duplicate artist_id %s", a.ArtistID)
		ids[a.ArtistID] = true
	}

	// Null coordinates order first, so the conflicting row without coordinates wins
	assert.Equal(t, "AR5KOSW1187FB35FF4", artists[0].ArtistID)
	assert.Equal(t, "Elena", artists[0].Name)
	assert.Nil(t, artists[0].Latitude)
}

func TestBuildArtists_IndependentOfInputOrder(t *testing.T) {
	records := []domain.SongRecord{
		{SongID: "S1", ArtistID: "A1", ArtistName: "Zed", ArtistLatitude: float(1)},
		{SongID: "S2", ArtistID: "A1", ArtistName: "Amy", ArtistLatitude: float(2)},
		{SongID: "S3", ArtistID: "A2", ArtistName: "Bob"},
	}
	reversed := []domain.SongRecord{records[2], records[1], records[0]}

	assert.Equal(t, BuildArtists(records), BuildArtists(reversed))
	assert.Equal(t, "Amy", BuildArtists(records)[0].Name)
}

func TestFilterSongPlays_DropsOtherPages(t *testing.T) {
	events := []domain.LogEvent{
		play("1", 1000, "free"),
		{Page: "Login", UserID: "2", Timestamp: 1500},
		{Page: "Home", UserID: "3", Timestamp: 1600},
		play("4", 2000, "paid"),
	}

	plays := FilterSongPlays(events)

	require.Len(t, plays, 2)
	assert.Equal(t, "1", plays[0].UserID)
	assert.Equal(t, "4", plays[1].UserID)
}

func TestBuildUsers_LatestLevelWins(t *testing.T) {
	events := []domain.LogEvent{play("U1", 2000, "paid"), play("U1", 1000, "free")}

	users := BuildUsers(events)

	require.Len(t, users, 1)
	assert.Equal(t, "U1", users[0].UserID)
	assert.Equal(t, "paid", users[0].Level)

	users = BuildUsers([]domain.LogEvent{events[1], events[0]})
	require.Len(t, users, 1)
	assert.Equal(t, "paid", users[0].Level)
}

func TestBuildUsers_DowngradeIsKept(t *testing.T) {
	users := BuildUsers([]domain.LogEvent{play("U1", 1000, "paid"), play("U1", 3000, "free"), play("U2", 500, "free")})

	require.Len(t, users, 2)
	assert.Equal(t, "free", users[0].Level)
	assert.Equal(t, "U2", users[1].UserID)
}

func TestBuildUsers_TimestampTieIsDeterministic(t *testing.T) {
	a := play("U1", 1000, "free")
	b := play("U1", 1000, "paid")

	assert.Equal(t, BuildUsers([]domain.LogEvent{a, b}), BuildUsers([]domain.LogEvent{b, a}))
	assert.Equal(t, "paid", BuildUsers([]domain.LogEvent{a, b})[0].Level)
}

func TestDecomposeTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want domain.TimeRow
	}{
		{
			name: "thursday evening",
			ms:   1541106106796,
			want: domain.TimeRow{Timestamp: 1541106106796, Hour: 21, Day: 1, Week: 44, Month: 11, Year: 2018, Weekday: 4},
		},
		{
			name: "sunday maps to seven",
			ms:   1541332800000,
			want: domain.TimeRow{Timestamp: 1541332800000, Hour: 12, Day: 4, Week: 44, Month: 11, Year: 2018, Weekday: 7},
		},
		{
			name: "iso week of next year",
			ms:   1546300799000,
			want: domain.TimeRow{Timestamp: 1546300799000, Hour: 23, Day: 31, Week: 1, Month: 12, Year: 2018, Weekday: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecomposeTimestamp(tt.ms))
		})
	}
}

func TestBuildTime_OneRowPerTimestamp(t *testing.T) {
	plays := []domain.LogEvent{play("1", 2000, "free"), play("2", 1000, "free"), play("3", 2000, "paid")}

	rows := BuildTime(plays)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(1000), rows[0].Timestamp)
	assert.Equal(t, int64(2000), rows[1].Timestamp)
	assert.Equal(t, 1970, rows[0].Year)
	assert.Equal(t, 1, rows[0].Month)
}

func TestBuildSongplays_MatchesSongAndArtist(t *testing.T) {
	records := testSongRecords()

	matched := play("8", 1541106106796, "free")
	matched.Song, matched.Artist = "Scream", "Adelitas Way"
	caseMismatch := play("9", 1541106132796, "paid")
	caseMismatch.Song, caseMismatch.Artist = "scream", "Adelitas Way"

	plays := []domain.LogEvent{matched, caseMismatch}
	result := BuildSongplays(plays, records, BuildTime(plays), &sequenceKeys{})

	require.Len(t, result, 2)
	require.NotNil(t, result[0].SongID)
	require.NotNil(t, result[0].ArtistID)
	assert.Equal(t, "SOBLFFE12AF72AA5BA", *result[0].SongID)
	assert.Equal(t, "ARJNIUY12298900C91", *result[0].ArtistID)
	require.NotNil(t, result[0].Month)
	require.NotNil(t, result[0].Year)
	assert.Equal(t, 11, *result[0].Month)
	assert.Equal(t, 2018, *result[0].Year)
	assert.Equal(t, int64(1), result[0].SongplayID)

	assert.Nil(t, result[1].SongID)
	assert.Nil(t, result[1].ArtistID)
	assert.Equal(t, "9", result[1].UserID)
	assert.Equal(t, int64(2), result[1].SongplayID)
}

func TestBuildSongplays_UnmatchedSongKeepsRow(t *testing.T) {
	p := play("1", 1000, "free")
	p.Song, p.Artist = "No Such Song", "Nobody"

	result := BuildSongplays([]domain.LogEvent{p}, nil, BuildTime([]domain.LogEvent{p}), &sequenceKeys{})

	require.Len(t, result, 1)
	assert.Nil(t, result[0].SongID)
	assert.Nil(t, result[0].ArtistID)
	assert.Equal(t, "Phoenix-Mesa-Scottsdale, AZ", result[0].Location)
}

func TestBuildSongplays_MissingTimeRowLeavesNulls(t *testing.T) {
	result := BuildSongplays([]domain.LogEvent{play("1", 1000, "free")}, nil, nil, &sequenceKeys{})

	require.Len(t, result, 1)
	assert.Nil(t, result[0].Month)
	assert.Nil(t, result[0].Year)
	assert.Equal(t, []string{domain.NullPartition, domain.NullPartition}, result[0].PartitionValues())
}

func TestBuildSongplays_AmbiguousMatchPicksSmallestSongID(t *testing.T) {
	records := []domain.SongRecord{
		{SongID: "S2", Title: "Intro", ArtistID: "A1", ArtistName: "Band"},
		{SongID: "S1", Title: "Intro", ArtistID: "A1", ArtistName: "Band"},
	}
	p := play("1", 1000, "free")
	p.Song, p.Artist = "Intro", "Band"

	result := BuildSongplays([]domain.LogEvent{p}, records, nil, &sequenceKeys{})

	require.Len(t, result, 1)
	require.NotNil(t, result[0].SongID)
	assert.Equal(t, "S1", *result[0].SongID)
}

func TestBuildSongplays_MatchesEveryArtistNameSpelling(t *testing.T) {
	records := []domain.SongRecord{
		{SongID: "S1", Title: "Intro", ArtistID: "A1", ArtistName: "The Band"},
		{SongID: "S2", Title: "Outro", ArtistID: "A1", ArtistName: "Band, The"},
	}
	artists := BuildArtists(records)
	require.Len(t, artists, 1)

	first := play("1", 1000, "free")
	first.Song, first.Artist = "Intro", "The Band"
	second := play("1", 2000, "free")
	second.Song, second.Artist = "Outro", "Band, The"

	result := BuildSongplays([]domain.LogEvent{first, second}, records, nil, &sequenceKeys{})

	require.Len(t, result, 2)
	for i, want := range []string{"S1", "S2"} {
		require.NotNil(t, result[i].SongID)
		assert.Equal(t, want, *result[i].SongID)
		require.NotNil(t, result[i].ArtistID)
		assert.Equal(t, artists[0].ArtistID, *result[i].ArtistID)
	}
}

func TestBuildSongplays_CollapsesIdenticalEvents(t *testing.T) {
	p := play("1", 1000, "free")
	other := play("1", 1000, "free")
	other.SessionID = 101

	result := BuildSongplays([]domain.LogEvent{p, p, other}, nil, nil, &sequenceKeys{})

	assert.Len(t, result, 2)
}

func TestBuildSongplays_UniqueSurrogateKeys(t *testing.T) {
	keys, err := NewSnowflakeKeys(1)
	require.NoError(t, err)

	var plays []domain.LogEvent
	for i := 0; i < 500; i++ {
		plays = append(plays, play("U", int64(1000+i), "free"))
	}

	result := BuildSongplays(plays, nil, BuildTime(plays), keys)

	require.Len(t, result, 500)
	seen := make(map[int64]bool, len(result))
	for _, r := range result {
		assert.False(t, seen[r.SongplayID], "duplicate songplay_id %d", r.SongplayID)
		seen[r.SongplayID] = true
	}
}

func TestBuilders_LoginEventContributesNothing(t *testing.T) {
	events := []domain.LogEvent{{Page: "Login", UserID: "7", Timestamp: 1000, Level: "free"}}

	plays := FilterSongPlays(events)

	assert.Empty(t, BuildUsers(plays))
	assert.Empty(t, BuildTime(plays))
	assert.Empty(t, BuildSongplays(plays, nil, nil, &sequenceKeys{}))
}

func TestBuilders_IndependentOfInputOrder(t *testing.T) {
	records := testSongRecords()
	var events []domain.LogEvent
	for i := 0; i < 50; i++ {
		e := play(string(rune('A'+i%7)), int64(1541106106796+i*997), []string{"free", "paid"}[i%2])
		if i%3 == 0 {
			e.Song, e.Artist = "Scream", "Adelitas Way"
		}
		events = append(events, e)
	}

	run := func(songRecords []domain.SongRecord, logEvents []domain.LogEvent) *domain.StarSchema {
		songs, artists := BuildSongs(songRecords), BuildArtists(songRecords)
		plays := FilterSongPlays(logEvents)
		times := BuildTime(plays)
		return domain.NewStarSchema(songs, artists, BuildUsers(plays), times,
			BuildSongplays(plays, songRecords, times, &sequenceKeys{}))
	}

	want := run(records, events)

	rng := rand.New(rand.NewSource(42))
	shuffledRecords := append([]domain.SongRecord(nil), records...)
	shuffledEvents := append([]domain.LogEvent(nil), events...)
	rng.Shuffle(len(shuffledRecords), func(i, j int) { shuffledRecords[i], shuffledRecords[j] = shuffledRecords[j], shuffledRecords[i] })
	rng.Shuffle(len(shuffledEvents), func(i, j int) { shuffledEvents[i], shuffledEvents[j] = shuffledEvents[j], shuffledEvents[i] })

	got := run(shuffledRecords, shuffledEvents)

	assert.Equal(t, want, got)
	assert.Len(t, got.Songplays.Rows, 50)
	assert.Len(t, got.Users.Rows, 7)
}

func TestNewSnowflakeKeys_InvalidNode(t *testing.T) {
	_, err := NewSnowflakeKeys(-1)
	assert.Error(t, err)
}
