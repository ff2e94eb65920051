package transform

import (
	"cmp"
	"slices"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// FilterSongPlays keeps only song play events
func FilterSongPlays(events []domain.LogEvent) []domain.LogEvent {
	plays := make([]domain.LogEvent, 0, len(events))
	for _, e := range events {
		if e.IsSongPlay() {
			plays = append(plays, e)
		}
	}
	return plays
}

// BuildUsers returns one row per user taken from that user's latest song play, so level
// reflects the most recent subscription state. Events at the same timestamp resolve to the
// largest projected row.
func BuildUsers(plays []domain.LogEvent) []domain.User {
	latest := ReduceByKey(plays,
		func(e domain.LogEvent) string { return e.UserID },
		func(current, candidate domain.LogEvent) bool {
			if candidate.Timestamp != current.Timestamp {
				return candidate.Timestamp > current.Timestamp
			}
			return compareUsers(userFromEvent(candidate), userFromEvent(current)) > 0
		},
	)

	users := make([]domain.User, 0, len(latest))
	for _, e := range latest {
		users = append(users, userFromEvent(e))
	}
	slices.SortFunc(users, func(a, b domain.User) int { return cmp.Compare(a.UserID, b.UserID) })
	return users
}

func userFromEvent(e domain.LogEvent) domain.User {
	return domain.User{
		UserID:    e.UserID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Gender:    e.Gender,
		Level:     e.Level,
	}
}

func compareUsers(a, b domain.User) int {
	return cmp.Or(
		cmp.Compare(a.UserID, b.UserID),
		cmp.Compare(a.Level, b.Level),
		cmp.Compare(a.FirstName, b.FirstName),
		cmp.Compare(a.LastName, b.LastName),
		cmp.Compare(a.Gender, b.Gender),
	)
}
