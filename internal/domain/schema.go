package domain

// Table names of the star schema
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongplays = "songplays"
)

// Row is implemented by every star schema row type
type Row interface {
	Song | Artist | User | TimeRow | Songplay
	PartitionValues() []string
}

// Table is the contract handed to sinks: a named row collection plus its partition keys
type Table[T Row] struct {
	Name          string
	PartitionKeys []string
	Rows          []T
}

// Dataset is the type-erased view of a Table used for reporting
type Dataset interface {
	TableName() string
	Partitioning() []string
	Len() int
}

func (t Table[T]) TableName() string      { return t.Name }
func (t Table[T]) Partitioning() []string { return t.PartitionKeys }
func (t Table[T]) Len() int               { return len(t.Rows) }

// StarSchema holds every derived table of one run
type StarSchema struct {
	Songs     Table[Song]
	Artists   Table[Artist]
	Users     Table[User]
	Time      Table[TimeRow]
	Songplays Table[Songplay]
}

// NewStarSchema wraps the derived rows with their table names and partition keys
func NewStarSchema(songs []Song, artists []Artist, users []User, times []TimeRow, plays []Songplay) *StarSchema {
	return &StarSchema{
		Songs:     Table[Song]{Name: TableSongs, PartitionKeys: []string{"year", "artist_id"}, Rows: songs},
		Artists:   Table[Artist]{Name: TableArtists, Rows: artists},
		Users:     Table[User]{Name: TableUsers, Rows: users},
		Time:      Table[TimeRow]{Name: TableTime, PartitionKeys: []string{"year", "month"}, Rows: times},
		Songplays: Table[Songplay]{Name: TableSongplays, PartitionKeys: []string{"year", "month"}, Rows: plays},
	}
}

// Datasets returns the tables in write order
func (s *StarSchema) Datasets() []Dataset {
	return []Dataset{s.Songs, s.Artists, s.Users, s.Time, s.Songplays}
}
