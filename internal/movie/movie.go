// Package movie defines the movie record the filter language is evaluated
// against, together with the closed sets of search parameters and genres.
package movie

import (
	"cmp"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is a single movie from the corpus. Records are read-only once
// handed out by a corpus.
type Record struct {
	ID      string          `json:"id"` // IMDb tconst, e.g. "tt0111161"
	Title   string          `json:"title"`
	Year    int64           `json:"year"`
	Runtime int64           `json:"runtime"` // minutes
	Votes   int64           `json:"votes"`
	Rating  decimal.Decimal `json:"rating"`
	Genres  GenreSet        `json:"genres"`
}

// URL returns the IMDb page of the movie.
func (r Record) URL() string {
	return "https://www.imdb.com/title/" + r.ID
}

// Compare compares the field named by p against n and returns -1, 0 or +1.
func (r Record) Compare(p Parameter, n int64) int {
	switch p {
	case Rating:
		return r.Rating.Cmp(decimal.NewFromInt(n))
	case Votes:
		return cmp.Compare(r.Votes, n)
	case Runtime:
		return cmp.Compare(r.Runtime, n)
	case Year:
		return cmp.Compare(r.Year, n)
	default:
		panic("movie: unknown parameter " + p.String())
	}
}

// Parameter is a numeric field a statement may compare against.
type Parameter int

const (
	Rating Parameter = iota
	Votes
	Runtime
	Year
)

var parameterNames = [...]string{
	Rating:  "rating",
	Votes:   "votes",
	Runtime: "runtime",
	Year:    "year",
}

// parameterAliases maps historical names onto their canonical parameter.
var parameterAliases = map[string]Parameter{
	"duration": Runtime,
}

// String returns the canonical statement name of the parameter.
func (p Parameter) String() string {
	if p < 0 || int(p) >= len(parameterNames) {
		return "unknown"
	}
	return parameterNames[p]
}

// Column returns the corpus column holding the parameter.
func (p Parameter) Column() string {
	return p.String()
}

// ParseParameter resolves a statement identifier to a Parameter. Lookup is
// case-sensitive and accepts aliases.
func ParseParameter(name string) (Parameter, bool) {
	for i, n := range parameterNames {
		if n == name {
			return Parameter(i), true
		}
	}
	p, ok := parameterAliases[name]
	return p, ok
}

// ParameterNames returns the canonical parameter names in declaration order.
func ParameterNames() []string {
	return append([]string(nil), parameterNames[:]...)
}

// Genre is one of the fixed IMDb genres.
type Genre uint8

const (
	Action Genre = iota
	Adult
	Adventure
	Animation
	Biography
	Comedy
	Crime
	Documentary
	Drama
	Family
	Fantasy
	FilmNoir
	GameShow
	History
	Horror
	Music
	Musical
	Mystery
	News
	RealityTV
	Romance
	SciFi
	Short
	Sport
	TalkShow
	Thriller
	War
	Western

	numGenres
)

var genreNames = [numGenres]string{
	Action:      "Action",
	Adult:       "Adult",
	Adventure:   "Adventure",
	Animation:   "Animation",
	Biography:   "Biography",
	Comedy:      "Comedy",
	Crime:       "Crime",
	Documentary: "Documentary",
	Drama:       "Drama",
	Family:      "Family",
	Fantasy:     "Fantasy",
	FilmNoir:    "Film-Noir",
	GameShow:    "Game-Show",
	History:     "History",
	Horror:      "Horror",
	Music:       "Music",
	Musical:     "Musical",
	Mystery:     "Mystery",
	News:        "News",
	RealityTV:   "Reality-TV",
	Romance:     "Romance",
	SciFi:       "Sci-Fi",
	Short:       "Short",
	Sport:       "Sport",
	TalkShow:    "Talk-Show",
	Thriller:    "Thriller",
	War:         "War",
	Western:     "Western",
}

// String returns the literal used for the genre in statements and in the
// IMDb datasets.
func (g Genre) String() string {
	if g >= numGenres {
		return "unknown"
	}
	return genreNames[g]
}

// ParseGenre resolves a genre literal. Matching is exact.
func ParseGenre(name string) (Genre, bool) {
	for i, n := range genreNames {
		if n == name {
			return Genre(i), true
		}
	}
	return 0, false
}

// GenreNames returns all genre literals in declaration order.
func GenreNames() []string {
	return append([]string(nil), genreNames[:]...)
}

// GenreSet is an immutable set of genres.
type GenreSet uint32

// NewGenreSet builds a set from the given genres.
func NewGenreSet(genres ...Genre) GenreSet {
	var s GenreSet
	for _, g := range genres {
		s = s.With(g)
	}
	return s
}

// ParseGenreSet parses the comma separated IMDb representation
// ("Action,Comedy"). Unknown names and the "\N" null marker are skipped.
func ParseGenreSet(s string) GenreSet {
	var set GenreSet
	for _, part := range strings.Split(s, ",") {
		if g, ok := ParseGenre(strings.TrimSpace(part)); ok {
			set = set.With(g)
		}
	}
	return set
}

// With returns a copy of the set that also contains g.
func (s GenreSet) With(g Genre) GenreSet {
	if g >= numGenres {
		return s
	}
	return s | 1<<g
}

// Has reports whether g is in the set.
func (s GenreSet) Has(g Genre) bool {
	return g < numGenres && s&(1<<g) != 0
}

// Genres lists the members in declaration order.
func (s GenreSet) Genres() []Genre {
	var out []Genre
	for g := Genre(0); g < numGenres; g++ {
		if s.Has(g) {
			out = append(out, g)
		}
	}
	return out
}

// String returns the comma separated IMDb representation.
func (s GenreSet) String() string {
	genres := s.Genres()
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.String()
	}
	return strings.Join(names, ",")
}

// MarshalText encodes the set in its IMDb form.
func (s GenreSet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes the IMDb form.
func (s *GenreSet) UnmarshalText(text []byte) error {
	*s = ParseGenreSet(string(text))
	return nil
}
