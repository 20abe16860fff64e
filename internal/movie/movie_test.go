package movie

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenres_ClosedSet(t *testing.T) {
	names := GenreNames()
	require.Len(t, names, 28)
	assert.Equal(t, "Action", names[0])
	assert.Equal(t, "Western", names[len(names)-1])

	for _, n := range names {
		g, ok := ParseGenre(n)
		require.True(t, ok, n)
		assert.Equal(t, n, g.String())
	}
}

func TestParseGenre_CaseSensitive(t *testing.T) {
	_, ok := ParseGenre("comedy")
	assert.False(t, ok)
	_, ok = ParseGenre("SciFi")
	assert.False(t, ok)

	g, ok := ParseGenre("Sci-Fi")
	require.True(t, ok)
	assert.Equal(t, SciFi, g)
}

func TestParseParameter(t *testing.T) {
	tests := []struct {
		in   string
		want Parameter
		ok   bool
	}{
		{"rating", Rating, true},
		{"votes", Votes, true},
		{"runtime", Runtime, true},
		{"year", Year, true},
		{"duration", Runtime, true},
		{"Rating", 0, false},
		{"genres", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseParameter(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGenreSet(t *testing.T) {
	s := ParseGenreSet("Drama,Action,\\N,Unknown")
	assert.True(t, s.Has(Drama))
	assert.True(t, s.Has(Action))
	assert.False(t, s.Has(Comedy))
	assert.Equal(t, "Action,Drama", s.String())

	s2 := s.With(Comedy)
	assert.False(t, s.Has(Comedy), "With must not mutate the receiver")
	assert.True(t, s2.Has(Comedy))

	assert.Equal(t, GenreSet(0), ParseGenreSet(""))
}

func TestGenreSet_JSON(t *testing.T) {
	data, err := json.Marshal(NewGenreSet(Comedy, Romance))
	require.NoError(t, err)
	assert.Equal(t, `"Comedy,Romance"`, string(data))

	var s GenreSet
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, NewGenreSet(Comedy, Romance), s)
}

func TestRecord_Compare(t *testing.T) {
	r := Record{
		Year:    1994,
		Runtime: 142,
		Votes:   2800000,
		Rating:  decimal.RequireFromString("9.3"),
	}

	assert.Equal(t, 1, r.Compare(Rating, 9))
	assert.Equal(t, -1, r.Compare(Rating, 10))
	assert.Equal(t, 0, r.Compare(Year, 1994))
	assert.Equal(t, -1, r.Compare(Runtime, 150))
	assert.Equal(t, 1, r.Compare(Votes, 1000))

	whole := Record{Rating: decimal.RequireFromString("7.0")}
	assert.Equal(t, 0, whole.Compare(Rating, 7))
}
