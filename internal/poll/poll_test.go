package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/djinn/internal/movie"
)

type fixedSource int

func (f fixedSource) IntN(n int) int { return int(f) % n }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func candidates() []movie.Record {
	return []movie.Record{{ID: "tt1"}, {ID: "tt2"}, {ID: "tt3"}}
}

func newTestStore(src fixedSource) (*Store, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)}
	return NewStore(10*time.Minute, time.Hour, WithSource(src), WithClock(c.now)), c
}

func TestStore_OpenAndGet(t *testing.T) {
	s, c := newTestStore(0)

	p, err := s.Open("rating > 3", candidates())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, []int{0, 0, 0}, p.Tally)
	assert.Equal(t, c.t.Add(10*time.Minute), p.Deadline)
	assert.False(t, p.Closed)

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "rating > 3", got.Statement)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Open("", nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestStore_VoteMovesVote(t *testing.T) {
	s, _ := newTestStore(0)
	p, err := s.Open("", candidates())
	require.NoError(t, err)

	_, err = s.Vote(p.ID, "alice", 0)
	require.NoError(t, err)
	_, err = s.Vote(p.ID, "bob", 0)
	require.NoError(t, err)
	got, err := s.Vote(p.ID, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, got.Tally)

	_, err = s.Vote(p.ID, "carol", 3)
	assert.ErrorIs(t, err, ErrInvalidCandidate)
	_, err = s.Vote("missing", "carol", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CloseWinner(t *testing.T) {
	s, _ := newTestStore(0)
	p, err := s.Open("", candidates())
	require.NoError(t, err)

	for voter, c := range map[string]int{"a": 1, "b": 1, "c": 0} {
		_, err := s.Vote(p.ID, voter, c)
		require.NoError(t, err)
	}

	closed, changed, err := s.Close(p.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, closed.Winner)
	assert.Equal(t, 1, *closed.Winner)
	m, ok := closed.WinningMovie()
	require.True(t, ok)
	assert.Equal(t, "tt2", m.ID)

	_, err = s.Vote(p.ID, "d", 0)
	assert.ErrorIs(t, err, ErrClosed)

	again, changed, err := s.Close(p.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, *again.Winner)
}

func TestStore_CloseTieBreak(t *testing.T) {
	for pick, want := range []int{0, 2} {
		s, _ := newTestStore(fixedSource(pick))
		p, err := s.Open("", candidates())
		require.NoError(t, err)
		_, err = s.Vote(p.ID, "a", 0)
		require.NoError(t, err)
		_, err = s.Vote(p.ID, "b", 2)
		require.NoError(t, err)

		closed, _, err := s.Close(p.ID)
		require.NoError(t, err)
		assert.Equal(t, want, *closed.Winner)
	}
}

func TestStore_NoVotesPicksAnyCandidate(t *testing.T) {
	s, _ := newTestStore(fixedSource(1))
	p, err := s.Open("", candidates())
	require.NoError(t, err)

	closed, _, err := s.Close(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *closed.Winner)
}

func TestStore_Deadline(t *testing.T) {
	s, c := newTestStore(0)
	p, err := s.Open("", candidates())
	require.NoError(t, err)

	assert.Empty(t, s.Expired())

	c.t = c.t.Add(10 * time.Minute)
	_, err = s.Vote(p.ID, "late", 0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, []string{p.ID}, s.Expired())

	_, _, err = s.Close(p.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Expired())
}

func TestStore_SnapshotsAreCopies(t *testing.T) {
	s, _ := newTestStore(0)
	p, err := s.Open("", candidates())
	require.NoError(t, err)

	p.Tally[0] = 99
	p.Candidates[0].ID = "changed"

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Tally[0])
	assert.Equal(t, "tt1", got.Candidates[0].ID)
}

func TestWinner(t *testing.T) {
	assert.Equal(t, 2, winner([]int{1, 0, 5, 3}, fixedSource(0)))
	assert.Equal(t, 0, winner([]int{4}, fixedSource(0)))
	assert.Equal(t, 3, winner([]int{2, 0, 2, 2}, fixedSource(2)))
}
