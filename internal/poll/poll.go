// Package poll runs votes over a handful of candidate movies. Each voter
// holds one vote; closing a poll picks the candidate with the most votes and
// breaks ties at random.
package poll

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/matthewbaird/djinn/internal/movie"
	"github.com/matthewbaird/djinn/internal/sample"
)

var (
	ErrNotFound         = errors.New("poll not found")
	ErrClosed           = errors.New("poll is closed")
	ErrNoCandidates     = errors.New("poll needs at least one candidate")
	ErrInvalidCandidate = errors.New("no such candidate")
)

// Poll is a snapshot of a poll. Values returned by the Store are copies.
type Poll struct {
	ID         string         `json:"id"`
	Statement  string         `json:"statement,omitempty"`
	Candidates []movie.Record `json:"candidates"`
	Tally      []int          `json:"tally"`
	CreatedAt  time.Time      `json:"created_at"`
	Deadline   time.Time      `json:"deadline"`
	Closed     bool           `json:"closed"`

	// Winner is the index of the winning candidate once the poll is closed.
	Winner *int `json:"winner,omitempty"`

	votes map[string]int
}

// WinningMovie returns the winning candidate of a closed poll.
func (p *Poll) WinningMovie() (movie.Record, bool) {
	if p.Winner == nil {
		return movie.Record{}, false
	}
	return p.Candidates[*p.Winner], true
}

func (p *Poll) clone() *Poll {
	c := *p
	c.Candidates = append([]movie.Record(nil), p.Candidates...)
	c.Tally = append([]int(nil), p.Tally...)
	if p.Winner != nil {
		w := *p.Winner
		c.Winner = &w
	}
	c.votes = nil
	return &c
}

// Store keeps polls in memory. Polls are dropped once their retention
// expires, whether or not they were closed.
type Store struct {
	mu        sync.Mutex
	cache     *gocache.Cache
	duration  time.Duration
	retention time.Duration
	src       sample.Source
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithSource sets the random source used to break ties.
func WithSource(src sample.Source) Option {
	return func(s *Store) { s.src = src }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store whose polls accept votes for duration and are
// kept for retention after opening.
func NewStore(duration, retention time.Duration, opts ...Option) *Store {
	if retention < duration {
		retention = duration
	}
	s := &Store{
		cache:     gocache.New(retention, retention/2),
		duration:  duration,
		retention: retention,
		src:       sample.DefaultSource(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a poll over candidates.
func (s *Store) Open(statement string, candidates []movie.Record) (*Poll, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	now := s.now()
	p := &Poll{
		ID:         uuid.New().String(),
		Statement:  statement,
		Candidates: append([]movie.Record(nil), candidates...),
		Tally:      make([]int, len(candidates)),
		CreatedAt:  now,
		Deadline:   now.Add(s.duration),
		votes:      make(map[string]int),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(p.ID, p, s.retention)
	return p.clone(), nil
}

// Get returns the poll with the given ID.
func (s *Store) Get(id string) (*Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return p.clone(), nil
}

// Vote records voter's vote for the candidate at index. A second vote by
// the same voter moves their vote.
func (s *Store) Vote(id, voter string, candidate int) (*Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if p.Closed || !s.now().Before(p.Deadline) {
		return nil, ErrClosed
	}
	if candidate < 0 || candidate >= len(p.Candidates) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCandidate, candidate)
	}

	if prev, ok := p.votes[voter]; ok {
		p.Tally[prev]--
	}
	p.votes[voter] = candidate
	p.Tally[candidate]++
	return p.clone(), nil
}

// Close counts the votes and picks the winner. Closing a closed poll
// returns it unchanged; closed reports whether this call closed it.
func (s *Store) Close(id string) (p *Poll, closed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err = s.lookup(id)
	if err != nil {
		return nil, false, err
	}
	if p.Closed {
		return p.clone(), false, nil
	}
	w := winner(p.Tally, s.src)
	p.Winner = &w
	p.Closed = true
	return p.clone(), true, nil
}

// Expired returns the IDs of open polls past their deadline.
func (s *Store) Expired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var ids []string
	for id, item := range s.cache.Items() {
		p := item.Object.(*Poll)
		if !p.Closed && !now.Before(p.Deadline) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) lookup(id string) (*Poll, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v.(*Poll), nil
}

// winner returns the index with the highest tally, choosing uniformly
// among ties.
func winner(tally []int, src sample.Source) int {
	best := 0
	var tied []int
	for i, n := range tally {
		switch {
		case len(tied) == 0 || n > best:
			best = n
			tied = append(tied[:0], i)
		case n == best:
			tied = append(tied, i)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	return tied[src.IntN(len(tied))]
}
