// Package service runs statements through the filter pipeline (parse,
// validate, compile, sample) and feeds the results to polls. It is the
// single entry point for the HTTP, websocket and CLI front-ends.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cespare/xxhash/v2"
	servertiming "github.com/mitchellh/go-server-timing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/matthewbaird/djinn/internal/chat"
	"github.com/matthewbaird/djinn/internal/compile"
	"github.com/matthewbaird/djinn/internal/corpus"
	"github.com/matthewbaird/djinn/internal/eventbus"
	"github.com/matthewbaird/djinn/internal/filter"
	"github.com/matthewbaird/djinn/internal/movie"
	"github.com/matthewbaird/djinn/internal/poll"
	"github.com/matthewbaird/djinn/internal/sample"
)

// TracerName is the instrumentation scope of spans and metrics.
const TracerName = "github.com/matthewbaird/djinn"

// Outcome is the result of running one statement.
type Outcome struct {
	// Statement is the canonical form of the input, empty for "any movie".
	Statement   string         `json:"statement"`
	Fingerprint string         `json:"fingerprint"`
	Movies      []movie.Record `json:"movies"`
	Matched     int            `json:"matched"`
	Shortage    bool           `json:"shortage"`
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Limits         chat.Limits
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Source         sample.Source

	// Events receives poll lifecycle events when set.
	Events Publisher
}

// Publisher receives poll lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, evt eventbus.Event)
}

// Service is safe for concurrent use.
type Service struct {
	corpus corpus.Corpus
	polls  *poll.Store
	limits chat.Limits
	logger *slog.Logger
	tracer trace.Tracer

	fetches   metric.Int64Counter
	rejected  metric.Int64Counter
	matches   metric.Int64Histogram
	shortages metric.Int64Counter

	events  Publisher
	sampler *sample.Sampler
}

// New creates a Service drawing from c and opening polls in polls.
func New(c corpus.Corpus, polls *poll.Store, opts Options) *Service {
	if opts.Limits.DefaultCount <= 0 {
		opts.Limits.DefaultCount = 3
	}
	if opts.Limits.MaxCount < opts.Limits.DefaultCount {
		opts.Limits.MaxCount = opts.Limits.DefaultCount
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}

	meter := opts.MeterProvider.Meter(TracerName)
	s := &Service{
		corpus:  c,
		polls:   polls,
		limits:  opts.Limits,
		logger:  opts.Logger,
		tracer:  opts.TracerProvider.Tracer(TracerName),
		events:  opts.Events,
		sampler: sample.New(sample.Locked(opts.Source)),
	}
	// Instrument creation only fails on invalid names.
	s.fetches, _ = meter.Int64Counter("djinn.fetch.count")
	s.rejected, _ = meter.Int64Counter("djinn.fetch.rejected")
	s.matches, _ = meter.Int64Histogram("djinn.fetch.matched")
	s.shortages, _ = meter.Int64Counter("djinn.fetch.shortage")
	return s
}

// Limits returns the count bounds applied to requests.
func (s *Service) Limits() chat.Limits { return s.limits }

// Fetch draws up to count movies matching statement. A count of zero means
// the default count; counts above the maximum are capped. An empty
// statement matches every movie.
func (s *Service) Fetch(ctx context.Context, statement string, count int) (*Outcome, error) {
	if count == 0 {
		count = s.limits.DefaultCount
	}
	count = min(count, s.limits.MaxCount)

	ctx, span := s.tracer.Start(ctx, "djinn.fetch", trace.WithAttributes(
		attribute.Int("djinn.count", count),
	))
	defer span.End()

	out, err := s.fetch(ctx, statement, count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", errorCode(err))))
		s.logger.Warn("fetch rejected",
			"statement", statement,
			"code", errorCode(err),
			"error", err,
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("djinn.fingerprint", out.Fingerprint),
		attribute.Int("djinn.matched", out.Matched),
		attribute.Bool("djinn.shortage", out.Shortage),
	)
	s.fetches.Add(ctx, 1)
	s.matches.Record(ctx, int64(out.Matched))
	if out.Shortage {
		s.shortages.Add(ctx, 1)
	}
	s.logger.Info("fetch",
		"fingerprint", out.Fingerprint,
		"statement", out.Statement,
		"count", count,
		"matched", out.Matched,
		"shortage", out.Shortage,
	)
	return out, nil
}

func (s *Service) fetch(ctx context.Context, statement string, count int) (*Outcome, error) {
	req := sample.Request{Count: count}
	canonical := ""

	if strings.TrimSpace(statement) != "" {
		done := s.stage(ctx, "parse")
		stmt, err := filter.Parse(statement)
		done()
		if err != nil {
			return nil, err
		}

		done = s.stage(ctx, "validate")
		err = filter.Validate(stmt)
		done()
		if err != nil {
			return nil, err
		}

		done = s.stage(ctx, "compile")
		req.Predicate, err = compile.Compile(stmt)
		if err == nil {
			if _, ok := s.corpus.(corpus.Querier); ok {
				req.Query, err = compile.Lower(stmt)
			}
		}
		done()
		if err != nil {
			return nil, err
		}
		canonical = stmt.String()
	}

	done := s.stage(ctx, "sample")
	res, err := s.sampler.Sample(ctx, s.corpus, req)
	done()
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Statement:   canonical,
		Fingerprint: Fingerprint(canonical),
		Movies:      res.Movies,
		Matched:     res.Matched,
		Shortage:    res.Shortage,
	}, nil
}

// stage opens a child span and a Server-Timing metric for one pipeline
// stage. The returned func ends both.
func (s *Service) stage(ctx context.Context, name string) func() {
	_, span := s.tracer.Start(ctx, "djinn."+name)
	var m *servertiming.Metric
	if timing := servertiming.FromContext(ctx); timing != nil {
		m = timing.NewMetric(name).Start()
	}
	return func() {
		if m != nil {
			m.Stop()
		}
		span.End()
	}
}

// Poll draws candidates like Fetch and opens a poll over them.
func (s *Service) Poll(ctx context.Context, statement string, count int) (*poll.Poll, *Outcome, error) {
	out, err := s.Fetch(ctx, statement, count)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.polls.Open(out.Statement, out.Movies)
	if err != nil {
		return nil, out, err
	}
	s.logger.Info("poll opened", "poll", p.ID, "candidates", len(p.Candidates), "deadline", p.Deadline)
	s.publish(ctx, eventbus.PollOpened, p)
	return p, out, nil
}

// GetPoll returns a snapshot of a poll.
func (s *Service) GetPoll(id string) (*poll.Poll, error) {
	return s.polls.Get(id)
}

// Vote records a vote in a poll.
func (s *Service) Vote(ctx context.Context, id, voter string, candidate int) (*poll.Poll, error) {
	p, err := s.polls.Vote(id, voter, candidate)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventbus.PollVoted, p)
	return p, nil
}

// ClosePoll counts the votes of a poll and picks its winner. The closed
// event is published once, by the call that closes the poll.
func (s *Service) ClosePoll(ctx context.Context, id string) (*poll.Poll, error) {
	p, changed, err := s.polls.Close(id)
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}
	if m, ok := p.WinningMovie(); ok {
		s.logger.Info("poll closed", "poll", p.ID, "winner", m.ID, "tally", p.Tally)
	}
	s.publish(ctx, eventbus.PollClosed, p)
	return p, nil
}

// CloseExpired closes every poll past its deadline and returns them.
func (s *Service) CloseExpired(ctx context.Context) []*poll.Poll {
	var closed []*poll.Poll
	for _, id := range s.polls.Expired() {
		p, err := s.ClosePoll(ctx, id)
		if err != nil {
			continue // expired between listing and closing
		}
		closed = append(closed, p)
	}
	return closed
}

func (s *Service) publish(ctx context.Context, kind eventbus.Kind, p *poll.Poll) {
	if s.events != nil {
		s.events.Publish(ctx, eventbus.NewEvent(kind, p))
	}
}

// Reply is the result of a chat command. Outcome is set for fetch and
// poll, Poll only for poll.
type Reply struct {
	Command chat.Command
	Outcome *Outcome
	Poll    *poll.Poll
}

// Handle parses a chat message and runs the command it names.
func (s *Service) Handle(ctx context.Context, text string) (*Reply, error) {
	cmd, err := chat.ParseCommand(text, s.limits)
	if err != nil {
		return nil, err
	}

	reply := &Reply{Command: cmd}
	switch cmd.Op {
	case chat.OpFetch:
		reply.Outcome, err = s.Fetch(ctx, cmd.Statement, cmd.Count)
	case chat.OpPoll:
		reply.Poll, reply.Outcome, err = s.Poll(ctx, cmd.Statement, cmd.Count)
	}
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Complete suggests statement continuations at cursor.
func (s *Service) Complete(text string, cursor int) []filter.CompletionItem {
	return filter.Complete(text, cursor)
}

// Fingerprint identifies a canonical statement in logs and responses.
func Fingerprint(canonical string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(canonical))
}

func errorCode(err error) string {
	if code := filter.Classify(err); code != "" {
		return code
	}
	return "internal"
}
