package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Ingress channel names used for logging and metrics
const (
	ChannelChat = "chat"
	ChannelAPI  = "api"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current local time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service is the single path through which records reach the backing table
type Service struct {
	parser  *Parser
	tables  *TableManager
	timeout time.Duration

	// mu serializes appends so rows land in call order. Reprobe takes it too, so an
	// append never writes through a handle that is being replaced.
	mu sync.Mutex
}

// NewService creates a new Service with the default remote timeout
func NewService(parser *Parser, tables *TableManager) *Service {
	return NewServiceWithDeps(parser, tables, DefaultRemoteTimeout)
}

// NewServiceWithDeps creates a new Service with a custom append timeout
func NewServiceWithDeps(parser *Parser, tables *TableManager, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &Service{
		parser:  parser,
		tables:  tables,
		timeout: timeout,
	}
}

// Schema returns the active schema
func (s *Service) Schema() Schema {
	return s.parser.Schema()
}

// TableName returns the configured backing table name
func (s *Service) TableName() string {
	return s.tables.Name()
}

// TableState returns the state of the backing table handle
func (s *Service) TableState() TableState {
	return s.tables.State()
}

// Reprobe forces the table handle to be provisioned again, clearing the degraded state
func (s *Service) Reprobe(ctx context.Context) (TableState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.tables.ForceReprobe(ctx)
	return s.tables.State(), err
}

// Ingest parses a request and logs the resulting record. The error is either a
// *Rejection or an *AppendError.
func (s *Service) Ingest(ctx context.Context, channel string, req Request) (*Record, error) {
	record, err := s.parser.Parse(req)
	if err != nil {
		var rejection *Rejection
		if errors.As(err, &rejection) {
			recordsParsed.WithLabelValues(channel, string(rejection.Reason)).Inc()
		}
		slog.Debug("Rejected expense input", "channel", channel, "error", err)
		return nil, err
	}
	recordsParsed.WithLabelValues(channel, "accepted").Inc()

	if err := s.Log(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Log appends the record as one row. Failures are returned as *AppendError; a transient
// write failure is retried once.
func (s *Service) Log(ctx context.Context, record *Record) error {
	row := record.Row(s.Schema())

	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.tables.EnsureReady(ctx)
	if err != nil {
		appendsTotal.WithLabelValues("not_ready").Inc()
		return &AppendError{Kind: AppendNotReady, Err: err}
	}

	_, err = retryTransient(ctx, s.timeout, "append", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, table.Append(ctx, row)
	})
	if err != nil {
		slog.Error("Failed to log expense", "table", table.Name(), "product", record.Product, "error", err)
		appendsTotal.WithLabelValues("write_failed").Inc()
		return &AppendError{Kind: AppendWriteFailed, Err: fmt.Errorf("appending row to %q: %w", table.Name(), err)}
	}

	slog.Info("Logged expense", "table", table.Name(), "product", record.Product, "date", record.Date())
	appendsTotal.WithLabelValues("ok").Inc()
	return nil
}
