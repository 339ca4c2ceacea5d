package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultRemoteTimeout bounds each remote call when no timeout is configured
const DefaultRemoteTimeout = 15 * time.Second

// TableState is the lifecycle state of the backing table handle
type TableState int

const (
	TableUnready TableState = iota
	TableReady
	TableDegraded
)

func (s TableState) String() string {
	switch s {
	case TableReady:
		return "ready"
	case TableDegraded:
		return "degraded"
	default:
		return "unready"
	}
}

// TableConfig describes the table a TableManager provisions
type TableConfig struct {
	// Name is the exact table name opened or created
	Name string
	// Fragment enables the fallback scan: the first visible table whose name contains it
	// (case-insensitive) is used. Empty disables the scan.
	Fragment string
	Schema   Schema
	// Timeout bounds each remote call
	Timeout time.Duration
}

// TableManager owns the one table handle of the process
type TableManager struct {
	backend Backend
	cfg     TableConfig

	mu       sync.Mutex
	state    TableState
	table    Table
	degraded *SetupError
	// headerPending is the ID of a table created without its header row. The header is
	// written before that table is next reported ready.
	headerPending string
}

// NewTableManager creates a TableManager in the unready state
func NewTableManager(backend Backend, cfg TableConfig) *TableManager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRemoteTimeout
	}
	tableState.Set(float64(TableUnready))
	return &TableManager{
		backend: backend,
		cfg:     cfg,
	}
}

// Name returns the configured table name
func (m *TableManager) Name() string {
	return m.cfg.Name
}

// State returns the current state of the handle
func (m *TableManager) State() TableState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EnsureReady returns the cached table, provisioning it on first use. Concurrent callers
// wait for a single provisioning attempt. In the degraded state it fails fast with the
// remembered *SetupError.
func (m *TableManager) EnsureReady(ctx context.Context) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case TableReady:
		return m.table, nil
	case TableDegraded:
		return nil, m.degraded
	}
	return m.provision(ctx)
}

// ForceReprobe discards any cached handle or degraded state and runs the provisioning
// sequence again
func (m *TableManager) ForceReprobe(ctx context.Context) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slog.Info("Re-probing backing table", "table", m.cfg.Name, "previous_state", m.state.String())
	m.setState(TableUnready, nil, nil)
	return m.provision(ctx)
}

// provision must be called with m.mu held
func (m *TableManager) provision(ctx context.Context) (Table, error) {
	table, err := m.open(ctx)
	if err == nil {
		if err := m.finishHeader(ctx, table); err != nil {
			return nil, m.fail(err)
		}
		slog.Info("Opened existing table", "table", table.Name(), "id", table.ID())
		provisionResults.WithLabelValues("opened").Inc()
		m.setState(TableReady, table, nil)
		return table, nil
	}
	if !errors.Is(err, ErrTableNotFound) {
		return nil, m.fail(fmt.Errorf("opening table %q: %w", m.cfg.Name, err))
	}
	slog.Info("Table not found", "table", m.cfg.Name)

	if m.cfg.Fragment != "" {
		table, err = m.match(ctx)
		if err != nil {
			return nil, m.fail(fmt.Errorf("searching tables for %q: %w", m.cfg.Fragment, err))
		}
		if table != nil {
			if err := m.finishHeader(ctx, table); err != nil {
				return nil, m.fail(err)
			}
			slog.Info("Using table matched by name fragment", "table", table.Name(), "id", table.ID(), "fragment", m.cfg.Fragment)
			provisionResults.WithLabelValues("matched").Inc()
			m.setState(TableReady, table, nil)
			return table, nil
		}
	}

	table, err = m.create(ctx)
	if err != nil {
		if IsQuotaError(err) {
			setupErr := &SetupError{Kind: SetupQuotaExceeded, Err: err}
			slog.Error("Storage quota exceeded, free up space or create the table manually", "table", m.cfg.Name, "error", err)
			provisionResults.WithLabelValues("quota_exceeded").Inc()
			m.setState(TableDegraded, nil, setupErr)
			return nil, setupErr
		}
		return nil, m.fail(err)
	}

	slog.Info("Created table with headers", "table", table.Name(), "id", table.ID())
	provisionResults.WithLabelValues("created").Inc()
	m.setState(TableReady, table, nil)
	return table, nil
}

func (m *TableManager) open(ctx context.Context) (Table, error) {
	return retryTransient(ctx, m.cfg.Timeout, "open", func(ctx context.Context) (Table, error) {
		return m.backend.Open(ctx, m.cfg.Name)
	})
}

// match returns the first listed table whose name contains the fragment, or nil
func (m *TableManager) match(ctx context.Context) (Table, error) {
	tables, err := retryTransient(ctx, m.cfg.Timeout, "list", m.backend.List)
	if err != nil {
		return nil, err
	}
	fragment := strings.ToLower(m.cfg.Fragment)
	for _, t := range tables {
		if strings.Contains(strings.ToLower(t.Name()), fragment) {
			return t, nil
		}
	}
	return nil, nil
}

// create creates the table and writes the schema header row. The create is not retried:
// one that timed out may still have succeeded, and the next attempt finds it by name.
func (m *TableManager) create(ctx context.Context) (Table, error) {
	createCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	table, err := m.backend.Create(createCtx, m.cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("creating table %q: %w", m.cfg.Name, err)
	}

	if err := m.writeHeader(ctx, table); err != nil {
		m.headerPending = table.ID()
		return nil, err
	}
	return table, nil
}

// finishHeader writes the header row to table if it was created without one
func (m *TableManager) finishHeader(ctx context.Context, table Table) error {
	if m.headerPending == "" || table.ID() != m.headerPending {
		return nil
	}
	slog.Info("Writing missing header row", "table", table.Name(), "id", table.ID())
	if err := m.writeHeader(ctx, table); err != nil {
		return err
	}
	m.headerPending = ""
	return nil
}

func (m *TableManager) writeHeader(ctx context.Context, table Table) error {
	header := m.cfg.Schema.Header()
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}

	_, err := retryTransient(ctx, m.cfg.Timeout, "header", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, table.Append(ctx, row)
	})
	if err != nil {
		return fmt.Errorf("writing header row to %q: %w", table.Name(), err)
	}
	return nil
}

// fail records a non-sticky failure; the next EnsureReady retries from the start
func (m *TableManager) fail(err error) *SetupError {
	slog.Error("Failed to set up table", "table", m.cfg.Name, "error", err)
	provisionResults.WithLabelValues("failed").Inc()
	m.setState(TableUnready, nil, nil)
	return &SetupError{Kind: SetupOther, Err: err}
}

func (m *TableManager) setState(state TableState, table Table, degraded *SetupError) {
	m.state = state
	m.table = table
	m.degraded = degraded
	tableState.Set(float64(state))
}

// retryTransient bounds each attempt of fn by timeout and makes one more attempt when the
// first fails with a transient error
func retryTransient[T any](ctx context.Context, timeout time.Duration, operation string, fn func(context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(ctx)
	}

	v, err := attempt()
	if err != nil && IsTransient(err) && ctx.Err() == nil {
		slog.Warn("Transient failure, retrying once", "operation", operation, "error", err)
		remoteRetries.WithLabelValues(operation).Inc()
		v, err = attempt()
	}
	return v, err
}
