package expense

import "context"

// Table is a handle to one remote append-only table
type Table interface {
	// ID returns the backend identifier of the table
	ID() string

	// Name returns the human readable table name
	Name() string

	// Append writes one full row after the last row of the table
	Append(ctx context.Context, row []any) error
}

// Backend defines the remote operations needed to provision a table
type Backend interface {
	// Open returns the table with exactly this name, or ErrTableNotFound
	Open(ctx context.Context, name string) (Table, error)

	// List returns every table visible to the backend credentials
	List(ctx context.Context) ([]Table, error)

	// Create creates a new empty table
	Create(ctx context.Context, name string) (Table, error)
}
