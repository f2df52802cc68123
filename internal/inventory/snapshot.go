package inventory

import (
	"context"
	"fmt"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// OpenSnapshot returns the snapshot backend selected by name and a closer
// for whatever it holds open.
func OpenSnapshot(ctx context.Context, backend, file, dsn string) (Snapshotter, func() error, error) {
	switch backend {
	case BackendFile:
		return NewFileSnapshot(file), func() error { return nil }, nil
	case BackendPostgres:
		pg, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", backend)
	}
}
