// In file: internal/fema/load.go
package fema

import (
	"context"

	"github.com/dileep-u-k/femachat/internal/claims"
	"github.com/dileep-u-k/femachat/internal/logger"

	"go.uber.org/zap"
)

// Fetcher is the part of Client that Load needs.
type Fetcher interface {
	Fetch(ctx context.Context, params QueryParameters) ([]map[string]any, error)
}

var _ Fetcher = (*Client)(nil)

// Load fetches params, projects the records and installs the resulting table
// in store. A failed fetch installs an empty table for params and returns the
// fetch error, so the store never keeps data for a different query than the
// one last asked for.
func Load(ctx context.Context, f Fetcher, store *claims.Store, params QueryParameters) (*claims.Snapshot, error) {
	records, err := f.Fetch(ctx, params)
	if err != nil {
		logger.Error("Error fetching FEMA data", zap.Error(err), zap.Any("params", params))
		return store.Replace(claims.Empty(), params), err
	}
	snap := store.Replace(claims.Project(records), params)
	logger.Info("Claims table loaded", zap.Int("rows", snap.Table.Len()), zap.Any("params", params))
	return snap, nil
}
