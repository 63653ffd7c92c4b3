// In file: internal/tools/fetch_tool.go
package tools

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/dileep-u-k/femachat/internal/claims"
	"github.com/dileep-u-k/femachat/internal/fema"

	"github.com/goccy/go-json"
)

// FetchClaimsTool lets the model load the claims for another zip code. The
// new table replaces the current one, so later summary calls read it. A zip
// code that is already loaded is answered from the store without a request.
type FetchClaimsTool struct {
	fetcher fema.Fetcher
	store   *claims.Store
}

var _ ToolExecutor = (*FetchClaimsTool)(nil)

func NewFetchClaimsTool(fetcher fema.Fetcher, store *claims.Store) (*FetchClaimsTool, error) {
	if fetcher == nil || store == nil {
		return nil, fmt.Errorf("fetch claims tool needs a fetcher and a store")
	}
	return &FetchClaimsTool{fetcher: fetcher, store: store}, nil
}

func (ft *FetchClaimsTool) Definition() Tool {
	return NewFunctionTool(
		"fetch_fema_claims",
		"Loads the NFIP flood insurance claims reported for a US zip code from OpenFEMA. Use it before the summary tools when the user asks about a different zip code.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"zipCode": {
					Type:        "string",
					Description: "The 5-digit reported zip code, e.g. '70119'.",
				},
			},
			Required: []string{"zipCode"},
		},
	)
}

func (ft *FetchClaimsTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		ZipCode string `json:"zipCode"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for fetch_fema_claims: %w", err)
	}
	zip := strings.TrimSpace(args.ZipCode)
	if zip == "" {
		return "Error: a zip code is required.", nil
	}

	params := fema.QueryParameters{claims.IdentityParam: zip}
	snap := ft.store.Load()
	if snap == nil || !maps.Equal(snap.Params, params) {
		var err error
		snap, err = fema.Load(ctx, ft.fetcher, ft.store, params)
		if err != nil {
			return fmt.Sprintf("Error: could not fetch claims for zip code %s: %v", zip, err), nil
		}
	}
	if snap.Table.Len() == 0 {
		return fmt.Sprintf("No claims were found for zip code %s.", zip), nil
	}
	return fmt.Sprintf("Loaded %d claims for zip code %s.", snap.Table.Len(), zip), nil
}
