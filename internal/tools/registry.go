// In file: internal/tools/registry.go
package tools

import (
	"github.com/dileep-u-k/femachat/internal/claims"
	"github.com/dileep-u-k/femachat/internal/fema"
)

// Options selects the tools NewDefaultManager registers.
type Options struct {
	Store *claims.Store
	// Fetcher enables fetch_fema_claims when set.
	Fetcher fema.Fetcher
	// SearchEndpoint overrides the DuckDuckGo endpoint.
	SearchEndpoint string
	DisableSearch  bool
}

// NewDefaultManager registers the six summaries, the calculator and, when
// configured, the fetch and web search tools.
func NewDefaultManager(opts Options) (*ToolManager, error) {
	tm := NewToolManager()
	for _, st := range SummaryTools(opts.Store) {
		tm.Register(st)
	}
	tm.Register(NewCalculatorTool())

	if opts.Fetcher != nil {
		ft, err := NewFetchClaimsTool(opts.Fetcher, opts.Store)
		if err != nil {
			return nil, err
		}
		tm.Register(ft)
	}
	if !opts.DisableSearch {
		tm.Register(NewWebSearchTool(opts.SearchEndpoint))
	}
	return tm, nil
}
