// In file: internal/summary/report.go
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/dileep-u-k/femachat/internal/claims"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Operation is a summary rendered as a sentence, the form handed to tools,
// the CLI and the HTTP API.
type Operation struct {
	// Name is the stable identifier used in URLs and as the LLM function name.
	Name string
	// Title is the human-facing tool name.
	Title       string
	Description string
	Run         func(t *claims.Table) (string, error)
}

// Operations lists the six summaries in presentation order.
var Operations = []Operation{
	{
		Name:        "total_building_damage_amount",
		Title:       "Total Building Damage Amount",
		Description: "Returns the total building damage amount from the claims table.",
		Run: func(t *claims.Table) (string, error) {
			m, err := TotalBuildingDamage(t)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("The total building damage amount is %s.", m), nil
		},
	},
	{
		Name:        "average_contents_damage_amount",
		Title:       "Average Contents Damage Amount",
		Description: "Returns the average contents damage amount from the claims table.",
		Run: func(t *claims.Table) (string, error) {
			m, err := AverageContentsDamage(t)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("The average contents damage amount is %s.", m), nil
		},
	},
	{
		Name:        "most_recent_date_of_loss",
		Title:       "Most Recent Date of Loss",
		Description: "Returns the most recent date of loss from the claims table.",
		Run: func(t *claims.Table) (string, error) {
			d, err := MostRecentLossDate(t)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("The most recent date of loss is %s.", d), nil
		},
	},
	{
		Name:        "count_policies_by_flood_zone",
		Title:       "Count Policies by Flood Zone",
		Description: "Returns the count of policies by flood zone from the claims table.",
		Run: func(t *claims.Table) (string, error) {
			zones, err := PoliciesByFloodZone(t)
			if err != nil {
				return "", err
			}
			return "Policies by flood zone:\n" + FormatZoneCounts(zones), nil
		},
	},
	{
		Name:        "total_number_of_claims",
		Title:       "Total Number of Claims",
		Description: "Returns the total number of claims from the claims table.",
		Run: func(t *claims.Table) (string, error) {
			n, err := TotalClaimCount(t)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("The total number of claims is %d.", n), nil
		},
	},
	{
		Name:        "total_building_and_contents_damage_amount",
		Title:       "Total Building and Contents Damage Amount",
		Description: "Returns the total sum of building and contents damage amounts from the claims table.",
		Run: func(t *claims.Table) (string, error) {
			m, err := TotalBuildingAndContentsDamage(t)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("The total sum of building and contents damage amounts is %s.", m), nil
		},
	},
}

// Lookup finds an operation by Name.
func Lookup(name string) (Operation, bool) {
	for _, op := range Operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// Result is the outcome of one operation inside a report.
type Result struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
	Err   error  `json:"-"`
}

// Message is the text shown to a user: the sentence, or the rendered error.
func (r Result) Message() string {
	if r.Err != nil {
		return RenderError(r.Err)
	}
	return r.Text
}

// Compute runs every operation over one snapshot concurrently. Operation
// failures are carried in each Result; the returned error is only set when
// ctx is cancelled before all operations ran.
func Compute(ctx context.Context, t *claims.Table) ([]Result, error) {
	results := make([]Result, len(Operations))
	g, gctx := errgroup.WithContext(ctx)
	for i, op := range Operations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := op.Run(t)
			results[i] = Result{Name: op.Name, Title: op.Title, Text: text, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summary report cancelled: %w", err)
	}
	return results, nil
}

// String renders m with a dollar sign, thousands separators and two decimals.
func (m Money) String() string {
	return message.NewPrinter(language.English).Sprintf("$%.2f", float64(m))
}

// FormatZoneCounts renders one "<zone>: <count>" line per zone.
func FormatZoneCounts(zones []ZoneCount) string {
	lines := make([]string, len(zones))
	for i, z := range zones {
		lines[i] = fmt.Sprintf("%s: %d", z.Zone, z.Count)
	}
	return strings.Join(lines, "\n")
}

// RenderError is the presentation form of a summary failure.
func RenderError(err error) string {
	return "Error: " + err.Error()
}
