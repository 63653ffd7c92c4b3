// In file: internal/summary/summary.go

// Package summary computes the canned aggregations over a claims table.
// Every operation takes the table explicitly and reports failures as *Error.
package summary

import (
	"sort"

	"github.com/dileep-u-k/femachat/internal/claims"
)

// Money is a dollar amount; String renders it as "$1,234.50".
type Money float64

// ZoneCount is the number of claims rated in one flood zone.
type ZoneCount struct {
	Zone  string `json:"zone"`
	Count int    `json:"count"`
}

const (
	opTotalBuildingDamage            = "total building damage"
	opTotalContentsDamage            = "total contents damage"
	opAverageContentsDamage          = "average contents damage"
	opMostRecentLossDate             = "most recent loss date"
	opPoliciesByFloodZone            = "policies by flood zone"
	opTotalClaimCount                = "total claim count"
	opTotalBuildingAndContentsDamage = "total building and contents damage"
)

// TotalBuildingDamage sums the buildingDamageAmount values present.
func TotalBuildingDamage(t *claims.Table) (Money, error) {
	if err := requireRows(t, opTotalBuildingDamage, claims.ColBuildingDamageAmount); err != nil {
		return 0, err
	}
	total, _ := sumAmounts(t, claims.ColBuildingDamageAmount)
	return Money(total), nil
}

// TotalContentsDamage sums contentsDamageAmount. It is not exposed as a tool
// but lets callers check the combined total against its parts.
func TotalContentsDamage(t *claims.Table) (Money, error) {
	if err := requireRows(t, opTotalContentsDamage, claims.ColContentsDamageAmount); err != nil {
		return 0, err
	}
	total, _ := sumAmounts(t, claims.ColContentsDamageAmount)
	return Money(total), nil
}

// AverageContentsDamage is the mean of the contentsDamageAmount values present.
func AverageContentsDamage(t *claims.Table) (Money, error) {
	if err := requireRows(t, opAverageContentsDamage, claims.ColContentsDamageAmount); err != nil {
		return 0, err
	}
	total, n := sumAmounts(t, claims.ColContentsDamageAmount)
	if n == 0 {
		return 0, &Error{Op: opAverageContentsDamage, Kind: EmptyAggregate, Column: claims.ColContentsDamageAmount}
	}
	return Money(total / float64(n)), nil
}

// MostRecentLossDate is the lexically greatest non-empty dateOfLoss. OpenFEMA
// dates are ISO 8601, so lexical order is chronological.
func MostRecentLossDate(t *claims.Table) (string, error) {
	if err := requireRows(t, opMostRecentLossDate, claims.ColDateOfLoss); err != nil {
		return "", err
	}
	latest := ""
	for i := 0; i < t.Len(); i++ {
		if d := t.Record(i).DateOfLoss; d > latest {
			latest = d
		}
	}
	if latest == "" {
		return "", &Error{Op: opMostRecentLossDate, Kind: EmptyAggregate, Column: claims.ColDateOfLoss}
	}
	return latest, nil
}

// PoliciesByFloodZone counts rows per ratedFloodZone, largest group first;
// ties keep the order in which the zones first appear.
func PoliciesByFloodZone(t *claims.Table) ([]ZoneCount, error) {
	if err := requireRows(t, opPoliciesByFloodZone, claims.ColRatedFloodZone); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	order := make([]string, 0)
	for i := 0; i < t.Len(); i++ {
		zone := t.Record(i).RatedFloodZone
		if _, seen := counts[zone]; !seen {
			order = append(order, zone)
		}
		counts[zone]++
	}

	out := make([]ZoneCount, 0, len(order))
	for _, zone := range order {
		out = append(out, ZoneCount{Zone: zone, Count: counts[zone]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

// TotalClaimCount is the number of rows; an empty table counts zero.
func TotalClaimCount(t *claims.Table) (int, error) {
	if t == nil {
		return 0, &Error{Op: opTotalClaimCount, Kind: TableUnavailable}
	}
	return t.Len(), nil
}

// TotalBuildingAndContentsDamage adds the building and contents sums.
func TotalBuildingAndContentsDamage(t *claims.Table) (Money, error) {
	if err := requireRows(t, opTotalBuildingAndContentsDamage, claims.ColBuildingDamageAmount, claims.ColContentsDamageAmount); err != nil {
		return 0, err
	}
	building, _ := sumAmounts(t, claims.ColBuildingDamageAmount)
	contents, _ := sumAmounts(t, claims.ColContentsDamageAmount)
	return Money(building + contents), nil
}

func requireColumns(t *claims.Table, op string, columns ...string) error {
	if t == nil {
		return &Error{Op: op, Kind: TableUnavailable}
	}
	for _, c := range columns {
		if !t.HasColumn(c) {
			return &Error{Op: op, Kind: ColumnMissing, Column: c}
		}
	}
	return nil
}

// requireRows is requireColumns plus a non-empty table; every aggregate except the
// row count is undefined over zero rows.
func requireRows(t *claims.Table, op string, columns ...string) error {
	if err := requireColumns(t, op, columns...); err != nil {
		return err
	}
	if t.Len() == 0 {
		return &Error{Op: op, Kind: EmptyAggregate, Column: columns[0]}
	}
	return nil
}

// sumAmounts adds the present values of an amount column and returns how many there were.
func sumAmounts(t *claims.Table, column string) (float64, int) {
	var total float64
	n := 0
	for i := 0; i < t.Len(); i++ {
		r := t.Record(i)
		a := r.BuildingDamageAmount
		if column == claims.ColContentsDamageAmount {
			a = r.ContentsDamageAmount
		}
		if a.Valid {
			total += a.Value
			n++
		}
	}
	return total, n
}
