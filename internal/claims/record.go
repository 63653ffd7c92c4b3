// In file: internal/claims/record.go

// Package claims defines the projected NFIP claim record, the immutable
// table the summaries run over, and its CSV form.
package claims

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Projected column names, as they appear in the OpenFEMA FimaNfipClaims dataset.
const (
	ColAsOfDate                        = "asOfDate"
	ColBasementEnclosureCrawlspaceType = "basementEnclosureCrawlspaceType"
	ColPolicyCount                     = "policyCount"
	ColCRSClassificationCode           = "crsClassificationCode"
	ColDateOfLoss                      = "dateOfLoss"
	ColElevationCertificateIndicator   = "elevationCertificateIndicator"
	ColElevationDifference             = "elevationDifference"
	ColBaseFloodElevation              = "baseFloodElevation"
	ColRatedFloodZone                  = "ratedFloodZone"
	ColPrimaryResidenceIndicator       = "primaryResidenceIndicator"
	ColBuildingDamageAmount            = "buildingDamageAmount"
	ColContentsDamageAmount            = "contentsDamageAmount"
	ColYearOfLoss                      = "yearOfLoss"
)

var defaultColumns = []string{
	ColAsOfDate,
	ColBasementEnclosureCrawlspaceType,
	ColPolicyCount,
	ColCRSClassificationCode,
	ColDateOfLoss,
	ColElevationCertificateIndicator,
	ColElevationDifference,
	ColBaseFloodElevation,
	ColRatedFloodZone,
	ColPrimaryResidenceIndicator,
	ColBuildingDamageAmount,
	ColContentsDamageAmount,
	ColYearOfLoss,
}

// DefaultColumns returns the projection column list in table order.
func DefaultColumns() []string {
	out := make([]string, len(defaultColumns))
	copy(out, defaultColumns)
	return out
}

// IsKnownColumn reports whether column is part of the projection.
func IsKnownColumn(column string) bool {
	for _, c := range defaultColumns {
		if c == column {
			return true
		}
	}
	return false
}

// Amount is a dollar value that may be absent from the upstream record.
type Amount struct {
	Value float64
	Valid bool
}

// NewAmount returns a present amount.
func NewAmount(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// String renders the amount as a CSV cell: empty when absent, shortest
// round-trippable decimal otherwise.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return strconv.FormatFloat(a.Value, 'f', -1, 64)
}

// ParseAmount is the inverse of Amount.String.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return finiteAmount(v)
}

func finiteAmount(v float64) (Amount, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}, fmt.Errorf("invalid amount %v: not a finite number", v)
	}
	return NewAmount(v), nil
}

// Record is one flood-insurance claim projected onto the fixed column set.
// Descriptive fields are kept as the upstream literal; only the two damage
// amounts are typed because they are the only ones aggregated numerically.
type Record struct {
	AsOfDate                        string
	BasementEnclosureCrawlspaceType string
	PolicyCount                     string
	CRSClassificationCode           string
	DateOfLoss                      string
	ElevationCertificateIndicator   string
	ElevationDifference             string
	BaseFloodElevation              string
	RatedFloodZone                  string
	PrimaryResidenceIndicator       string
	BuildingDamageAmount            Amount
	ContentsDamageAmount            Amount
	YearOfLoss                      string
}

// Field returns the cell value for column in its CSV form.
func (r Record) Field(column string) (string, bool) {
	switch column {
	case ColAsOfDate:
		return r.AsOfDate, true
	case ColBasementEnclosureCrawlspaceType:
		return r.BasementEnclosureCrawlspaceType, true
	case ColPolicyCount:
		return r.PolicyCount, true
	case ColCRSClassificationCode:
		return r.CRSClassificationCode, true
	case ColDateOfLoss:
		return r.DateOfLoss, true
	case ColElevationCertificateIndicator:
		return r.ElevationCertificateIndicator, true
	case ColElevationDifference:
		return r.ElevationDifference, true
	case ColBaseFloodElevation:
		return r.BaseFloodElevation, true
	case ColRatedFloodZone:
		return r.RatedFloodZone, true
	case ColPrimaryResidenceIndicator:
		return r.PrimaryResidenceIndicator, true
	case ColBuildingDamageAmount:
		return r.BuildingDamageAmount.String(), true
	case ColContentsDamageAmount:
		return r.ContentsDamageAmount.String(), true
	case ColYearOfLoss:
		return r.YearOfLoss, true
	}
	return "", false
}

// SetField assigns a CSV-form value to column.
func (r *Record) SetField(column, value string) error {
	value = normalizeLineBreaks(value)
	switch column {
	case ColAsOfDate:
		r.AsOfDate = value
	case ColBasementEnclosureCrawlspaceType:
		r.BasementEnclosureCrawlspaceType = value
	case ColPolicyCount:
		r.PolicyCount = value
	case ColCRSClassificationCode:
		r.CRSClassificationCode = value
	case ColDateOfLoss:
		r.DateOfLoss = value
	case ColElevationCertificateIndicator:
		r.ElevationCertificateIndicator = value
	case ColElevationDifference:
		r.ElevationDifference = value
	case ColBaseFloodElevation:
		r.BaseFloodElevation = value
	case ColRatedFloodZone:
		r.RatedFloodZone = value
	case ColPrimaryResidenceIndicator:
		r.PrimaryResidenceIndicator = value
	case ColBuildingDamageAmount, ColContentsDamageAmount:
		a, err := ParseAmount(value)
		if err != nil {
			return fmt.Errorf("column %s: %w", column, err)
		}
		if column == ColBuildingDamageAmount {
			r.BuildingDamageAmount = a
		} else {
			r.ContentsDamageAmount = a
		}
	case ColYearOfLoss:
		r.YearOfLoss = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	return nil
}

// normalizeLineBreaks folds CRLF into LF; CSV readers drop the CR even
// inside quoted fields, so a cell holding one could not be read back.
func normalizeLineBreaks(s string) string {
	if !strings.Contains(s, "\r\n") {
		return s
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func (r Record) normalized() Record {
	for _, f := range []*string{
		&r.AsOfDate, &r.BasementEnclosureCrawlspaceType, &r.PolicyCount,
		&r.CRSClassificationCode, &r.DateOfLoss, &r.ElevationCertificateIndicator,
		&r.ElevationDifference, &r.BaseFloodElevation, &r.RatedFloodZone,
		&r.PrimaryResidenceIndicator, &r.YearOfLoss,
	} {
		*f = normalizeLineBreaks(*f)
	}
	return r
}
