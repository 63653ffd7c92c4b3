// In file: internal/claims/project.go
package claims

import (
	"fmt"
	"strconv"

	"github.com/dileep-u-k/femachat/internal/logger"
	"go.uber.org/zap"
)

// Project maps raw upstream records onto the fixed column set. Fields absent
// from a record, or null, become the empty value. A damage amount that is not
// a number is logged and treated as absent so one bad row never drops the
// whole table.
func Project(raw []map[string]any) *Table {
	records := make([]Record, 0, len(raw))
	for i, item := range raw {
		var rec Record
		for _, col := range defaultColumns {
			v, present := item[col]
			if !present || v == nil {
				continue
			}
			if col == ColBuildingDamageAmount || col == ColContentsDamageAmount {
				a, err := toAmount(v)
				if err != nil {
					logger.Warn("Dropping unparseable damage amount",
						zap.Int("row", i), zap.String("column", col), zap.Error(err))
					continue
				}
				if col == ColBuildingDamageAmount {
					rec.BuildingDamageAmount = a
				} else {
					rec.ContentsDamageAmount = a
				}
				continue
			}
			// SetField only fails for amounts and unknown columns, neither of which reach here.
			_ = rec.SetField(col, toCell(v))
		}
		records = append(records, rec)
	}

	t, _ := NewTable(defaultColumns, records)
	return t
}

// toCell renders a decoded JSON scalar in its literal form.
func toCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer: // json.Number from either decoder
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func toAmount(v any) (Amount, error) {
	switch x := v.(type) {
	case float64:
		return finiteAmount(x)
	case float32:
		return finiteAmount(float64(x))
	case int:
		return NewAmount(float64(x)), nil
	case int64:
		return NewAmount(float64(x)), nil
	case string:
		return ParseAmount(x)
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		if err != nil {
			return Amount{}, fmt.Errorf("invalid amount %v: %w", x, err)
		}
		return finiteAmount(f)
	default:
		return Amount{}, fmt.Errorf("invalid amount of type %T", v)
	}
}
