package claims

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFixture() []map[string]any {
	return []map[string]any{
		{
			"asOfDate":             "2024-03-01T00:00:00.000Z",
			"policyCount":          1.0,
			"dateOfLoss":           "2020-01-01T00:00:00.000Z",
			"ratedFloodZone":       "AE",
			"buildingDamageAmount": 100.0,
			"contentsDamageAmount": 50.0,
			"yearOfLoss":           2020.0,
			"id":                   "not-projected",
		},
		{
			"dateOfLoss":                "2021-06-15T00:00:00.000Z",
			"ratedFloodZone":            "X",
			"buildingDamageAmount":      json.Number("200.25"),
			"contentsDamageAmount":      nil,
			"primaryResidenceIndicator": true,
			"elevationDifference":       json.Number("-3"),
		},
	}
}

func TestProjectFillsMissingFieldsWithEmptyValues(t *testing.T) {
	table := Project(rawFixture())

	require.Equal(t, 2, table.Len())
	assert.Equal(t, DefaultColumns(), table.Columns())

	first := table.Record(0)
	assert.Equal(t, "1", first.PolicyCount)
	assert.Equal(t, "2020", first.YearOfLoss)
	assert.Equal(t, "", first.BasementEnclosureCrawlspaceType)
	assert.Equal(t, NewAmount(100), first.BuildingDamageAmount)

	second := table.Record(1)
	assert.Equal(t, "", second.AsOfDate)
	assert.Equal(t, "true", second.PrimaryResidenceIndicator)
	assert.Equal(t, "-3", second.ElevationDifference)
	assert.Equal(t, NewAmount(200.25), second.BuildingDamageAmount)
	assert.False(t, second.ContentsDamageAmount.Valid, "null amount projects as absent")
}

func TestProjectTreatsNonNumericAmountAsAbsent(t *testing.T) {
	table := Project([]map[string]any{
		{"buildingDamageAmount": "lots", "contentsDamageAmount": "12.5"},
	})

	rec := table.Record(0)
	assert.False(t, rec.BuildingDamageAmount.Valid)
	assert.Equal(t, NewAmount(12.5), rec.ContentsDamageAmount)
}

func TestProjectTreatsNonFiniteAmountAsAbsent(t *testing.T) {
	table := Project([]map[string]any{
		{"buildingDamageAmount": "NaN", "contentsDamageAmount": "Inf"},
		{"buildingDamageAmount": "-Infinity", "contentsDamageAmount": "1e400"},
	})
	for i := 0; i < table.Len(); i++ {
		assert.False(t, table.Record(i).BuildingDamageAmount.Valid, "row %d", i)
		assert.False(t, table.Record(i).ContentsDamageAmount.Valid, "row %d", i)
	}

	_, err := ParseAmount("nan")
	assert.Error(t, err)
	a, err := ParseAmount("12.5")
	require.NoError(t, err)
	assert.Equal(t, NewAmount(12.5), a)
}

func TestProjectNilIsEmptyTable(t *testing.T) {
	table := Project(nil)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, DefaultColumns(), table.Columns())
}

func TestNewTableRejectsBadColumns(t *testing.T) {
	_, err := NewTable(nil, nil)
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = NewTable([]string{"ratedFloodZone", "bogus"}, nil)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = NewTable([]string{"ratedFloodZone", "ratedFloodZone"}, nil)
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestTableIsNotAliasedToCallerSlices(t *testing.T) {
	cols := []string{ColRatedFloodZone}
	recs := []Record{{RatedFloodZone: "AE"}}
	table, err := NewTable(cols, recs)
	require.NoError(t, err)

	cols[0] = ColDateOfLoss
	recs[0].RatedFloodZone = "X"
	table.Records()[0].RatedFloodZone = "VE"

	assert.Equal(t, []string{ColRatedFloodZone}, table.Columns())
	assert.Equal(t, "AE", table.Record(0).RatedFloodZone)
}

func TestCellRespectsTableColumns(t *testing.T) {
	table, err := NewTable([]string{ColRatedFloodZone}, []Record{{RatedFloodZone: "AE", DateOfLoss: "2020"}})
	require.NoError(t, err)

	v, ok := table.Cell(0, ColRatedFloodZone)
	assert.True(t, ok)
	assert.Equal(t, "AE", v)

	_, ok = table.Cell(0, ColDateOfLoss)
	assert.False(t, ok)
}

func TestCSVRoundTrip(t *testing.T) {
	original := Project(rawFixture())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, original))

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, strings.Join(DefaultColumns(), ","), header)

	parsed, err := ReadCSV(&buf)
	require.NoError(t, err)

	assert.Equal(t, original.Columns(), parsed.Columns())
	require.Equal(t, original.Len(), parsed.Len())
	for i := 0; i < original.Len(); i++ {
		assert.Equal(t, original.Row(i), parsed.Row(i), "row %d", i)
	}
}

func TestCSVRoundTripEscaping(t *testing.T) {
	original, err := NewTable(
		[]string{ColRatedFloodZone, ColBasementEnclosureCrawlspaceType},
		[]Record{{RatedFloodZone: `A,"E"`, BasementEnclosureCrawlspaceType: "line\nbreak"}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, original))
	parsed, err := ReadCSV(&buf)
	require.NoError(t, err)

	assert.Equal(t, original.Records(), parsed.Records())

	t.Run("crlf inside a cell", func(t *testing.T) {
		table := Project([]map[string]any{{"ratedFloodZone": "a\r\nb"}})
		assert.Equal(t, "a\nb", table.Record(0).RatedFloodZone)

		built, err := NewTable([]string{ColRatedFloodZone}, []Record{{RatedFloodZone: "c\r\nd"}})
		require.NoError(t, err)
		assert.Equal(t, "c\nd", built.Record(0).RatedFloodZone)

		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, table))
		parsed, err := ReadCSV(&buf)
		require.NoError(t, err)
		assert.Equal(t, table.Records(), parsed.Records())
	})

	t.Run("single column with an empty cell", func(t *testing.T) {
		table, err := NewTable([]string{ColRatedFloodZone},
			[]Record{{RatedFloodZone: "AE"}, {}, {RatedFloodZone: "X"}})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, table))
		assert.Equal(t, "ratedFloodZone\nAE\n\"\"\nX\n", buf.String())

		parsed, err := ReadCSV(&buf)
		require.NoError(t, err)
		require.Equal(t, 3, parsed.Len())
		assert.Equal(t, table.Records(), parsed.Records())
	})
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"unknown column", "ratedFloodZone,bogus\nAE,1\n"},
		{"bad amount", "buildingDamageAmount\nabc\n"},
		{"ragged row", "ratedFloodZone,dateOfLoss\nAE\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{"zip code", map[string]string{"reportedZipCode": "70119", "state": "LA"}, "fema_data_70119.csv"},
		{"first by key", map[string]string{"state": "LA", "countyCode": "22071"}, "fema_data_22071.csv"},
		{"no params", nil, "fema_data_all.csv"},
		{"unsafe characters", map[string]string{"reportedZipCode": "../70 119"}, "fema_data_.._70_119.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportFileName(tt.params))
		})
	}
}

func TestWriteCSVFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteCSVFile(dir, "fema_data_70119.csv", Project(rawFixture()))
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	parsed, err := ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.Len())
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Load())
	assert.Nil(t, s.Table())

	params := map[string]string{"reportedZipCode": "70119"}
	snap := s.Replace(Empty(), params)
	params["reportedZipCode"] = "changed"

	require.NotNil(t, s.Table())
	assert.Same(t, snap, s.Load())
	assert.Equal(t, "70119", s.Load().Params["reportedZipCode"])
	assert.False(t, snap.FetchedAt.IsZero())
}
