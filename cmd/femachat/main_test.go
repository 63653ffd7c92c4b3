package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dileep-u-k/femachat/internal/app"
	"github.com/dileep-u-k/femachat/internal/claims"
	"github.com/dileep-u-k/femachat/internal/config"
	"github.com/dileep-u-k/femachat/internal/fema"
	"github.com/dileep-u-k/femachat/internal/llm"
	"github.com/dileep-u-k/femachat/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	records []map[string]any
	err     error
}

func (s stubFetcher) Fetch(context.Context, fema.QueryParameters) ([]map[string]any, error) {
	return s.records, s.err
}

type echoClient struct{ questions []string }

func (e *echoClient) Generate(_ context.Context, messages []llm.Message, _ *llm.GenerationConfig, _ []tools.Tool) (*llm.GenerationResult, error) {
	q := messages[len(messages)-1].Content
	e.questions = append(e.questions, q)
	return &llm.GenerationResult{Content: "answer to " + q}, nil
}

// flakyFetcher serves the records once and fails every later call.
type flakyFetcher struct {
	records []map[string]any
	calls   int
}

func (f *flakyFetcher) Fetch(context.Context, fema.QueryParameters) ([]map[string]any, error) {
	f.calls++
	if f.calls > 1 {
		return nil, errors.New("upstream 503")
	}
	return f.records, nil
}

// toolClient answers the fetch request with fetch_fema_claims and every other
// question with total_number_of_claims, then echoes the tool result.
type toolClient struct{ answers []string }

func (c *toolClient) Generate(_ context.Context, messages []llm.Message, _ *llm.GenerationConfig, _ []tools.Tool) (*llm.GenerationResult, error) {
	last := messages[len(messages)-1]
	if last.Role == llm.RoleTool {
		c.answers = append(c.answers, last.Content)
		return &llm.GenerationResult{Content: last.Content}, nil
	}
	call := &tools.ToolCall{ID: "gemini-toolcall-total_number_of_claims", Type: tools.ToolTypeFunction,
		Function: tools.ToolCallFunction{Name: "total_number_of_claims", Arguments: "{}"}}
	if strings.HasPrefix(last.Content, "Fetch") {
		call = &tools.ToolCall{ID: "gemini-toolcall-fetch_fema_claims", Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{Name: "fetch_fema_claims", Arguments: `{"zipCode": "70119"}`}}
	}
	return &llm.GenerationResult{ToolCalls: []*tools.ToolCall{call}}, nil
}

var scenario = []map[string]any{
	{"buildingDamageAmount": 100.0, "contentsDamageAmount": 50.0, "ratedFloodZone": "AE", "dateOfLoss": "2020-01-01"},
	{"buildingDamageAmount": 200.0, "contentsDamageAmount": 25.0, "ratedFloodZone": "AE", "dateOfLoss": "2021-06-15"},
}

func testApp(t *testing.T, fetcher fema.Fetcher, client llm.LLMClient) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Tools.DisableWebSearch = true
	return app.NewWithClients(cfg, fetcher, client)
}

func TestRunPrintsTableSummariesAndExports(t *testing.T) {
	a := testApp(t, stubFetcher{records: scenario}, nil)
	var out bytes.Buffer

	err := run(context.Background(), a, &options{zip: "70119", maxRows: 1}, strings.NewReader(""), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "FEMA NFIP claims for zip code 70119 (2 rows)")
	assert.Contains(t, text, "buildingDamageAmount")
	assert.Contains(t, text, "... 1 more rows")
	assert.Contains(t, text, "Total Building Damage Amount:\nThe total building damage amount is $300.00.")
	assert.Contains(t, text, "Count Policies by Flood Zone:\nPolicies by flood zone:\nAE: 2")

	exported, err := os.ReadFile(filepath.Join(a.Config.OutputDir, "fema_data_70119.csv"))
	require.NoError(t, err)
	table, err := claims.ReadCSV(bytes.NewReader(exported))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestRunPromptsForZip(t *testing.T) {
	a := testApp(t, stubFetcher{records: scenario}, nil)
	var out bytes.Buffer

	err := run(context.Background(), a, &options{noExport: true}, strings.NewReader("70119\n"), &out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "Enter the zip code: "))
	assert.Equal(t, "70119", a.Store.Load().Params[claims.IdentityParam])

	err = run(context.Background(), a, &options{}, strings.NewReader("\n"), &out)
	assert.EqualError(t, err, "a zip code is required")
}

func TestRunFetchFailureStillSummarizes(t *testing.T) {
	a := testApp(t, stubFetcher{err: errors.New("boom")}, nil)
	var out bytes.Buffer

	err := run(context.Background(), a, &options{zip: "70119"}, strings.NewReader(""), &out)
	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "No claims found for zip code 70119.")
	assert.Contains(t, text, "The total number of claims is 0.")
	assert.Contains(t, text, "Error: total building damage: no buildingDamageAmount values to aggregate")

	_, err = os.Stat(filepath.Join(a.Config.OutputDir, "fema_data_70119.csv"))
	assert.True(t, os.IsNotExist(err), "nothing exported for an empty table")
}

func TestRunAsksTheAssistant(t *testing.T) {
	client := &echoClient{}
	a := testApp(t, stubFetcher{records: scenario}, client)
	a.Config.Questions = []string{"How many claims?"}
	var out bytes.Buffer

	err := run(context.Background(), a, &options{zip: "70119", noExport: true, ask: "Which zone?"}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fetch FEMA data for zip code 70119.", "How many claims?", "Which zone?"}, client.questions)
	assert.Contains(t, out.String(), "answer to Which zone?")

	client.questions = nil
	err = run(context.Background(), a, &options{zip: "70119", noExport: true, noAgent: true}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Empty(t, client.questions)
}

func TestRunFetchesOnce(t *testing.T) {
	fetcher := &flakyFetcher{records: scenario}
	client := &toolClient{}
	a := testApp(t, fetcher, client)
	a.Config.Questions = []string{"How many claims?"}
	var out bytes.Buffer

	err := run(context.Background(), a, &options{zip: "70119", noExport: true}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 2, a.Store.Table().Len())
	assert.Equal(t, []string{"Loaded 2 claims for zip code 70119.", "The total number of claims is 2."}, client.answers)
}

func TestQuestionsForDefaults(t *testing.T) {
	q := questionsFor(config.Default(), "70119", " ")
	require.Len(t, q, 7)
	assert.Equal(t, "What is the total sum of building and contents damage amounts?", q[6])
}

func TestRenderTableAllRows(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderTable(&out, claims.Project(scenario), 0))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "asOfDate"))
	assert.Contains(t, lines[2], "2021-06-15")
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-zip", "70119", "-rows", "0", "-no-agent"})
	require.NoError(t, err)
	assert.Equal(t, "70119", opts.zip)
	assert.Equal(t, 0, opts.maxRows)
	assert.True(t, opts.noAgent)
	assert.Equal(t, config.DefaultPath, opts.configPath)

	_, err = parseFlags([]string{"-rows", "many"})
	assert.Error(t, err)
}
