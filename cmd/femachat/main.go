// In file: cmd/femachat/main.go

// Command femachat loads the NFIP flood claims for a zip code, prints them
// with the six canned summaries, exports them as CSV and, when a Gemini key is
// configured, answers questions about them.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dileep-u-k/femachat/internal/agent"
	"github.com/dileep-u-k/femachat/internal/app"
	"github.com/dileep-u-k/femachat/internal/claims"
	"github.com/dileep-u-k/femachat/internal/config"
	"github.com/dileep-u-k/femachat/internal/logger"
	"github.com/dileep-u-k/femachat/internal/summary"
	"github.com/dileep-u-k/femachat/internal/version"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	zip        string
	ask        string
	maxRows    int
	noAgent    bool
	noExport   bool
	version    bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("femachat", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "path to the YAML config file")
	fs.StringVar(&opts.zip, "zip", "", "zip code to load; prompted for when empty")
	fs.StringVar(&opts.ask, "ask", "", "an extra question for the assistant")
	fs.IntVar(&opts.maxRows, "rows", 20, "rows of the claims table to print; 0 prints all")
	fs.BoolVar(&opts.noAgent, "no-agent", false, "skip the assistant questions")
	fs.BoolVar(&opts.noExport, "no-export", false, "skip writing the CSV file")
	fs.BoolVar(&opts.version, "version", false, "print build information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	defer logger.Sync()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		info := version.GetBuildInfo()
		fmt.Printf("femachat %s (commit %s, built %s, %s %s)\n",
			info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("configuration error: %v\n", err))
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("startup failed: %v\n", err))
		os.Exit(1)
	}
	defer a.Close()

	if err := run(ctx, a, opts, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			ancli.Okf("Seems like you wanted out. Byebye!\n")
			return
		}
		ancli.PrintErr(fmt.Sprintf("%v\n", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, opts *options, stdin io.Reader, stdout io.Writer) error {
	zip := strings.TrimSpace(opts.zip)
	if zip == "" {
		var err error
		if zip, err = promptZip(stdin, stdout); err != nil {
			return err
		}
	}

	snap, err := a.LoadZip(ctx, zip)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The empty table is still reported below, so the summaries say why.
		ancli.PrintWarn(fmt.Sprintf("%v\n", err))
	}
	table := snap.Table
	if table.Len() == 0 {
		fmt.Fprintf(stdout, "No claims found for zip code %s.\n", zip)
	} else {
		fmt.Fprintf(stdout, "FEMA NFIP claims for zip code %s (%d rows):\n\n", zip, table.Len())
		if err := renderTable(stdout, table, opts.maxRows); err != nil {
			return err
		}
	}

	if !opts.noExport && table.Len() > 0 {
		path, err := claims.WriteCSVFile(a.Config.OutputDir, claims.ExportFileName(snap.Params), table)
		if err != nil {
			ancli.PrintWarn(fmt.Sprintf("could not export CSV: %v\n", err))
		} else {
			ancli.PrintOK(fmt.Sprintf("claims exported to '%v'\n", path))
		}
	}

	results, err := summary.Compute(ctx, table)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout)
	for _, r := range results {
		fmt.Fprintf(stdout, "%s:\n%s\n\n", r.Title, r.Message())
	}

	if opts.noAgent {
		return nil
	}
	if a.Assistant == nil {
		logger.Info("No Gemini API key configured; skipping the assistant")
		return nil
	}
	return converse(ctx, agent.NewSession(a.Assistant), questionsFor(a.Config, zip, opts.ask), stdout)
}

// questionsFor lists the questions the CLI asks: the fetch request first, then
// the configured or default questions, then the -ask question.
func questionsFor(cfg *config.AppConfig, zip, extra string) []string {
	questions := cfg.Questions
	if len(questions) == 0 {
		questions = agent.DefaultQuestions
	}
	out := make([]string, 0, len(questions)+2)
	out = append(out, agent.FetchQuestion(zip))
	out = append(out, questions...)
	if extra = strings.TrimSpace(extra); extra != "" {
		out = append(out, extra)
	}
	return out
}

func converse(ctx context.Context, session *agent.Session, questions []string, stdout io.Writer) error {
	for _, q := range questions {
		fmt.Fprintf(stdout, "%v: %s\n", ancli.ColoredMessage(ancli.CYAN, "you"), q)
		answer, err := session.Ask(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Assistant failed", zap.String("question", q), zap.Error(err))
			ancli.PrintWarn(fmt.Sprintf("assistant failed: %v\n", err))
			continue
		}
		fmt.Fprintf(stdout, "%v: %s\n\n", ancli.ColoredMessage(ancli.BLUE, "femachat"), answer.Content)
	}
	return nil
}

func promptZip(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Enter the zip code: ")
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read zip code: %w", err)
	}
	zip := strings.TrimSpace(line)
	if zip == "" {
		return "", errors.New("a zip code is required")
	}
	return zip, nil
}
