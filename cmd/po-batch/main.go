package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/batch"
	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/directory"
	"github.com/joseph-ayodele/po-intake/internal/entity"
	"github.com/joseph-ayodele/po-intake/internal/export"
	"github.com/joseph-ayodele/po-intake/internal/extract"
	"github.com/joseph-ayodele/po-intake/internal/ingest"
	"github.com/joseph-ayodele/po-intake/internal/workbench"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (env vars override it)")
		user       = flag.String("user", os.Getenv("USER"), "operator name")
		admin      = flag.Bool("admin", false, "act as an administrator")
		assigned   = flag.String("assigned", "", "customer code assigned to the operator")
		customer   = flag.String("customer", "", "customer to process under (defaults to the assigned one)")
		out        = flag.String("out", "purchase-orders.xlsx", "output XLSX file")
		snapshot   = flag.String("snapshot", "", "write the submitted rows as JSON to this file")
		watch      = flag.Bool("watch", false, "keep watching the given directories and run a batch per drop")
		dedupe     = flag.Bool("dedupe", false, "load files with identical content only once")
	)
	var edits editList
	flag.Var(&edits, "set", "correct a field before submitting, ROW:FIELD=VALUE (ROW is 1-based, repeatable)")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		printError("Error: at least one file or directory is required\n")
		os.Exit(1)
	}

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	identity := entity.Identity{Username: *user, IsAdmin: *admin, CustomerCode: *assigned}
	wb := workbench.New(identity, workbench.Config{
		UnassignedScope: cfg.Batch.UnassignedScopePolicy,
		Batch: batch.Config{
			SupportsDefaultCustomerBranch: cfg.Batch.SupportsDefaultCustomerBranch,
			DefaultCustomerCode:           cfg.Batch.DefaultCustomerCode,
			MinInterval:                   cfg.Batch.MinInterval,
		},
	}, workbench.Deps{
		Directory: directory.NewClient(directory.Config{BaseURL: cfg.Directory.BaseURL, Timeout: cfg.Directory.Timeout}, logger),
		Extractor: extract.NewClient(extract.Config{BaseURL: cfg.Extraction.BaseURL, Timeout: cfg.Extraction.Timeout}, logger),
		Exporter:  export.NewService(logger),
	}, logger)

	if _, err := wb.LoadScope(ctx); err != nil {
		color.Yellow("! %s", common.UserMessage(err))
	}
	if *customer != "" {
		if err := wb.SelectCustomer(ctx, *customer); err != nil {
			printError("Error: %s\n", common.UserMessage(err))
			os.Exit(1)
		}
	}
	st := wb.State()
	if st.ShipToError != "" {
		color.Yellow("! %s", st.ShipToError)
	}
	color.Cyan("Customer: %s (%d ship-to addresses)", st.Customer, len(st.ShipTo))

	loader := ingest.NewFSLoader(logger)
	loader.SkipIdenticalContent = *dedupe
	r := runner{wb: wb, loader: loader, edits: edits, snapshot: *snapshot}

	if !*watch {
		if err := r.run(ctx, paths, *out); err != nil {
			printError("Error: %s\n", common.UserMessage(err))
			os.Exit(1)
		}
		return
	}

	bursts, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Roots: paths, InitialScan: true, Logger: logger})
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	color.Cyan("Watching %s (Ctrl-C to stop)", strings.Join(paths, ", "))
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok {
				color.Red("watch error: %v", err)
			}
		case burst, ok := <-bursts:
			if !ok {
				return
			}
			target := stamped(*out, time.Now())
			if err := r.run(ctx, burst, target); err != nil {
				color.Red("✗ %s", common.UserMessage(err))
			}
		}
	}
}

type runner struct {
	wb       *workbench.Workbench
	loader   *ingest.FSLoader
	edits    editList
	snapshot string
}

func (r runner) run(ctx context.Context, paths []string, out string) error {
	results, stats, err := r.loader.LoadPaths(ctx, paths, true)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != "" {
			color.Yellow("! skipped %s: %s", res.SourcePath, res.Err)
		}
	}
	docs := ingest.Documents(results)
	if stats.Duplicates > 0 {
		color.Yellow("! %d file(s) with identical content ignored", stats.Duplicates)
	}
	if _, msg, err := r.wb.SelectDocuments(docs); err != nil {
		return err
	} else if msg != "" {
		color.Yellow("! %s", msg)
	}

	bar := newProgressBar(len(docs), "Extracting")
	rep, err := r.wb.Submit(ctx, func(ev batch.DocumentEvent) {
		if ev.Status != constants.DocumentStatusRequesting {
			_ = bar.Add(1)
		}
	})
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}
	for _, f := range rep.Failures {
		color.Red("✗ %s: %s", f.Name, f.Message)
	}

	rows := rep.Rows
	for _, e := range r.edits {
		if e.row < 1 || e.row > len(rows) {
			color.Yellow("! -set %d: no such row", e.row)
			continue
		}
		key := rows[e.row-1].Key
		if _, err := r.wb.ToggleEdit(key); err != nil {
			return err
		}
		if err := r.wb.SetField(key, e.field, e.value); err != nil {
			color.Yellow("! -set %d:%s: %s", e.row, e.field, common.UserMessage(err))
		}
		if _, err := r.wb.ToggleEdit(key); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		snap, err := r.wb.SubmitAll(ctx)
		if err != nil {
			return err
		}
		if r.snapshot != "" {
			b, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(r.snapshot, b, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
		}
	}

	xlsx, err := r.wb.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, xlsx, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	color.Green("✓ Batch complete")
	fmt.Printf("- Documents: %d\n", len(docs))
	fmt.Printf("- Rows: %d\n", len(rows))
	fmt.Printf("- Failures: %d\n", len(rep.Failures))
	fmt.Printf("- Output: %s\n", out)
	return nil
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(os.Stderr),
	)
}

// stamped inserts a timestamp before the extension of path.
func stamped(path string, t time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + t.Format("20060102-150405") + ext
}
