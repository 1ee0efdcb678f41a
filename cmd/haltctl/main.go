package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"halt/internal/machine"
	"halt/internal/storage"
	haltapi "halt/pkg/halt"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runSimulate(ctx, args[1:])
	case "macro":
		return runMacro(ctx, args[1:])
	case "census":
		return runCensus(ctx, args[1:])
	case "censuses":
		return runCensuses(ctx, args[1:])
	case "results":
		return runResults(ctx, args[1:])
	case "print":
		return runPrint(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: haltctl <run|macro|census|censuses|results|print> [flags]", msg)
}

func newClient(storeKind, dbPath string) (*haltapi.Client, error) {
	return haltapi.New(haltapi.Options{StoreKind: storeKind, DBPath: dbPath})
}

func runSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	maxSteps := fs.Int("max-steps", 1_000_000, "step budget before giving up")
	backend := fs.String("tape", "rle", "tape backend: rle|flat|paired")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("run requires exactly one machine text")
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Simulate(ctx, haltapi.SimulateRequest{
		Text:     fs.Arg(0),
		MaxSteps: *maxSteps,
		Backend:  *backend,
	})
	if err != nil {
		return err
	}

	if summary.Halted {
		fmt.Printf("halted after %s steps, %s non-blank cells\n",
			humanize.Comma(int64(summary.Steps)), humanize.Comma(int64(summary.Nonzero)))
	} else {
		fmt.Printf("still running after %s steps\n", humanize.Comma(int64(summary.Steps)))
	}
	return nil
}

func runMacro(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("macro", flag.ContinueOnError)
	scale := fs.Int("scale", 2, "base symbols packed per macro symbol")
	workers := fs.Int("workers", 4, "parallel entry derivations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("macro requires exactly one machine text")
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.CompileMacro(ctx, haltapi.MacroRequest{
		Text:    fs.Arg(0),
		Scale:   *scale,
		Workers: *workers,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d symbols x %d states\n%s\n", summary.NSyms, summary.NStates, summary.Text)
	return nil
}

func runCensus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("census", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "halt.db", "sqlite database path")
	file := fs.String("file", "", "corpus file, one machine text per line")
	maxSteps := fs.Int("max-steps", 1_000_000, "step budget per machine")
	workers := fs.Int("workers", 4, "parallel simulations")
	backend := fs.String("tape", "rle", "tape backend: rle|flat|paired")
	if err := fs.Parse(args); err != nil {
		return err
	}

	texts := fs.Args()
	if *file != "" {
		fromFile, err := readCorpus(*file)
		if err != nil {
			return err
		}
		texts = append(texts, fromFile...)
	}
	if len(texts) == 0 {
		return usageError("census requires machine texts or a corpus file")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Census(ctx, haltapi.CensusRequest{
		Texts:    texts,
		MaxSteps: *maxSteps,
		Workers:  *workers,
		Backend:  *backend,
	})
	if err != nil {
		return err
	}

	fmt.Printf("census %s: %d machines, %d halted\n", summary.CensusID, summary.Machines, summary.Halted)
	return nil
}

func runCensuses(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("censuses", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "halt.db", "sqlite database path")
	limit := fs.Int("limit", 20, "maximum runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Censuses(ctx, haltapi.CensusesRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no census runs recorded")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s  %s  backend=%s machines=%d halted=%d\n",
			item.CensusID, item.CreatedAtUTC, item.Backend, item.Machines, item.Halted)
	}
	return nil
}

func runResults(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("results", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "halt.db", "sqlite database path")
	censusID := fs.String("census", "", "census id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *censusID == "" {
		return usageError("results requires -census")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	results, err := client.Results(ctx, haltapi.ResultsRequest{CensusID: *censusID})
	if err != nil {
		return err
	}
	for _, res := range results {
		switch {
		case res.Err != "":
			fmt.Printf("%s  error: %s\n", res.Text, res.Err)
		case res.Halted:
			fmt.Printf("%s  halted steps=%s nonzero=%d\n",
				res.Text, humanize.Comma(int64(res.Steps)), res.Nonzero)
		default:
			fmt.Printf("%s  running after %s steps\n", res.Text, humanize.Comma(int64(res.Steps)))
		}
	}
	return nil
}

func runPrint(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	directed := fs.Bool("directed", false, "label states as (base, entry-direction) pairs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("print requires exactly one machine text")
	}

	table, err := machine.Parse(fs.Arg(0))
	if err != nil {
		return err
	}
	grid, err := table.Grid(*directed)
	if err != nil {
		return err
	}
	fmt.Print(grid)
	return nil
}
