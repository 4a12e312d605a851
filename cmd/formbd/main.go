// formbd - document database command-line tool
//
// This is the main entry point for the formbd CLI. It drives a formbd
// database through the Go bindings:
//   - Inspect the schema catalogue and change journal
//   - Apply JSON or CBOR operation files, each in its own transaction
//   - Health-check a database and report engine versions
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	formbd "github.com/hyperpolymath/formbd-go"
	"github.com/hyperpolymath/formbd-go/internal/infrastructure/config"
	"github.com/hyperpolymath/formbd-go/internal/infrastructure/logging"
	"github.com/hyperpolymath/formbd-go/internal/opformat"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/formbd.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches to the requested subcommand, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//   - stdout: Destination for command output
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return errors.New("no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		return cmdVersion(stdout)
	case "schema":
		return cmdSchema(rest, stdout)
	case "journal":
		return cmdJournal(ctx, rest, stdout)
	case "apply":
		return cmdApply(ctx, rest, stdout)
	case "check":
		return cmdCheck(ctx, rest, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		return fmt.Errorf("unknown command %q (run \"formbd help\")", cmd)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `formbd - document database tool

Usage:
  formbd <command> [flags]

Commands:
  version   Print tool and engine versions
  schema    Print the database schema catalogue
  journal   Print the change journal from a sequence number
  apply     Apply operation files, each in its own transaction
  check     Open the database and run a health check

Common flags:
  --config PATH       Config file (default %s, or FORMBD_CONFIG)
  --db PATH           Database path (default from config)
  --log-level LEVEL   debug, info, warn, error
  --log-format FMT    text, json, pretty

Run "formbd <command> --help" for command flags.
`, defaultConfigPath)
}

// cmdVersion prints the CLI build identity and, when a library can be
// loaded, the engine version.
func cmdVersion(stdout io.Writer) error {
	fmt.Fprintf(stdout, "formbd %s (commit %s, built %s)\n", version, commit, date)

	ev, err := formbd.EngineVersion()
	if err != nil {
		fmt.Fprintf(stdout, "engine: unavailable (%s)\n", strings.ReplaceAll(err.Error(), "\n", "; "))
		return nil
	}

	fmt.Fprintf(stdout, "engine: %s\n", ev)
	return nil
}

func cmdSchema(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	dbPath := fs.String("db", "", "database path (defaults to cli.database from config)")
	raw := fs.Bool("raw", false, "write the schema blob verbatim without rendering")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, err := setup(cf)
	if err != nil {
		return err
	}

	db, err := openDB(cfg, log, *dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	blob, err := db.Schema()
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	if *raw {
		_, err = stdout.Write(blob.Bytes)
		return err
	}

	rendered, err := opformat.Render(blob)
	if err != nil {
		return fmt.Errorf("rendering schema: %w", err)
	}

	fmt.Fprintf(stdout, "%s\n", rendered)
	return nil
}

func cmdJournal(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	dbPath := fs.String("db", "", "database path (defaults to cli.database from config)")
	since := fs.Uint64("since", 0, "starting journal sequence number")
	follow := fs.Bool("follow", false, "poll for journal changes until interrupted")
	interval := fs.Duration("interval", 0, "polling interval for --follow (defaults to cli.poll_interval_ms)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, err := setup(cf)
	if err != nil {
		return err
	}

	db, err := openDB(cfg, log, *dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	render := func() ([]byte, error) {
		blob, err := db.Journal(*since)
		if err != nil {
			return nil, fmt.Errorf("reading journal: %w", err)
		}
		return opformat.Render(blob)
	}

	last, err := render()
	if err != nil {
		return err
	}
	if len(last) > 0 {
		fmt.Fprintf(stdout, "%s\n", last)
	}

	if !*follow {
		return nil
	}

	if *interval <= 0 {
		*interval = cfg.GetPollInterval()
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			out, err := render()
			if err != nil {
				return err
			}
			if !bytes.Equal(out, last) {
				fmt.Fprintf(stdout, "%s\n", out)
				last = out
			}
		}
	}
}

// applyOutcome records the result of one operation file so output can be
// printed in input order after the workers finish.
type applyOutcome struct {
	file       string
	result     formbd.Blob
	provenance formbd.Blob
	err        error
}

func cmdApply(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	dbPath := fs.String("db", "", "database path (defaults to cli.database from config)")
	modeFlag := fs.String("mode", "rw", "transaction mode: rw or ro")
	jobs := fs.Int("jobs", 0, "concurrent operations (defaults to cli.apply_jobs from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	files := fs.Args()
	if len(files) == 0 {
		return errors.New("apply: no operation files given")
	}

	mode, err := parseTxnMode(*modeFlag)
	if err != nil {
		return err
	}

	cfg, log, err := setup(cf)
	if err != nil {
		return err
	}

	if *jobs == 0 {
		*jobs = cfg.CLI.ApplyJobs
	}
	if *jobs < 1 {
		return errors.New("apply: --jobs must be at least 1")
	}

	db, err := openDB(cfg, log, *dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	// Begin serialises on the shared database handle; each operation then
	// runs concurrently inside its own transaction.
	var beginMu sync.Mutex

	outcomes := make([]applyOutcome, len(files))

	var g errgroup.Group
	g.SetLimit(*jobs)
	for i, file := range files {
		g.Go(func() error {
			outcomes[i] = applyFile(ctx, db, &beginMu, mode, file)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, oc := range outcomes {
		if oc.err != nil {
			failed++
			fmt.Fprintf(stdout, "%s: %v\n", oc.file, oc.err)
			continue
		}

		fmt.Fprintf(stdout, "%s: ok\n", oc.file)
		if !oc.result.IsZero() {
			fmt.Fprintf(stdout, "  result: %s\n", renderCompact(oc.result))
		}
		if !oc.provenance.IsZero() {
			fmt.Fprintf(stdout, "  provenance: %s\n", renderCompact(oc.provenance))
		}
	}

	log.Info("apply finished", "files", len(files), "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d operations failed", failed, len(files))
	}
	return nil
}

// applyFile runs one operation file in its own transaction: read,
// transcode when the file is JSON, begin, apply, commit. The transaction
// is aborted on apply failure so the engine never holds a half-done
// transaction for a failed file.
func applyFile(ctx context.Context, db *formbd.DB, beginMu *sync.Mutex, mode formbd.TxnMode, file string) applyOutcome {
	out := applyOutcome{file: file}

	if err := ctx.Err(); err != nil {
		out.err = err
		return out
	}

	op, err := os.ReadFile(file)
	if err != nil {
		out.err = err
		return out
	}

	if strings.EqualFold(filepath.Ext(file), ".json") {
		op, err = opformat.JSONToCBOR(op)
		if err != nil {
			out.err = fmt.Errorf("transcoding: %w", err)
			return out
		}
	}

	beginMu.Lock()
	txn, err := db.Begin(mode)
	beginMu.Unlock()
	if err != nil {
		out.err = fmt.Errorf("beginning transaction: %w", err)
		return out
	}

	res, err := txn.Apply(op)
	if err != nil {
		txn.Abort()
		out.err = err
		return out
	}

	if err := txn.Commit(); err != nil {
		out.err = fmt.Errorf("committing: %w", err)
		return out
	}

	out.result = res.Result
	out.provenance = res.Provenance
	return out
}

func cmdCheck(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	dbPath := fs.String("db", "", "database path (defaults to cli.database from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, err := setup(cf)
	if err != nil {
		return err
	}

	db, err := openDB(cfg, log, *dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	fmt.Fprintf(stdout, "database: %s\n", db.Path())
	if ev, verr := formbd.EngineVersion(); verr == nil {
		fmt.Fprintf(stdout, "engine: %s\n", ev)
	}

	st := db.Stats()
	fmt.Fprintf(stdout, "healthy (native calls: %d)\n", st.NativeCalls)
	return nil
}

// commonFlags are shared by every subcommand that opens a database.
type commonFlags struct {
	config    string
	logLevel  string
	logFormat string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.config, "config", "", "config file path (defaults to FORMBD_CONFIG, then "+defaultConfigPath+")")
	fs.StringVar(&cf.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	fs.StringVar(&cf.logFormat, "log-format", "", "override logging.format (text, json, pretty)")
	return cf
}

// setup loads configuration, applies flag overrides, and builds the logger.
func setup(cf *commonFlags) (*config.Config, *logging.Logger, error) {
	cfg, err := loadConfig(cf.config)
	if err != nil {
		return nil, nil, err
	}

	if cf.logLevel != "" {
		cfg.Logging.Level = cf.logLevel
	}
	if cf.logFormat != "" {
		cfg.Logging.Format = cf.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, logging.New(cfg.Logging, version), nil
}

// loadConfig resolves the config file from the --config flag, then the
// FORMBD_CONFIG environment variable, then the default path. A missing
// file is only an error when it was named explicitly; otherwise built-in
// defaults plus environment overrides are used.
func loadConfig(flagPath string) (*config.Config, error) {
	path := flagPath
	explicit := flagPath != ""
	if !explicit {
		path = getConfigPath()
		explicit = os.Getenv("FORMBD_CONFIG") != ""
	}

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return config.Default()
	}

	return config.Load(path)
}

// getConfigPath returns the configuration file path.
// Uses FORMBD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FORMBD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func openDB(cfg *config.Config, log *logging.Logger, dbPath string) (*formbd.DB, error) {
	path := dbPath
	if path == "" {
		path = cfg.CLI.Database
	}

	db, err := formbd.Open(path, formbd.Config{
		LibraryPath: cfg.Engine.Library,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	return db, nil
}

func closeDB(db *formbd.DB, log *logging.Logger) {
	if err := db.Close(); err != nil {
		log.Error("error closing database", "error", err)
	}
}

func parseTxnMode(s string) (formbd.TxnMode, error) {
	switch s {
	case "rw", "readwrite", "read-write":
		return formbd.TxnReadWrite, nil
	case "ro", "readonly", "read-only":
		return formbd.TxnReadOnly, nil
	default:
		return 0, fmt.Errorf("unknown transaction mode %q (want rw or ro)", s)
	}
}

func renderCompact(blob formbd.Blob) string {
	out, err := opformat.RenderCompact(blob)
	if err != nil {
		return fmt.Sprintf("<%d bytes, %v>", len(blob.Bytes), err)
	}
	return string(out)
}
