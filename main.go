package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aukolov/bank-statement-parser/internal/api"
	"github.com/aukolov/bank-statement-parser/internal/batch"
	"github.com/aukolov/bank-statement-parser/internal/config"
	"github.com/aukolov/bank-statement-parser/internal/continuity"
	"github.com/aukolov/bank-statement-parser/internal/logger"
	"github.com/aukolov/bank-statement-parser/internal/metrics"
	"github.com/aukolov/bank-statement-parser/internal/models"
	"github.com/aukolov/bank-statement-parser/internal/parser"
	"github.com/aukolov/bank-statement-parser/internal/writer"
)

const version = "2.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries the resolved configuration shared by all commands.
type cli struct {
	cfg *config.Config
	log zerolog.Logger

	bank     string
	workers  int
	trace    bool
	logLevel string
	out      string
	format   string
	addr     string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "bank-statement-parser",
		Short: "Convert bank statement PDFs to CSV",
		Long: `Extracts transactions from bank statement PDFs, checks running balances
and statement continuity, and writes Date,Description,Amount files.

Configuration is read from .env and STATEMENTS_* environment variables;
flags override both.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.bank, "bank", "", "statement format (auto-detected per file if omitted); see 'banks'")
	pf.IntVar(&c.workers, "workers", 1, "number of files converted in parallel")
	pf.BoolVar(&c.trace, "trace", false, "log every token and state transition")
	pf.StringVar(&c.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")

	root.AddCommand(c.convertCmd(), c.serveCmd(), c.banksCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("bank") {
		cfg.Bank = c.bank
	}
	if flags.Changed("workers") {
		cfg.Workers = c.workers
	}
	if flags.Changed("trace") {
		cfg.Trace = c.trace
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Lookup("out") != nil && flags.Changed("out") {
		cfg.OutputDir = c.out
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.HTTPAddr = c.addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	levelName := cfg.LogLevel
	if cfg.Trace {
		levelName = "trace"
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logger.New(level)
	return nil
}

func (c *cli) processor(m *metrics.Metrics) (*batch.Processor, error) {
	var bank models.BankType
	if c.cfg.Bank != "" {
		b, err := parser.ParseBankType(c.cfg.Bank)
		if err != nil {
			return nil, fmt.Errorf("%w (supported: %s)", err, strings.Join(bankNames(), ", "))
		}
		bank = b
	}
	return &batch.Processor{
		Bank:    bank,
		Workers: c.cfg.Workers,
		Logger:  c.log,
		Trace:   c.cfg.Trace,
		Metrics: m,
	}, nil
}

func (c *cli) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file.pdf|dir>...",
		Short: "Convert statement files or directories",
		Long: `Converts each argument. A single file X.pdf is written to X.csv.
A directory is searched recursively for PDF files and one file per account
is written as statement_<account>_gen<timestamp>.csv.`,
		Example: `  # Auto-detect bank and convert
  bank-statement-parser convert statement.pdf

  # Convert a folder of Revolut statements to Excel
  bank-statement-parser convert --bank=revolut --format=xlsx --out=out/ statements/`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runConvert,
	}
	cmd.Flags().StringVar(&c.out, "out", "", "output directory (defaults next to the input file, or the working directory for folders)")
	cmd.Flags().StringVar(&c.format, "format", "csv", "output format: csv or xlsx")
	return cmd
}

type transactionWriter interface {
	WriteToFile(path string, txns []models.Transaction) error
}

func newWriter(format string) (transactionWriter, string, error) {
	switch strings.ToLower(format) {
	case "csv":
		return &writer.CSVWriter{}, ".csv", nil
	case "xlsx":
		return &writer.XLSXWriter{}, ".xlsx", nil
	}
	return nil, "", fmt.Errorf("unknown output format %q, use csv or xlsx", format)
}

func (c *cli) runConvert(cmd *cobra.Command, args []string) error {
	w, ext, err := newWriter(c.format)
	if err != nil {
		return c.fail(err)
	}
	proc, err := c.processor(nil)
	if err != nil {
		return c.fail(err)
	}

	var all []models.Statement
	now := time.Now()
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return c.fail(fmt.Errorf("input not found: %w", err))
		}
		statements, err := proc.Process(cmd.Context(), path)
		if err != nil {
			return c.fail(err)
		}
		if len(statements) == 0 {
			c.log.Warn().Str("path", path).Msg("No statements found")
		}
		all = append(all, statements...)

		if info.IsDir() {
			err = c.writeAccounts(w, statements, ext, now)
		} else {
			err = c.writeFile(w, path, statements, ext)
		}
		if err != nil {
			return c.fail(err)
		}
	}

	for _, warning := range continuity.Validate(all) {
		c.log.Warn().Str("account", warning.Account).Str("kind", warning.Kind.String()).Msg(warning.String())
	}
	c.log.Info().Int("statements", len(all)).Msg("Done")
	return nil
}

func (c *cli) writeFile(w transactionWriter, input string, statements []models.Statement, ext string) error {
	var txns []models.Transaction
	for _, s := range statements {
		txns = append(txns, s.Transactions...)
	}
	out := outputPath(input, c.cfg.OutputDir, ext)
	if err := w.WriteToFile(out, txns); err != nil {
		return err
	}
	c.log.Info().Str("output", out).Int("transactions", len(txns)).Msg("Written")
	return nil
}

func (c *cli) writeAccounts(w transactionWriter, statements []models.Statement, ext string, now time.Time) error {
	if c.cfg.OutputDir != "" {
		if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir %q: %w", c.cfg.OutputDir, err)
		}
	}
	accounts, byAccount := continuity.Group(statements)
	for _, acc := range accounts {
		var txns []models.Transaction
		for _, s := range byAccount[acc] {
			txns = append(txns, s.Transactions...)
		}
		out := filepath.Join(c.cfg.OutputDir, accountFileName(acc, now, ext))
		if err := w.WriteToFile(out, txns); err != nil {
			return err
		}
		c.log.Info().Str("account", acc).Str("output", out).Int("transactions", len(txns)).Msg("Written")
	}
	return nil
}

func (c *cli) fail(err error) error {
	ev := c.log.Error().Err(err)
	if kind := batch.Kind(err); kind != "internal" {
		ev = ev.Str("kind", kind)
	}
	var fe *batch.FileError
	if errors.As(err, &fe) {
		ev = ev.Str("file", fe.Path)
	}
	ev.Msg("Conversion failed")
	return err
}

// outputPath names the output for a single input file: X.pdf becomes X.csv,
// placed in outDir when set.
func outputPath(input, outDir, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input)) + ext
	if outDir == "" {
		return base
	}
	return filepath.Join(outDir, filepath.Base(base))
}

// accountFileName names the per-account output of a directory batch.
func accountFileName(account string, now time.Time, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, account)
	return fmt.Sprintf("statement_%s_gen%s%s", safe, now.Format("20060102-150405"), ext)
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := metrics.New()
			proc, err := c.processor(m)
			if err != nil {
				return c.fail(err)
			}
			h := &api.Handler{Processor: proc, Metrics: m, Version: version}
			app := api.NewApp(h, c.log, c.cfg.MaxUploadMB)

			errCh := make(chan error, 1)
			go func() {
				c.log.Info().Str("addr", c.cfg.HTTPAddr).Msg("Listening")
				errCh <- app.Listen(c.cfg.HTTPAddr)
			}()

			select {
			case err := <-errCh:
				return c.fail(err)
			case <-cmd.Context().Done():
			}
			c.log.Info().Msg("Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.ShutdownWithContext(ctx)
		},
	}
	cmd.Flags().StringVar(&c.addr, "addr", ":8080", "listen address")
	return cmd
}

func (c *cli) banksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List supported statement formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, b := range parser.Banks() {
				p, err := parser.New(b)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-18s %s\n", b, p.BankName())
			}
			return nil
		},
	}
}

func bankNames() []string {
	var names []string
	for _, b := range parser.Banks() {
		names = append(names, string(b))
	}
	return names
}
