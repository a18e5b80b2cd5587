package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/console"
	"github.com/aanand-mishra/student-records/internal/export"
	"github.com/aanand-mishra/student-records/internal/records"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/csvfile"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configPath string
	noColor    bool
}

// newRootCommand creates the students command tree.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "students",
		Short: "Student Records - manage a file-backed table of students",
		Long: `Interactive manager for student records.

Insert students (an id is generated for each), search by id or by part of
the name, edit fields and remove records. Every change is written to the
configured file immediately.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the configuration YAML file (or CONFIG_PATH)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newExportCommand(opts))

	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "run",
		Short:        "Start the interactive menu (default)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, opts)
		},
	}
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the student table as XLSX, YAML or JSON",
		Long: `Write a snapshot of the student table to another format.

Without --out the document is written to stdout (not useful for xlsx).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return runExport(cmd, opts, f, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.XLSX), "output format (xlsx|yaml|json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	return cmd
}

// session is everything a command needs once startup succeeded.
type session struct {
	cfg   *config.Config
	log   *slog.Logger
	store *records.Store
	close func() error
}

// startup runs steps 1-3 of the startup sequence. A table that exists but
// cannot be loaded is fatal: the command fails instead of starting empty
// and overwriting it on the first save.
func startup(opts *rootOptions) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	log := setupLogger(cfg.Env)
	log.Info("starting students",
		slog.String("env", cfg.Env),
		slog.String("backend", cfg.Storage.Backend),
		slog.String("path", cfg.Storage.Path),
	)

	backend, closeBackend := newBackend(cfg.Storage)
	store, err := records.Open(backend, records.WithLogger(log))
	if err != nil {
		_ = closeBackend()
		log.Error("failed to load student table", slog.String("error", err.Error()))
		return nil, fmt.Errorf("load student table: %w", err)
	}

	return &session{cfg: cfg, log: log, store: store, close: closeBackend}, nil
}

// newBackend picks the storage implementation named in the config.
// Backend values are validated by config.Load.
func newBackend(cfg config.Storage) (storage.Storage, func() error) {
	if cfg.Backend == "sqlite" {
		db := sqlite.New(cfg.Path)
		return db, db.Close
	}
	return csvfile.New(cfg.Path), func() error { return nil }
}

func runConsole(cmd *cobra.Command, opts *rootOptions) error {
	s, err := startup(opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.close()
	}()

	conOpts := []console.Option{console.WithConfirmWord(s.cfg.ConfirmWord)}
	if opts.noColor {
		conOpts = append(conOpts, console.WithoutColor())
	}
	con := console.New(s.store, cmd.InOrStdin(), cmd.OutOrStdout(), conOpts...)

	// The menu blocks on user input, so it runs in its own goroutine while
	// this one waits for either its end or a Ctrl+C / SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- con.Run()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("final save: %w", err)
		}
		s.log.Info("stopped")
		return nil
	case <-ctx.Done():
		// Every mutation was saved when it happened; nothing is pending.
		// The deferred close waits for a save the menu may still be running.
		s.log.Info("interrupted, exiting", slog.String("reason", context.Cause(ctx).Error()))
		return nil
	}
}

func runExport(cmd *cobra.Command, opts *rootOptions, format export.Format, out string) error {
	s, err := startup(opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.close()
	}()

	rows := s.store.Records()
	if out == "" {
		return export.Write(cmd.OutOrStdout(), format, rows)
	}
	if err := export.ToFile(out, format, rows); err != nil {
		return err
	}
	s.log.Info("table exported",
		slog.String("format", string(format)),
		slog.String("out", out),
		slog.Int("records", len(rows)))
	return nil
}
