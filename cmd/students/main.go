// main is the entry point of the Student Records tool.
//
// STARTUP SEQUENCE (students / students run):
//  1. Load configuration (--config flag, CONFIG_PATH, or env/defaults)
//  2. Initialise the logger
//  3. Open the storage backend and load the student table
//  4. Run the interactive menu until the user exits
//  5. Flush the table one last time
//
// RUNNING:
//
//	go run ./cmd/students --config=config/local.yaml
//
// or, without any config file:
//
//	STORAGE_PATH=alunos.csv go run ./cmd/students
//
// Exporting the table:
//
//	go run ./cmd/students export --format xlsx --out students.xlsx
package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// cobra has already printed the error.
		os.Exit(1) // non-zero exit code signals failure to the shell
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Logs go to stderr so they never interleave with the menu on stdout.
//
// Development (dev): tint's human-readable output at DEBUG level,
// coloured only when stderr is a terminal.
// Staging/production: machine-readable JSON.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev"
		return slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      slog.LevelDebug,
				TimeFormat: "15:04:05.000",
				NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
			}),
		)
	}
}
