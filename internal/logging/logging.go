package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotating log file.
const FileName = "itrack.log"

// Init installs the global logger with two sinks: stderr and a rotating file
// in Dir().
func Init(verbose bool) error {
	// Init runs before config.Load, so the binary-relative .env is read here too.
	if exePath, err := os.Executable(); err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	fileWriter, err := NewFileWriter(Dir())
	if err != nil {
		return err
	}

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.Logger = New(os.Stderr, fileWriter, verbose, !isTerminal)
	return nil
}

// Dir is the log directory: ITRACK_LOG_DIR, else logs/ next to the executable.
func Dir() string {
	if dir := os.Getenv("ITRACK_LOG_DIR"); dir != "" {
		return dir
	}
	exePath, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(exePath), "logs")
}

// NewFileWriter prepares a rotating writer in dir, failing early when the
// directory cannot be written.
func NewFileWriter(dir string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %q: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return nil, fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}, nil
}

// New builds a logger writing human-readable lines to console and JSON lines
// to file. A nil file disables the file sink.
func New(console, file io.Writer, verbose, noColor bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}

	var out io.Writer = consoleWriter
	if file != nil {
		out = zerolog.MultiLevelWriter(consoleWriter, file)
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
