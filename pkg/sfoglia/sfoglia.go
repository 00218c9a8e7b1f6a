// Package sfoglia provides stack-based screen navigation on top of a
// compositing surface. It keeps the navigation logic (route lifecycles,
// forward/back semantics, result passing, transition coordination)
// decoupled from how layers are actually drawn: any environment that can
// render an ordered list of layers can host a navigator through the
// Surface interface.
//
// A Navigator owns an Overlay (the ordered layer list with computed
// visibility) and a history of Routes. Applications describe screens as
// routes, usually ModalRoute, and mutate the stack with Push, Pop,
// Replace, and their named variants. Results flow back to the pusher
// through each route's popped future.
package sfoglia

import (
	"log/slog"

	"github.com/BrandonKowalski/sfoglia/pkg/sfoglia/internal"
)

// DefaultRouteName is the name of the route pushed when no initial route
// is configured.
const DefaultRouteName = "/"

// Options configures a Navigator.
type Options struct {
	// OnGenerateRoute resolves route names to routes. Required for named
	// navigation and bootstrap.
	OnGenerateRoute RouteFactory

	// OnUnknownRoute handles names OnGenerateRoute declined. It must
	// never return nil.
	OnUnknownRoute RouteFactory

	// InitialRoute is the /-delimited path pushed at attach time.
	// Defaults to DefaultRouteName.
	InitialRoute string

	// Observers are notified of every history mutation, in order.
	Observers []Observer

	// LogPath is the full path for the log file, including filename.
	// Empty means console-only logging.
	LogPath string

	// LogLevel is the application log level ("debug", "info", "warn",
	// "error").
	LogLevel string
}

// New creates a detached Navigator. Call Attach with a Surface before
// performing stack operations.
func New(options Options) *Navigator {
	if options.LogPath != "" {
		internal.SetLogPath(options.LogPath)
	}
	if options.LogLevel != "" {
		internal.SetRawLogLevel(options.LogLevel)
	}

	return &Navigator{
		observers:       options.Observers,
		onGenerateRoute: options.OnGenerateRoute,
		onUnknownRoute:  options.OnUnknownRoute,
		initialRoute:    options.InitialRoute,
		popped:          make(map[*RouteBase]Route),
		log:             internal.GetInternalLogger(),
	}
}

// GetLogger returns the application logger for structured logging.
func GetLogger() *slog.Logger {
	return internal.GetLogger()
}

// SetLogPath sets the full path for the log file, including filename.
// Creates all necessary parent directories. Call before New to take
// effect during initialization.
func SetLogPath(path string) {
	internal.SetLogPath(path)
}

// SetLogLevel sets the minimum log level for the application logger.
func SetLogLevel(level slog.Level) {
	internal.SetLogLevel(level)
}

// SetRawLogLevel parses and sets the log level from a string (e.g.,
// "debug", "info", "error").
func SetRawLogLevel(level string) {
	internal.SetRawLogLevel(level)
}

// Close releases logging resources. Call before program exit.
func Close() {
	internal.CloseLogger()
}
