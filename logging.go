package main

import (
	"log/slog"
	"os"
)

// logging.go - verbosity-driven log/slog setup.
//
// spec.md §6 defines four verbosity tiers (warn/info/debug/trace) where
// slog itself only ships three built-in levels; LevelTrace is added below
// the same way slog's own docs suggest extending the level set, and
// xyproto/flapc's VerboseMode-gated fmt.Fprintf(os.Stderr, ...) calls
// become structured slog.Debug/slog.Log(ctx, LevelTrace, ...) calls at
// the same call sites.

const LevelTrace = slog.Level(-8)

// InitLogging installs a text-handler slog logger as the default logger,
// with its minimum level derived from a repeatable -v flag count: 0 =
// warn, 1 = info, 2 = debug, >=3 = trace.
func InitLogging(verbosity int) {
	level := slog.LevelWarn
	switch {
	case verbosity >= 3:
		level = LevelTrace
	case verbosity == 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
}
