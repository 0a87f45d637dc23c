package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"
)

// PrettyJSONHandler is a custom handler that pretty prints JSON in development
type PrettyJSONHandler struct {
	*slog.JSONHandler
	writer io.Writer
}

func (h *PrettyJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	// Convert the record to a map
	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	// Add time and level
	attrs["time"] = r.Time.Format(time.RFC3339)
	attrs["level"] = r.Level.String()
	attrs["msg"] = r.Message

	// Marshal with indentation
	prettyJSON, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return err
	}

	// Write to the handler's writer with newline
	_, err = h.writer.Write(append(prettyJSON, '\n'))
	return err
}

// NewPrettyJSONHandler creates a new pretty JSON handler
func newPrettyJSONHandler() *PrettyJSONHandler {
	return &PrettyJSONHandler{
		JSONHandler: slog.NewJSONHandler(os.Stdout, nil),
		writer:      os.Stdout,
	}
}

var ProdLogger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

var DevLogger = slog.New(newPrettyJSONHandler())

// discardHandler mirrors slog.DiscardHandler, which is unavailable before
// Go 1.24: it reports every level as disabled and drops all records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Nop returns a logger that drops every record. Used where no logger was
// configured.
func Nop() *slog.Logger {
	return slog.New(discardHandler{})
}

// Timed logs a completion record with a duration_ms attribute when the
// returned function runs. Call it at operation start and defer the result:
//
//	defer logging.Timed(ctx, logger, "statement completed", "dialect", name)()
func Timed(ctx context.Context, logger *slog.Logger, msg string, args ...any) func() {
	start := time.Now()
	return func() {
		args := append(args,
			"duration_ms", float64(time.Since(start).Nanoseconds())/1e6)
		logger.DebugContext(ctx, msg, args...)
	}
}
