package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const redactedValue = "[redacted]"

// Attribute keys that may carry personal data of an applicant or a user.
var personalDataKeys = map[string]struct{}{
	"full_name":       {},
	"fullName":        {},
	"dob":             {},
	"date_of_birth":   {},
	"document_number": {},
	"documentNumber":  {},
	"password":        {},
}

// NewLogger builds the process logger. "json" targets log collectors, anything else
// prints the compact local development format.
func NewLogger(format string) *slog.Logger {
	return NewLoggerWithWriter(os.Stdout, format)
}

func NewLoggerWithWriter(w io.Writer, format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				return gcpAttributeReplacer(groups, redactPersonalData(groups, a))
			},
		}))
	}
	return slog.New(newLocalDevHandler(w, slog.LevelDebug, redactPersonalData))
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger, found := ctx.Value(ContextKeyLogger).(*slog.Logger)
	if !found {
		return slog.Default()
	}
	return logger
}

func StoreLoggerInContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ContextKeyLogger, logger)
}

// KycCaseLogger scopes the context logger to one kyc case.
func KycCaseLogger(ctx context.Context, caseId string) *slog.Logger {
	return LoggerFromContext(ctx).With("kyc_id", caseId)
}

func StoreLoggerInContextMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := StoreLoggerInContext(c.Request.Context(), logger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func redactPersonalData(_ []string, a slog.Attr) slog.Attr {
	if _, ok := personalDataKeys[a.Key]; ok {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

// gcpAttributeReplacer renames the message and level keys to what cloud logging parses.
func gcpAttributeReplacer(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.MessageKey:
		a.Key = "message"
	case slog.LevelKey:
		a.Key = "severity"
		level, _ := a.Value.Any().(slog.Level)
		switch {
		case level < slog.LevelInfo:
			a.Value = slog.StringValue("DEBUG")
		case level < slog.LevelWarn:
			a.Value = slog.StringValue("INFO")
		case level < slog.LevelError:
			a.Value = slog.StringValue("WARNING")
		default:
			a.Value = slog.StringValue("ERROR")
		}
	}
	return a
}

// localDevHandler prints "<time> <LEVEL> <message> " in front of the text handler's attributes.
type localDevHandler struct {
	attrs slog.Handler

	mu *sync.Mutex
	w  io.Writer
}

func newLocalDevHandler(w io.Writer, level slog.Level, replace func([]string, slog.Attr) slog.Attr) *localDevHandler {
	return &localDevHandler{
		w:  w,
		mu: &sync.Mutex{},
		attrs: slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
					return slog.Attr{}
				}
				return replace(groups, a)
			},
		}),
	}
}

func (h *localDevHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.attrs.Enabled(ctx, level)
}

func (h *localDevHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s %s ", r.Time.Format(time.RFC3339), colorLevel(r.Level), r.Message)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(buf.Bytes()); err != nil {
		return err
	}
	return h.attrs.Handle(ctx, r)
}

func (h *localDevHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &localDevHandler{w: h.w, mu: h.mu, attrs: h.attrs.WithAttrs(attrs)}
}

func (h *localDevHandler) WithGroup(name string) slog.Handler {
	return &localDevHandler{w: h.w, mu: h.mu, attrs: h.attrs.WithGroup(name)}
}

func colorLevel(level slog.Level) string {
	code := 31 // red
	switch {
	case level < slog.LevelInfo:
		code = 35
	case level < slog.LevelWarn:
		code = 34
	case level < slog.LevelError:
		code = 33
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, level.String())
}
