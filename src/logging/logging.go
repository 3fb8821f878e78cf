package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	color "git.inkwell.blog/inkwell/inkwell/src/ansicolor"
	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.ErrorStackMarshaler = oops.ZerologStackMarshaler
	if config.Config.Env == config.Live {
		// Production logs go to the aggregator as plain JSON lines.
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(NewPrettyZerologWriter())
	}
	zerolog.SetGlobalLevel(config.Config.LogLevel)
}

func GlobalLogger() *zerolog.Logger {
	return &log.Logger
}

func Trace() *zerolog.Event {
	return log.Trace().Timestamp().Stack()
}

func Debug() *zerolog.Event {
	return log.Debug().Timestamp().Stack()
}

func Info() *zerolog.Event {
	return log.Info().Timestamp().Stack()
}

func Warn() *zerolog.Event {
	return log.Warn().Timestamp().Stack()
}

func Error() *zerolog.Event {
	return log.Error().Timestamp().Stack()
}

func Fatal() *zerolog.Event {
	return log.Fatal().Timestamp().Stack()
}

func With() zerolog.Context {
	return log.With().Stack()
}

type loggerContextKey struct{}

func AttachLoggerToContext(logger *zerolog.Logger, ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// Returns the logger attached to ctx, or the global logger if there is none.
func ExtractLogger(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return GlobalLogger()
}

// Writes zerolog's JSON lines as colored, human-readable blocks for local
// development. Entries with extra fields, errors or stacks are set off by a
// rule so request logs stay easy to tell apart.
type PrettyZerologWriter struct {
	out                 io.Writer
	wd                  string
	wasLastLogMultiline bool
}

type prettyEntry struct {
	Timestamp  string
	Level      string
	Message    string
	RequestID  string
	Error      string
	StackTrace []any
	Fields     []prettyField
}

type prettyField struct {
	Name  string
	Value any
}

// Set on every request logger by the router.
const RequestIDFieldName = "requestId"

// Stack frames in our own packages are printed relative to this.
const modulePrefix = "git.inkwell.blog/inkwell/inkwell/"

var levelColors = map[string]string{
	"trace": color.Gray,
	"debug": color.Gray,
	"info":  color.BgBlue,
	"warn":  color.BgYellow,
	"error": color.BgRed,
	"fatal": color.BgRed,
	"panic": color.BgRed,
}

func NewPrettyZerologWriter() *PrettyZerologWriter {
	wd, _ := os.Getwd()
	return &PrettyZerologWriter{
		out: os.Stderr,
		wd:  wd,
	}
}

func parsePrettyEntry(fields map[string]any) prettyEntry {
	var entry prettyEntry
	for name, val := range fields {
		switch name {
		case zerolog.TimestampFieldName:
			entry.Timestamp, _ = val.(string)
		case zerolog.LevelFieldName:
			entry.Level, _ = val.(string)
		case zerolog.MessageFieldName:
			entry.Message, _ = val.(string)
		case zerolog.ErrorFieldName:
			entry.Error, _ = val.(string)
		case zerolog.ErrorStackFieldName:
			entry.StackTrace, _ = val.([]any)
		case RequestIDFieldName:
			entry.RequestID, _ = val.(string)
		default:
			entry.Fields = append(entry.Fields, prettyField{Name: name, Value: val})
		}
	}
	sort.Slice(entry.Fields, func(i, j int) bool {
		return entry.Fields[i].Name < entry.Fields[j].Name
	})
	return entry
}

func (e prettyEntry) multiline() bool {
	return e.Error != "" || e.StackTrace != nil || len(e.Fields) > 0
}

func (w *PrettyZerologWriter) Write(p []byte) (int, error) {
	var fields map[string]any
	if err := json.Unmarshal(p, &fields); err != nil {
		return w.out.Write(p)
	}
	entry := parsePrettyEntry(fields)

	var b strings.Builder
	if entry.multiline() || w.wasLastLogMultiline {
		b.WriteString("---------------------------------------\n")
	}
	writeHeading(&b, entry)
	if entry.Error != "" {
		b.WriteString("  " + color.Bold + color.Red + "ERROR:" + color.Reset + " ")
		b.WriteString(entry.Error)
		b.WriteString("\n")
	}
	writeFields(&b, entry.Fields)
	w.writeStack(&b, entry.StackTrace)
	w.wasLastLogMultiline = entry.multiline()

	_, err := io.WriteString(w.out, b.String())
	return len(p), err
}

func writeHeading(b *strings.Builder, entry prettyEntry) {
	b.WriteString(entry.Timestamp)
	b.WriteString(" ")
	if entry.Level != "" {
		b.WriteString(levelColors[entry.Level] + color.Bold + strings.ToUpper(entry.Level) + color.Reset)
		b.WriteString(": ")
	}
	b.WriteString(entry.Message)
	if entry.RequestID != "" {
		// The first block of a uuid is enough to follow one request.
		short, _, _ := strings.Cut(entry.RequestID, "-")
		b.WriteString(" " + color.Gray + "[" + short + "]" + color.Reset)
	}
	b.WriteString("\n")
}

// Strings and numbers stay on one line; anything else is indented JSON.
func writeFields(b *strings.Builder, fields []prettyField) {
	if len(fields) == 0 {
		return
	}
	b.WriteString("  " + color.Bold + color.Blue + "Fields:" + color.Reset + "\n")
	for _, field := range fields {
		b.WriteString("    " + field.Name + ": ")
		switch v := field.Value.(type) {
		case string:
			b.WriteString(strconv.Quote(v))
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			b.WriteString(strconv.FormatBool(v))
		default:
			valuePretty, _ := json.MarshalIndent(v, "    ", "  ")
			b.Write(valuePretty)
		}
		b.WriteString("\n")
	}
}

func (w *PrettyZerologWriter) writeStack(b *strings.Builder, stack []any) {
	if stack == nil {
		return
	}
	b.WriteString("  " + color.Bold + color.Blue + "Stack trace:" + color.Reset + "\n")
	for _, frame := range stack {
		frameMap, ok := frame.(map[string]any)
		if !ok {
			continue
		}
		file, _ := frameMap["file"].(string)
		function, _ := frameMap["function"].(string)
		line, _ := frameMap["line"].(float64)

		file = strings.Replace(file, w.wd, ".", 1)
		function = strings.TrimPrefix(function, modulePrefix)
		fmt.Fprintf(b, "    %s (%s:%d)\n", function, file, int(line))
	}
}

func LogPanics(logger *zerolog.Logger) {
	if r := recover(); r != nil {
		LogPanicValue(logger, r, "recovered from panic")
	}
}

func LogPanicValue(logger *zerolog.Logger, val any, msg string) {
	if logger == nil {
		logger = GlobalLogger()
	}

	if err, ok := val.(error); ok {
		l := logger.Error().Err(err)
		if _, ok := err.(*oops.Error); !ok {
			l = l.Interface(zerolog.ErrorStackFieldName, oops.Trace())
		}
		l.Msg(msg)
	} else {
		logger.Error().
			Interface("recovered", val).
			Interface(zerolog.ErrorStackFieldName, oops.Trace()).
			Msg(msg)
	}
}
