package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Level: DEBUG, INFO, WARN, ERROR
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ErrObj is attached to ERROR entries.
type ErrObj struct {
	Msg   string `json:"msg"`
	Code  string `json:"code,omitempty"`
	Stack string `json:"stack,omitempty"`
}

// Entry is one JSON log line.
type Entry struct {
	Timestamp  string         `json:"timestamp"`             // ISO 8601 (UTC)
	Level      string         `json:"level"`                 // INFO | DEBUG | WARN | ERROR
	Service    string         `json:"service"`               // e.g., coverage-service
	Action     string         `json:"action"`                // event name, e.g., insurance_period_updated
	Message    string         `json:"message"`               // human-readable
	Hostname   string         `json:"hostname"`              // container/host
	RequestID  string         `json:"request_id,omitempty"`  // correlation id
	DriverID   string         `json:"driver_id,omitempty"`   // when applicable
	TrackingID string         `json:"tracking_id,omitempty"` // insurance tracking id
	Error      *ErrObj        `json:"error,omitempty"`
	Additional map[string]any `json:"additional,omitempty"`
}

// Options configure NewLoggerWithOptions. Zero values mean stdout/stderr and INFO.
type Options struct {
	MinLevel string
	Pretty   bool
	Out      io.Writer
	Err      io.Writer
	// Caller adds file:line of the log call into Additional["caller"].
	Caller bool
}

type Logger struct {
	service  string
	minLevel Level
	hostname string
	pretty   bool
	caller   bool

	outWriter io.Writer
	errWriter io.Writer
	mu        sync.Mutex

	exit func(int)
}

// NewLogger writes to stdout/stderr; LOG_LEVEL and LOG_PRETTY are read from env.
func NewLogger(service string) *Logger {
	return NewLoggerWithOptions(service, Options{
		MinLevel: os.Getenv("LOG_LEVEL"),
		Pretty:   strings.ToLower(os.Getenv("LOG_PRETTY")) == "true",
		Caller:   true,
	})
}

func NewLoggerWithOptions(service string, opts Options) *Logger {
	h, _ := os.Hostname()
	l := &Logger{
		service:   service,
		minLevel:  ParseLevel(opts.MinLevel),
		hostname:  h,
		pretty:    opts.Pretty,
		caller:    opts.Caller,
		outWriter: opts.Out,
		errWriter: opts.Err,
		exit:      os.Exit,
	}
	if l.outWriter == nil {
		l.outWriter = os.Stdout
	}
	if l.errWriter == nil {
		if opts.Out != nil {
			l.errWriter = opts.Out
		} else {
			l.errWriter = os.Stderr
		}
	}
	return l
}

// Nop discards everything. Used by tests and CLI one-shots.
func Nop() *Logger {
	return NewLoggerWithOptions("nop", Options{MinLevel: "ERROR", Out: io.Discard})
}

func (l *Logger) Service() string { return l.service }

func (l *Logger) Debug(e Entry) { l.log(LevelDebug, e, nil) }
func (l *Logger) Info(e Entry)  { l.log(LevelInfo, e, nil) }
func (l *Logger) Warn(e Entry)  { l.log(LevelWarn, e, nil) }
func (l *Logger) Error(e Entry) { l.log(LevelError, e, nil) }
func (l *Logger) Fatal(e Entry) {
	if e.Error == nil {
		e.Error = &ErrObj{Msg: e.Message, Stack: string(debug.Stack())}
	} else if e.Error.Stack == "" {
		e.Error.Stack = string(debug.Stack())
	}
	l.log(LevelError, e, nil)
	l.exit(1)
}

// WithFields returns a logger that merges base into every entry.
func (l *Logger) WithFields(base map[string]any) *ContextLogger {
	return &ContextLogger{parent: l, base: base}
}

// WithDriver attaches request_id and driver_id.
func (l *Logger) WithDriver(requestID, driverID string) *ContextLogger {
	base := map[string]any{}
	if requestID != "" {
		base["request_id"] = requestID
	}
	if driverID != "" {
		base["driver_id"] = driverID
	}
	return &ContextLogger{parent: l, base: base}
}

type ContextLogger struct {
	parent *Logger
	base   map[string]any
}

func (c *ContextLogger) Debug(e Entry) { c.parent.log(LevelDebug, e, c.base) }
func (c *ContextLogger) Info(e Entry)  { c.parent.log(LevelInfo, e, c.base) }
func (c *ContextLogger) Warn(e Entry)  { c.parent.log(LevelWarn, e, c.base) }
func (c *ContextLogger) Error(e Entry) { c.parent.log(LevelError, e, c.base) }

var reservedKeys = map[string]struct{}{
	"timestamp": {}, "level": {}, "service": {}, "action": {}, "message": {},
	"hostname": {}, "request_id": {}, "driver_id": {}, "tracking_id": {},
}

func (l *Logger) log(level Level, e Entry, base map[string]any) {
	if level < l.minLevel {
		return
	}

	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if e.Level == "" {
		e.Level = level.String()
	}
	if e.Service == "" {
		e.Service = l.service
	}
	if e.Hostname == "" {
		e.Hostname = l.hostname
	}
	e = mergeEntry(e, base)

	if l.caller {
		if e.Additional == nil {
			e.Additional = make(map[string]any)
		}
		if _, ok := e.Additional["caller"]; !ok {
			if pc, file, line, ok := runtime.Caller(2); ok {
				e.Additional["caller"] = fmt.Sprintf("%s:%d (%s)", file, line, funcName(runtime.FuncForPC(pc)))
			}
		}
	}

	var (
		b   []byte
		err error
	)
	if l.pretty {
		b, err = json.MarshalIndent(e, "", "  ")
	} else {
		b, err = json.Marshal(e)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		fmt.Fprintf(l.errWriter, `{"timestamp":"%s","level":"ERROR","service":"%s","message":"failed to marshal log: %v"}`+"\n",
			time.Now().UTC().Format(time.RFC3339Nano), l.service, err)
		return
	}

	writer := l.outWriter
	if level == LevelError {
		writer = l.errWriter
	}
	_, _ = writer.Write(append(b, '\n'))
}

func funcName(fn *runtime.Func) string {
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func mergeEntry(e Entry, base map[string]any) Entry {
	if base == nil {
		return e
	}
	if e.RequestID == "" {
		e.RequestID = toString(base["request_id"])
	}
	if e.DriverID == "" {
		e.DriverID = toString(base["driver_id"])
	}
	if e.TrackingID == "" {
		e.TrackingID = toString(base["tracking_id"])
	}
	for k, v := range base {
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		if e.Additional == nil {
			e.Additional = map[string]any{}
		}
		if _, exists := e.Additional[k]; !exists {
			e.Additional[k] = v
		}
	}
	return e
}
