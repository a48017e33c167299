// Package gelf ships log entries to a Graylog input over UDP.
package gelf

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// Writer sends GELF messages over UDP. It consumes one zap JSON entry per
// Write, so it can back a zapcore.WriteSyncer.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Write implements io.Writer. Each call sends one GELF message. Input that
// is not a JSON object is sent verbatim as an informational message.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(p, time.Now()))
	if err != nil {
		return len(p), nil // don't fail the log call
	}

	// Fire-and-forget
	w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) Sync() error { return nil }

func (w *Writer) Close() error { return w.conn.Close() }

func (w *Writer) message(p []byte, now time.Time) map[string]any {
	msg := map[string]any{
		"version":  "1.1",
		"host":     w.hostname,
		"level":    6,
		"_service": w.service,
	}

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		msg["short_message"] = strings.TrimRight(string(p), "\n")
		msg["timestamp"] = float64(now.UnixNano()) / 1e9
		return msg
	}

	msg["short_message"], _ = entry["msg"].(string)
	if lvl, ok := entry["level"].(string); ok {
		msg["level"] = syslogLevel(lvl)
	}
	if ts, ok := entry["ts"].(float64); ok {
		msg["timestamp"] = ts
	} else {
		msg["timestamp"] = float64(now.UnixNano()) / 1e9
	}
	if st, ok := entry["stacktrace"].(string); ok {
		msg["full_message"] = st
	}
	for k, v := range entry {
		switch k {
		case "msg", "level", "ts", "stacktrace", "id":
			continue
		}
		msg["_"+k] = fieldValue(v)
	}
	return msg
}

// syslogLevel maps zap level names onto GELF's syslog severities.
func syslogLevel(lvl string) int {
	switch lvl {
	case "debug":
		return 7
	case "info":
		return 6
	case "warn":
		return 4
	case "error":
		return 3
	case "dpanic", "panic", "fatal":
		return 2
	}
	return 6
}

// fieldValue flattens values GELF cannot carry as additional fields.
func fieldValue(v any) any {
	switch x := v.(type) {
	case string, float64, bool:
		return x
	case nil:
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
