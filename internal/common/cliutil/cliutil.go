// Package cliutil carries the small pieces shared by the two binaries:
// stderr logger construction and the JSON-to-stdout contract.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogLevelEnv overrides the default info level, e.g. "debug" or "error".
const LogLevelEnv = "MODELRUN_LOG_LEVEL"

// NewLogger returns a console logger writing to w. Unparseable level values
// fall back to info.
func NewLogger(w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if v := os.Getenv(LogLevelEnv); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			level = l
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

// WriteJSON pretty-prints v to w. Output is always JSON, even when the
// marshal itself fails.
func WriteJSON(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "{\"error\": %q}\n", err.Error())
		return
	}
	b = append(b, '\n')
	_, _ = w.Write(b)
}
