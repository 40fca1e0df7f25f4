// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// PLACECTL_LOG env variable. Output goes to stderr so it never mixes with
// search results on stdout.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("PLACECTL_LOG"))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(NewHandler(os.Stderr))

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.ErrorLevel
	}
	log.SetLevel(lvl)
}

// CustomHandler formats log messages as a single line per entry.
type CustomHandler struct {
	w io.Writer
}

// NewHandler returns a CustomHandler writing to w.
func NewHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{w: w}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}

	_, err := fmt.Fprintln(h.w, b.String())
	return err
}
