// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"bytes"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestCustomHandler_HandleLog(t *testing.T) {
	var buf bytes.Buffer
	l := &log.Logger{Handler: NewHandler(&buf), Level: log.DebugLevel}

	l.WithFields(log.Fields{"zeta": 2, "alpha": "x"}).Warn("cache write failed")

	line := buf.String()
	assert.Contains(t, line, " W cache write failed")
	assert.Contains(t, line, "alpha=x zeta=2")
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestCustomHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := &log.Logger{Handler: NewHandler(&buf), Level: log.ErrorLevel}

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Error("shown")
	assert.Contains(t, buf.String(), " E shown")
}
