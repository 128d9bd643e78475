package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerHidesDebugUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, false)

	l.Debugf("GET %s\n", "/manga/Vagabond")
	l.Warnf("skipping chapter %s", "100025")

	out := buf.String()
	assert.NotContains(t, out, "/manga/Vagabond")
	assert.Contains(t, out, "skipping chapter 100025")
	assert.NotContains(t, out, "100025\n\n")
}

func TestLoggerVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, true)

	l.Debugf("GET %s", "/manga/Vagabond")
	assert.Contains(t, buf.String(), "/manga/Vagabond")
}

func TestProgressHandleNilSafe(t *testing.T) {
	var pm *MPBProgressManager
	h := pm.Register("chapter 1")

	assert.Nil(t, h)
	h.SetTotal(3)
	h.AddBytes(10)
	h.PageDone()
	h.MarkDone(true)
	pm.Close()
}
