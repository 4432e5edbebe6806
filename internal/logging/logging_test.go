package logging

import (
	"bytes"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, log.WARN, ParseLevel("warning"))
	assert.Equal(t, log.ERROR, ParseLevel(" error "))
	assert.Equal(t, log.OFF, ParseLevel("off"))
	assert.Equal(t, log.INFO, ParseLevel(""))
	assert.Equal(t, log.INFO, ParseLevel("verbose"))
}

func TestNamedSharesOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	base := New("osari", "warn")
	base.SetOutput(&buf)

	child := Named(base, "sequencer")
	child.Infof("hidden")
	child.Warnf("block %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "block 2")
	assert.Contains(t, out, `"prefix":"sequencer"`)
}

func TestDiscardIsSilent(t *testing.T) {
	l := Discard()
	assert.Equal(t, log.OFF, l.Level())
	assert.NotNil(t, Named(nil, "x"))
}
