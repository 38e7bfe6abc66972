package recovery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfcore/observability"
	"github.com/wudi/pdfcore/recovery"
)

type captureLogger struct {
	observability.NopLogger
	warned []string
}

func (l *captureLogger) Warn(msg string, _ ...observability.Field) { l.warned = append(l.warned, msg) }

func TestCollectorRecordsAndLogs(t *testing.T) {
	log := &captureLogger{}
	c := recovery.NewCollector(log)

	warn := c.Func("parser")
	warn("unterminated array", 17)
	c.ObjectFunc("stream", 4, 0)("missing endstream", 230)

	require.Equal(t, 2, c.Len())
	ws := c.Warnings()
	assert.Equal(t, "[parser] offset 17: unterminated array", ws[0].String())
	assert.Equal(t, "[stream] object 4 0 offset 230: missing endstream", ws[1].String())
	assert.Equal(t, []string{"unterminated array", "missing endstream"}, log.warned)

	c.Reset()
	assert.Zero(t, c.Len())
}

func TestCollectorWarningsIsACopy(t *testing.T) {
	c := recovery.NewCollector(nil)
	c.Func("xref")("bad entry", 3)
	ws := c.Warnings()
	ws[0].Message = "changed"
	assert.Equal(t, "bad entry", c.Warnings()[0].Message)
}
