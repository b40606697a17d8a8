package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_WritesFieldsInOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := New("sforce", "debug", &buf)
	logger.Info("Accessing api", map[string]interface{}{
		"url":    "https://api.test.com/rest/v1.0/simple/",
		"method": "GET",
	})

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "sforce: Accessing api")
	assert.Contains(t, out, "method=GET url=https://api.test.com/rest/v1.0/simple/")
}

func TestLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := New("sforce", "warn", &buf)
	logger.Debug("hidden", nil)
	logger.Info("hidden", nil)
	logger.Error("shown", map[string]interface{}{"code": 500})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "code=500")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		Discard().Error("dropped", map[string]interface{}{"k": "v"})
	})
}
