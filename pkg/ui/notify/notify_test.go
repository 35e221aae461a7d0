package notify_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

func TestConvenienceFunctionsPrefixSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(w *bytes.Buffer)
		symbol string
	}{
		{
			name:   "error",
			write:  func(w *bytes.Buffer) { notify.Errorf(w, "boom") },
			symbol: "✗ ",
		},
		{
			name:   "warning",
			write:  func(w *bytes.Buffer) { notify.Warningf(w, "careful") },
			symbol: "⚠ ",
		},
		{
			name:   "activity",
			write:  func(w *bytes.Buffer) { notify.Activityf(w, "working") },
			symbol: "► ",
		},
		{
			name:   "success",
			write:  func(w *bytes.Buffer) { notify.Successf(w, "done") },
			symbol: "✔ ",
		},
		{
			name:   "info",
			write:  func(w *bytes.Buffer) { notify.Infof(w, "fyi") },
			symbol: "ℹ ",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			testCase.write(&buf)

			assert.Contains(t, buf.String(), testCase.symbol)
		})
	}
}

func TestWriteMessageFormatsArgs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.WriteMessage(notify.Message{
		Type:    notify.ActivityType,
		Content: "creating cluster %s (attempt %d/%d)",
		Args:    []any{"host", 1, 20},
		Writer:  &buf,
	})

	assert.Contains(t, buf.String(), "creating cluster host (attempt 1/20)")
}

func TestWriteMessageWithoutArgsKeepsContentVerbatim(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.WriteMessage(notify.Message{
		Type:    notify.InfoType,
		Content: "100% complete",
		Writer:  &buf,
	})

	assert.Contains(t, buf.String(), "100% complete")
}
