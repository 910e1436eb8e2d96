package telemetry

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

func TestPromptYesNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answer string
		want   bool
	}{
		{answer: "y\n", want: true},
		{answer: "Y\n", want: true},
		{answer: "yes\n", want: true},
		{answer: "  Yep  \n", want: true},
		{answer: "y", want: true},
		{answer: "n\n", want: false},
		{answer: "no\n", want: false},
		{answer: "\n", want: false},
		{answer: "", want: false},
		{answer: "sure\n", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			got := promptYesNo(t.Context(), strings.NewReader(tt.answer), &out, consentQuestion)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Would you like to enable telemetry? (y/n)\n", out.String())
		})
	}
}

func TestPromptYesNoReadError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	got := promptYesNo(t.Context(), iotest.ErrReader(errors.New("closed")), &out, consentQuestion)

	assert.False(t, got)
}

func TestPrintDisclosure(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printDisclosure(&out, "my-cli")

	text := out.String()
	assert.Contains(t, text, "my-cli")
	assert.Contains(t, text, "Basic usage statistics")
	assert.Contains(t, text, "We DO NOT collect:")
	assert.Contains(t, text, "Private keys or addresses")
}

func TestStreamsAreTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.False(t, StreamsAreTerminal(strings.NewReader(""), &buf)())

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	assert.False(t, StreamsAreTerminal(f, f)())
}
