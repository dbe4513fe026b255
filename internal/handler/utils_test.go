package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		cmd  string
		args string
	}{
		{"/warn", "warn", ""},
		{"/warn spamming again", "warn", "spamming again"},
		{"/Warn@WardenBot too rude", "warn", "too rude"},
		{"/warnlimit 5", "warnlimit", "5"},
		{"not a command", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		cmd, args := parseCommand(tt.text)
		assert.Equal(t, tt.cmd, cmd, "text %q", tt.text)
		assert.Equal(t, tt.args, args, "text %q", tt.text)
	}
}

func TestSplitQuotes(t *testing.T) {
	tests := []struct {
		text  string
		first string
		rest  string
	}{
		{"spam watch your language", "spam", "watch your language"},
		{`"very bad words" that's a warning`, "very bad words", "that's a warning"},
		{`'single quoted' reply here`, "single quoted", "reply here"},
		{`"escaped \" quote" rest`, `escaped " quote`, "rest"},
		{`"unterminated rest of text`, `"unterminated`, "rest of text"},
		{"single", "single", ""},
		{"", "", ""},
		{"   padded   ", "padded", ""},
	}

	for _, tt := range tests {
		first, rest := splitQuotes(tt.text)
		assert.Equal(t, tt.first, first, "text %q", tt.text)
		assert.Equal(t, tt.rest, rest, "text %q", tt.text)
	}
}
