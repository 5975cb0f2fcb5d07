package main

import (
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlagSet() (*flag.FlagSet, *bool, *string) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	reveal := fs.Bool("reveal", false, "")
	notes := fs.String("notes", "", "")
	return fs, reveal, notes
}

func TestParseInterspersed(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		want   []string
		reveal bool
		notes  string
	}{
		{"flags first", []string{"-reveal", "abc"}, []string{"abc"}, true, ""},
		{"flags after", []string{"abc", "-reveal"}, []string{"abc"}, true, ""},
		{"between", []string{"a", "-notes", "x", "b"}, []string{"a", "b"}, false, "x"},
		{"terminator", []string{"--", "-x"}, []string{"-x"}, false, ""},
		{"terminator after positional", []string{"a", "--", "-reveal", "b"}, []string{"a", "-reveal", "b"}, false, ""},
		{"flag after terminator", []string{"-reveal", "--", "-notes", "y"}, []string{"-notes", "y"}, true, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs, reveal, notes := newTestFlagSet()
			got, err := parseInterspersed(fs, tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.reveal, *reveal)
			assert.Equal(t, tc.notes, *notes)
		})
	}
}

func TestParseInterspersed_UnknownFlag(t *testing.T) {
	fs, _, _ := newTestFlagSet()
	_, err := parseInterspersed(fs, []string{"a", "-nope"})
	assert.Error(t, err)
}

func TestReadSecret(t *testing.T) {
	secret, err := readSecret(strings.NewReader("hunter2\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), secret)

	secret, err = readSecret(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, []byte("no-newline"), secret)
}
