package main

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStderr(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	old := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = old }()

	done := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		done <- string(b)
	}()

	f()
	require.NoError(t, w.Close())
	return <-done
}

func TestRun_CommandErrorIsPrintedOnce(t *testing.T) {
	var code int
	stderr := captureStderr(t, func() {
		code = run([]string{"--simulate", "--log-level", "off", "lookup", "0x12"})
	})
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(stderr, "invalid transaction hash"), stderr)
}

func TestRun_UnknownFlag(t *testing.T) {
	var code int
	stderr := captureStderr(t, func() {
		code = run([]string{"--no-such-flag"})
	})
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(stderr, "no-such-flag"), stderr)
}

func TestRun_LookupUnknownHash(t *testing.T) {
	var code int
	captureStderr(t, func() {
		code = run([]string{"--simulate", "--log-level", "off", "lookup",
			"0x00000000000000000000000000000000000000000000000000000000deadbeef"})
	})
	assert.Equal(t, 0, code)
}
