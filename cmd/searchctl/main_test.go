package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRangeCommand_Bounded(t *testing.T) {
	out, err := run(t, "range", "this-weekend", "--now", "2025-01-15T10:00:00+04:00")
	require.NoError(t, err)

	var got rangeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "this_weekend", string(got.Range))
	assert.False(t, got.Recurring)
	require.NotNil(t, got.Start)
	require.NotNil(t, got.End)
	assert.Equal(t, time.Date(2025, 1, 17, 20, 0, 0, 0, time.UTC), got.Start.UTC())
	assert.Equal(t, time.Date(2025, 1, 19, 19, 59, 59, 999999000, time.UTC), got.End.UTC())
}

func TestRangeCommand_Recurring(t *testing.T) {
	out, err := run(t, "range", "weekends")
	require.NoError(t, err)

	var got rangeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Recurring)
	assert.Nil(t, got.Start)
}

func TestRangeCommand_Errors(t *testing.T) {
	_, err := run(t, "range", "someday")
	assert.ErrorContains(t, err, "unknown named range")

	_, err = run(t, "range", "today", "--now", "yesterday")
	assert.ErrorContains(t, err, "RFC3339")

	_, err = run(t, "range")
	assert.Error(t, err)
}

func TestExplainCommand(t *testing.T) {
	out, err := run(t, "explain", "concerts", "--now", "2025-01-15T10:00:00+04:00")
	require.NoError(t, err)

	var got struct {
		Intent struct {
			Categories []string `json:"categories"`
		} `json:"intent"`
		Plan struct {
			Strict  map[string]any `json:"strict"`
			Relaxed map[string]any `json:"relaxed"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"music"}, got.Intent.Categories)
	assert.NotEmpty(t, got.Plan.Strict)
	assert.NotEmpty(t, got.Plan.Relaxed)
}

func TestExplainCommand_BadFamilyFlag(t *testing.T) {
	_, err := run(t, "explain", "kids activities", "--family", "maybe")
	assert.ErrorContains(t, err, "--family")
}
