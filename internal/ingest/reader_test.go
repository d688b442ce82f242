package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPartitions(t *testing.T) {
	path := writeCSV(t, "subreddit\ngolang\nrust\ndeals\n")

	got, err := LoadPartitions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang", "rust", "deals"}, got)
}

func TestLoadPartitionsSkipsInvalidNames(t *testing.T) {
	path := writeCSV(t, "subreddit\ngolang\nab\nhas space\nthis_name_is_way_too_long_for_reddit\nok_name\n")

	got, err := LoadPartitions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang", "ok_name"}, got)
}

func TestLoadPartitionsStripsBOM(t *testing.T) {
	path := writeCSV(t, "\uFEFFsubreddit\ngolang\n")

	got, err := LoadPartitions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, got)
}

func TestLoadPartitionsHeaderOnly(t *testing.T) {
	path := writeCSV(t, "subreddit\n")

	got, err := LoadPartitions(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadPartitionsMissingFile(t *testing.T) {
	_, err := LoadPartitions(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadKeywords(t *testing.T) {
	path := writeCSV(t, "keyword\nBuy Now\n  FLASH SALE  \n\npromo code\n")

	got, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"buy now", "flash sale", "promo code"}, got)
}

func TestLoadKeywordsTrimsWhitespaceOnly(t *testing.T) {
	path := writeCSV(t, "keyword\n   \ndiscount\n")

	got, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"discount"}, got)
}
