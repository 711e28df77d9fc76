package assets

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func dirWith(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	return dir
}

func TestLocate_ExactShortCircuitsWeakerStrategies(t *testing.T) {
	dir := dirWith(t, "john-smith.pdf", "john-smith-old.pdf")

	m, err := NewLocator(testLogger()).Locate(dir, "john-smith")
	require.NoError(t, err)

	assert.Equal(t, "john-smith.pdf", m.Filename)
	assert.Equal(t, "exact", m.Strategy)
	assert.Equal(t, ConfidenceExact, m.Confidence)
	assert.False(t, m.Ambiguous)
}

func TestLocate_PrefixedMatch(t *testing.T) {
	dir := dirWith(t, "jane-doe-300x300.jpg", "someone-else.jpg")

	m, err := NewLocator(testLogger()).Locate(dir, "jane-doe")
	require.NoError(t, err)

	assert.Equal(t, "jane-doe-300x300.jpg", m.Filename)
	assert.Equal(t, "prefixed", m.Strategy)
	assert.Equal(t, ConfidenceFuzzy, m.Confidence)
}

func TestLocate_UnderscorePrefix(t *testing.T) {
	dir := dirWith(t, "jane-doe_scaled.jpg")

	m, err := NewLocator(testLogger()).Locate(dir, "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "jane-doe_scaled.jpg", m.Filename)
	assert.Equal(t, "prefixed", m.Strategy)
}

func TestLocate_SubstringMatch(t *testing.T) {
	dir := dirWith(t, "wp-1234-jane-doe-headshot.jpg")

	m, err := NewLocator(testLogger()).Locate(dir, "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "substring", m.Strategy)
}

func TestLocate_NormalizedMatch(t *testing.T) {
	dir := dirWith(t, "jane.doe!.jpg")

	m, err := NewLocator(testLogger()).Locate(dir, "janedoe")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe!.jpg", m.Filename)
	assert.Equal(t, "normalized", m.Strategy)
}

func TestLocate_WordSubsetMatch(t *testing.T) {
	dir := dirWith(t, "IMG_smith_jonathan_2019.jpg")

	m, err := NewLocator(testLogger()).Locate(dir, "jonathan-smith")
	require.NoError(t, err)
	assert.Equal(t, "IMG_smith_jonathan_2019.jpg", m.Filename)
	assert.Equal(t, "word-subset", m.Strategy)
	assert.Equal(t, ConfidenceFuzzy, m.Confidence)
}

func TestLocate_WordSubsetIgnoresShortWords(t *testing.T) {
	// Both slug words are <= 3 chars, so the strategy must not fire at all.
	dir := dirWith(t, "something.jpg")

	_, err := NewLocator(testLogger()).Locate(dir, "jo-ng")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLocate_AmbiguousPrefersShortest(t *testing.T) {
	dir := dirWith(t, "jane-doe-oldest-archive-copy.jpg", "jane-doe-1.jpg")

	m, err := NewLocator(testLogger()).Locate(dir, "jane-doe")
	require.NoError(t, err)

	assert.True(t, m.Ambiguous)
	assert.Equal(t, "jane-doe-1.jpg", m.Filename)
	assert.Len(t, m.Candidates, 2)
}

func TestLocate_AmbiguousPrefersExactBasename(t *testing.T) {
	// Two files with the slug as basename: the exact one listed first wins.
	dir := dirWith(t, "jane-doe.jpg", "jane-doe.png")

	m, err := NewLocator(testLogger()).Locate(dir, "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "exact", m.Strategy)
	assert.True(t, m.Ambiguous)
	assert.Equal(t, "jane-doe.jpg", m.Filename)
	assert.Len(t, m.Candidates, 2)
}

func TestLocate_NotFound(t *testing.T) {
	dir := dirWith(t, "someone-else.jpg")

	_, err := NewLocator(testLogger()).Locate(dir, "jane-doe")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLocate_IgnoresDirectories(t *testing.T) {
	dir := dirWith(t, "other.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "jane-doe"), 0o755))

	_, err := NewLocator(testLogger()).Locate(dir, "jane-doe")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLocate_MissingDirIsError(t *testing.T) {
	_, err := NewLocator(testLogger()).Locate(filepath.Join(t.TempDir(), "nope"), "jane-doe")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMatch)
}
