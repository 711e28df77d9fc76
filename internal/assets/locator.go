package assets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoMatch means no strategy produced a candidate. The caller must skip
// the asset and record the failure, never fabricate a placeholder.
var ErrNoMatch = errors.New("no file matches slug")

// Confidence tags how strict the winning strategy was.
type Confidence int

const (
	ConfidenceExact Confidence = iota
	ConfidenceFuzzy
)

// Match is the locator's answer. Ambiguous matches carry every candidate the
// winning strategy produced; callers must explicitly accept them before
// doing anything irreversible with the file.
type Match struct {
	Filename   string
	Strategy   string
	Confidence Confidence
	Ambiguous  bool
	Candidates []string
}

// Locator finds the best-matching file for a slug using an ordered cascade
// of strategies. Legacy filenames are a mess (media-library numeric IDs,
// "-300x300" size suffixes, "-scaled") so a single strict rule would miss
// too many real matches; the cascade trades false-positive risk for recall,
// which is why weaker strategies return fuzzy confidence.
type Locator struct {
	logger *slog.Logger
}

func NewLocator(logger *slog.Logger) *Locator {
	return &Locator{logger: logger.With("component", "locator")}
}

type strategy struct {
	name       string
	confidence Confidence
	match      func(slug string, names []string) []string
}

var strategies = []strategy{
	{"exact", ConfidenceExact, matchExact},
	{"prefixed", ConfidenceFuzzy, matchPrefixed},
	{"substring", ConfidenceFuzzy, matchSubstring},
	{"normalized", ConfidenceFuzzy, matchNormalized},
	{"word-subset", ConfidenceFuzzy, matchWordSubset},
}

// Locate walks the cascade in order; the first strategy yielding any
// candidates wins and no weaker strategy is consulted.
func (l *Locator) Locate(dir, slug string) (*Match, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}

	slug = strings.ToLower(strings.TrimSpace(slug))

	for _, st := range strategies {
		candidates := st.match(slug, names)
		if len(candidates) == 0 {
			continue
		}

		m := &Match{
			Strategy:   st.name,
			Confidence: st.confidence,
			Filename:   candidates[0],
		}
		if len(candidates) > 1 {
			m.Ambiguous = true
			m.Candidates = candidates
			m.Filename = pickBest(slug, candidates)
			l.logger.Warn("ambiguous file match",
				"slug", slug,
				"strategy", st.name,
				"picked", m.Filename,
				"candidates", len(candidates),
			)
		}
		return m, nil
	}

	return nil, fmt.Errorf("%w: %q in %s", ErrNoMatch, slug, dir)
}

// pickBest prefers an exact basename, then the shortest filename.
func pickBest(slug string, candidates []string) string {
	for _, c := range candidates {
		if baseName(c) == slug {
			return c
		}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) < len(best) {
			best = c
		}
	}
	return best
}

func baseName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
}

func matchExact(slug string, names []string) []string {
	var out []string
	for _, n := range names {
		if baseName(n) == slug {
			out = append(out, n)
		}
	}
	return out
}

func matchPrefixed(slug string, names []string) []string {
	var out []string
	for _, n := range names {
		base := baseName(n)
		if strings.HasPrefix(base, slug+"-") || strings.HasPrefix(base, slug+"_") {
			out = append(out, n)
		}
	}
	return out
}

func matchSubstring(slug string, names []string) []string {
	var out []string
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), slug) {
			out = append(out, n)
		}
	}
	return out
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)

func normalize(s string) string {
	return nonSlugChars.ReplaceAllString(strings.ToLower(s), "")
}

func matchNormalized(slug string, names []string) []string {
	normSlug := normalize(slug)
	if normSlug == "" {
		return nil
	}
	var out []string
	for _, n := range names {
		base := normalize(baseName(n))
		if base == normSlug || strings.HasPrefix(base, normSlug+"-") {
			out = append(out, n)
		}
	}
	return out
}

// matchWordSubset succeeds when every slug word longer than three characters
// appears somewhere in the filename. Short words ("de", "van", "jo") match
// far too much to be useful.
func matchWordSubset(slug string, names []string) []string {
	var words []string
	for _, w := range strings.Split(slug, "-") {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil
	}

	var out []string
	for _, n := range names {
		lower := strings.ToLower(n)
		all := true
		for _, w := range words {
			if !strings.Contains(lower, w) {
				all = false
				break
			}
		}
		if all {
			out = append(out, n)
		}
	}
	return out
}
