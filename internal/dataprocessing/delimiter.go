package dataprocessing

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
)

// DefaultDelimiter is used when no candidate splits the sample consistently.
const DefaultDelimiter = ';'

// minConsistency is the share of sampled rows that must agree on a column count.
const minConsistency = 0.8

var delimiterCandidates = []rune{';', ',', '\t', '|'}

// DetectDelimiter samples the first lines of text and picks the candidate
// that yields the same column count (more than one) on most rows. Among
// consistent candidates the one producing more columns wins. A .tsv or .tab
// file name moves tab to the front of the candidate list.
func DetectDelimiter(text, filename string, sampleLines int) rune {
	if sampleLines <= 0 {
		sampleLines = 20
	}
	sample := sampleText(text, sampleLines)
	if sample == "" {
		return DefaultDelimiter
	}

	best, bestWidth := DefaultDelimiter, 0
	for _, candidate := range candidatesFor(filename) {
		width, ratio := columnConsistency(sample, candidate)
		if width < 2 || ratio < minConsistency {
			continue
		}
		if width > bestWidth {
			best, bestWidth = candidate, width
		}
	}
	return best
}

func candidatesFor(filename string) []rune {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tsv", ".tab":
		return append([]rune{'\t'}, without(delimiterCandidates, '\t')...)
	}
	return delimiterCandidates
}

func without(runes []rune, drop rune) []rune {
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		if r != drop {
			out = append(out, r)
		}
	}
	return out
}

func sampleText(text string, lines int) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, strings.TrimRight(line, "\r"))
		if len(kept) == lines {
			break
		}
	}
	return strings.Join(kept, "\n")
}

// columnConsistency returns the most common column count and the share of
// rows having it.
func columnConsistency(sample string, delimiter rune) (int, float64) {
	r := csv.NewReader(strings.NewReader(sample))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	counts := make(map[int]int)
	rows := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		counts[len(record)]++
		rows++
	}
	if rows == 0 {
		return 0, 0
	}

	mode, modeCount := 0, 0
	for width, n := range counts {
		if n > modeCount || (n == modeCount && width > mode) {
			mode, modeCount = width, n
		}
	}
	return mode, float64(modeCount) / float64(rows)
}
