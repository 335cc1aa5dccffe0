// Package dictionary provides word lists for play validation and move generation.
package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
)

// WordList is an immutable set of playable words.
type WordList struct {
	words  map[string]struct{}
	sorted []string
}

// New builds a word list. Words are upper-cased; entries with characters
// outside A-Z or shorter than the minimum word length are dropped.
func New(words []string) *WordList {
	wl := &WordList{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = normalize(w)
		if w == "" {
			continue
		}
		if _, dup := wl.words[w]; dup {
			continue
		}
		wl.words[w] = struct{}{}
		wl.sorted = append(wl.sorted, w)
	}
	sort.Strings(wl.sorted)
	return wl
}

// Load reads one word per line. Blank lines and lines starting with '#' are skipped.
func Load(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	return New(words), nil
}

func normalize(w string) string {
	w = strings.ToUpper(strings.TrimSpace(w))
	if len(w) < domain.MinWordLength {
		return ""
	}
	for _, r := range w {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return w
}

func (wl *WordList) Contains(word string) bool {
	_, ok := wl.words[strings.ToUpper(word)]
	return ok
}

// Words returns the words in sorted order. The slice must not be modified.
func (wl *WordList) Words() []string {
	return wl.sorted
}

func (wl *WordList) Len() int {
	return len(wl.sorted)
}

// Permissive accepts every word made of letters A-Z. It offers no words to move generation.
type Permissive struct{}

func (Permissive) Contains(word string) bool {
	return normalize(word) != ""
}

func (Permissive) Words() []string {
	return nil
}
