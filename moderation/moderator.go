// Package moderation masks blacklisted words in message bodies before they
// reach the conversation log.
package moderation

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"messenger-lab/errors"
)

//go:embed wordlist/*.txt
var wordlistFS embed.FS

type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// NewModerator builds the Aho-Corasick automaton from a lowercase word list.
func NewModerator(words []string, censoredChar rune) (*Moderator, error) {
	if len(words) == 0 {
		return nil, errors.ErrEmptyWordlist
	}
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = []rune(strings.ToLower(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, censoredChar: censoredChar}, nil
}

// NewDefaultModerator loads the embedded word lists.
func NewDefaultModerator(censoredChar rune) (*Moderator, error) {
	words, err := loadEmbeddedWords()
	if err != nil {
		return nil, err
	}
	return NewModerator(words, censoredChar)
}

// Censor replaces every blacklisted span with the censor character.
// Matching is case-insensitive; rune positions are preserved so the masked
// text keeps the original length.
func (m *Moderator) Censor(original string) string {
	runes := []rune(original)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	spans := m.matcher.MultiPatternSearch(lowered, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		for i := span.Pos; i < span.Pos+len(span.Word) && i < len(runes); i++ {
			runes[i] = m.censoredChar
		}
	}
	return string(runes)
}

func loadEmbeddedWords() ([]string, error) {
	entries, err := fs.ReadDir(wordlistFS, "wordlist")
	if err != nil {
		return nil, err
	}

	unique := make(map[string]struct{})
	for _, entry := range entries {
		data, err := wordlistFS.ReadFile("wordlist/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(strings.NewReader(string(data)))
		for scanner.Scan() {
			word := strings.TrimSpace(strings.ToLower(scanner.Text()))
			if word != "" && !strings.HasPrefix(word, "#") {
				unique[word] = struct{}{}
			}
		}
	}

	words := make([]string, 0, len(unique))
	for word := range unique {
		words = append(words, word)
	}
	return words, nil
}
