// Package tokenizer builds word-level vocabularies and prepares padded,
// label-shifted batches for calibration and evaluation.
package tokenizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/scoring"
)

const (
	// PadToken fills short rows up to the batch width. It doubles as the
	// end-of-sequence marker, mirroring causal LM tokenizers that reuse eos
	// as pad.
	PadToken = "<pad>"
	// UnkToken absorbs out-of-vocabulary words.
	UnkToken = "<unk>"

	// PadID and UnkID are fixed: specials always occupy the first slots.
	PadID = 0
	UnkID = 1
)

// Vocabulary maps whitespace-delimited words to dense ids.
type Vocabulary struct {
	tokens []string
	ids    map[string]int
}

// Build assembles a vocabulary from the corpus texts. Words are ranked by
// frequency, ties broken lexicographically, and capped at maxSize including
// the two specials.
func Build(texts []string, maxSize int) *Vocabulary {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, w := range strings.Fields(text) {
			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	tokens := []string{PadToken, UnkToken}
	for _, w := range words {
		if len(tokens) >= maxSize {
			break
		}
		tokens = append(tokens, w)
	}

	v := fromTokenList(tokens)
	log.Debug().Msgf("built vocabulary of %d tokens from %d distinct words", len(tokens), len(words))
	return v
}

// FromTokens restores a vocabulary from its persisted token list.
func FromTokens(tokens []string) (*Vocabulary, error) {
	if len(tokens) < 2 || tokens[PadID] != PadToken || tokens[UnkID] != UnkToken {
		return nil, errors.New("token list must start with the pad and unk specials")
	}
	return fromTokenList(tokens), nil
}

func fromTokenList(tokens []string) *Vocabulary {
	ids := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		ids[tok] = i
	}
	return &Vocabulary{tokens: tokens, ids: ids}
}

// Size returns the number of tokens, specials included.
func (v *Vocabulary) Size() int { return len(v.tokens) }

// Tokens returns the id-ordered token list for persistence.
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

// ID resolves a word, falling back to the unk id.
func (v *Vocabulary) ID(word string) int {
	if id, ok := v.ids[word]; ok {
		return id
	}
	return UnkID
}

// Encode tokenizes one text, truncated to maxLen words.
func (v *Vocabulary) Encode(text string, maxLen int) []int {
	words := strings.Fields(text)
	if len(words) > maxLen {
		words = words[:maxLen]
	}
	ids := make([]int, len(words))
	for i, w := range words {
		ids[i] = v.ID(w)
	}
	return ids
}

// PrepareBatch encodes the texts, right-pads every row to the width of the
// longest one, and shifts the ids left into next-token labels. The final
// position of each row has no successor and is excluded from the loss; padded
// positions keep their shifted labels and contribute like any other.
func (v *Vocabulary) PrepareBatch(texts []string, maxLen int) (inputIDs, labels [][]int, err error) {
	rows := make([][]int, len(texts))
	width := 0
	for i, text := range texts {
		rows[i] = v.Encode(text, maxLen)
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}
	if width < 2 {
		return nil, nil, fmt.Errorf("batch width %d is too short to shift labels", width)
	}

	inputIDs = make([][]int, len(rows))
	labels = make([][]int, len(rows))
	for i, row := range rows {
		padded := make([]int, width)
		copy(padded, row)
		for j := len(row); j < width; j++ {
			padded[j] = PadID
		}

		shifted := make([]int, width)
		copy(shifted, padded[1:])
		shifted[width-1] = scoring.IgnoreLabel

		inputIDs[i] = padded
		labels[i] = shifted
	}
	return inputIDs, labels, nil
}
