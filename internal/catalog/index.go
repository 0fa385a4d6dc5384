package catalog

import (
	"sort"
	"strings"

	"vedexpert/internal"
	"vedexpert/internal/util"
)

const minIndexTokenLen = 3

type Index struct {
	Entries            []internal.TariffEntry
	ByCode             map[string]int
	NormalizedName     []string
	NormalizedDesc     []string
	TokenToPositions   map[string][]int
	Vocabulary         []string
	NormalizedGroupPos map[string][]int
}

func BuildIndex(entries []internal.TariffEntry) *Index {
	idx := &Index{
		Entries:            entries,
		ByCode:             map[string]int{},
		NormalizedName:     make([]string, len(entries)),
		NormalizedDesc:     make([]string, len(entries)),
		TokenToPositions:   map[string][]int{},
		NormalizedGroupPos: map[string][]int{},
	}

	for i, e := range entries {
		if _, exists := idx.ByCode[e.Code]; !exists {
			idx.ByCode[e.Code] = i
		}
		idx.NormalizedName[i] = util.NormalizeText(e.Name)
		idx.NormalizedDesc[i] = util.NormalizeText(e.Description)

		group := util.NormalizeText(e.Group)
		idx.NormalizedGroupPos[group] = append(idx.NormalizedGroupPos[group], i)

		seen := map[string]struct{}{}
		for _, token := range util.Tokenize(e.Name+" "+e.Description, minIndexTokenLen) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			idx.TokenToPositions[token] = append(idx.TokenToPositions[token], i)
		}
	}

	idx.Vocabulary = make([]string, 0, len(idx.TokenToPositions))
	for token := range idx.TokenToPositions {
		idx.Vocabulary = append(idx.Vocabulary, token)
	}
	sort.Strings(idx.Vocabulary)
	return idx
}

// candidates narrows the entries that can contain query as a substring.
// A token of the query lies inside one token of any matching entry, so the
// vocabulary is scanned for tokens containing the longest query token.
// ok is false when the query has no indexable token.
func (idx *Index) candidates(query string) (positions []int, ok bool) {
	tokens := util.Tokenize(query, minIndexTokenLen)
	if len(tokens) == 0 {
		return nil, false
	}
	longest := tokens[0]
	for _, t := range tokens[1:] {
		if len([]rune(t)) > len([]rune(longest)) {
			longest = t
		}
	}

	set := map[int]struct{}{}
	for _, token := range idx.Vocabulary {
		if !strings.Contains(token, longest) {
			continue
		}
		for _, pos := range idx.TokenToPositions[token] {
			set[pos] = struct{}{}
		}
	}

	positions = make([]int, 0, len(set))
	for pos := range set {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions, true
}

func (idx *Index) matches(pos int, query string) bool {
	return strings.Contains(idx.NormalizedName[pos], query) || strings.Contains(idx.NormalizedDesc[pos], query)
}
