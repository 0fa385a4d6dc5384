package pipeline

import (
	"sort"

	"vedexpert/internal"
	"vedexpert/internal/util"
)

const (
	candidatePool  = 50
	candidateLimit = 5
	minTokenLen    = 3
)

// rankCandidates searches the catalog by name and orders hits by text
// similarity to the query.
func (s *Service) rankCandidates(q string) []internal.Candidate {
	normalized := util.NormalizeText(q)
	if normalized == "" {
		return nil
	}

	seen := map[string]struct{}{}
	var pool []internal.TariffEntry
	add := func(entries []internal.TariffEntry) {
		for _, e := range entries {
			if _, ok := seen[e.Code]; ok {
				continue
			}
			seen[e.Code] = struct{}{}
			pool = append(pool, e)
		}
	}

	add(s.catalog.SearchByName(normalized, candidatePool))
	// Whole-phrase search misses multi-word and inflected queries; fall back
	// to the stem of each token.
	if len(pool) < candidateLimit {
		for _, tok := range util.Tokenize(normalized, minTokenLen) {
			needle := util.Stem(tok)
			if len([]rune(needle)) < minTokenLen {
				needle = tok
			}
			add(s.catalog.SearchByName(needle, candidatePool))
		}
	}
	if len(pool) == 0 {
		return nil
	}

	queryTokens := util.Tokenize(normalized, 1)
	out := make([]internal.Candidate, 0, len(pool))
	for _, e := range pool {
		header := util.NormalizeText(e.Name)
		score := scoreHeader(normalized, header, queryTokens, util.Tokenize(header, 1))
		out = append(out, internal.Candidate{Code: e.Code, Name: e.Name, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > candidateLimit {
		out = out[:candidateLimit]
	}
	return out
}

func scoreHeader(query, candidate string, queryTokens, candidateTokens []string) float64 {
	dice := util.DiceCoefficient(query, candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return dice
	}

	set := map[string]struct{}{}
	for _, t := range candidateTokens {
		set[util.Stem(t)] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := set[util.Stem(t)]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}
