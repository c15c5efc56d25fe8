package agent

import (
	"sort"
	"strings"

	"supaco_backend/internal/assistant/repository"

	"github.com/sahilm/fuzzy"
)

type matchTier int

const (
	tierExact matchTier = iota
	tierPrefix
	tierSubstring
	tierPartial
)

type rankedCandidate struct {
	repository.Candidate
	tier  matchTier
	score int
	order int
}

// rankCandidates orders name-search results from the best to the worst match
// of ref: exact, then prefix, then substring, then anything the store matched
// on part of the name. Within a tier the fuzzy score decides, then store order.
func rankCandidates(ref string, candidates []repository.Candidate) []rankedCandidate {
	needle := strings.ToLower(strings.TrimSpace(ref))

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = strings.ToLower(c.Name)
	}
	scores := make(map[int]int, len(candidates))
	for _, m := range fuzzy.Find(needle, names) {
		scores[m.Index] = m.Score
	}

	ranked := make([]rankedCandidate, len(candidates))
	for i, c := range candidates {
		score, ok := scores[i]
		if !ok {
			score = -1 << 30
		}
		ranked[i] = rankedCandidate{Candidate: c, tier: tierOf(needle, names[i]), score: score, order: i}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.order < b.order
	})
	return ranked
}

func tierOf(needle, name string) matchTier {
	switch {
	case name == needle:
		return tierExact
	case strings.HasPrefix(name, needle):
		return tierPrefix
	case strings.Contains(name, needle):
		return tierSubstring
	default:
		return tierPartial
	}
}

// bestCandidate picks the top-ranked candidate. ambiguous reports that the
// runner-up sits in the same tier, so the pick rests on the score alone.
func bestCandidate(ref string, candidates []repository.Candidate) (best repository.Candidate, ambiguous, ok bool) {
	ranked := rankCandidates(ref, candidates)
	if len(ranked) == 0 {
		return repository.Candidate{}, false, false
	}
	ambiguous = len(ranked) > 1 && ranked[1].tier == ranked[0].tier
	return ranked[0].Candidate, ambiguous, true
}
