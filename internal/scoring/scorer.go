package scoring

import (
	"regexp"
	"strings"

	"github.com/nexconsult/pncp-vagas/internal/textnorm"
)

var (
	doctorPattern = regexp.MustCompile(`\bmedic[oa]s?\b`)

	hiringPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bcredenciament\w*\b`),
		regexp.MustCompile(`\bchamament\w*\b`),
		regexp.MustCompile(`\bcontrat\w*\b`),
	}
)

// Result is the outcome of scoring one description.
type Result struct {
	Accepted bool `json:"accepted"`
	Score    int  `json:"score"`
	Doctor   bool `json:"doctor_signal"`
	Hiring   bool `json:"hiring_signal"`
	Excluded bool `json:"exclusion_signal"`
}

// Scorer is a pure function over a Vocabulary. Safe for concurrent use.
type Scorer struct {
	vocab Vocabulary
}

// NewScorer creates a scorer for the given vocabulary.
func NewScorer(vocab Vocabulary) *Scorer {
	return &Scorer{vocab: vocab}
}

// NewDefaultScorer creates a scorer with the built-in vocabulary.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultVocabulary())
}

// Vocabulary returns the vocabulary in use.
func (s *Scorer) Vocabulary() Vocabulary {
	return s.vocab
}

// Score classifies a procurement object description.
func (s *Scorer) Score(text string) Result {
	t := textnorm.Normalize(text)
	if t == "" {
		return Result{}
	}

	var r Result
	r.Doctor = doctorPattern.MatchString(t) || containsAny(t, s.vocab.DoctorTerms)
	r.Hiring = containsAny(t, s.vocab.HiringTerms) || matchesAny(t, hiringPatterns)
	r.Excluded = containsAny(t, s.vocab.ExclusionTerms)

	w := s.vocab.Weights
	if r.Doctor {
		r.Score += w.Doctor
	}
	if r.Hiring {
		r.Score += w.Hiring
	}

	for _, b := range s.vocab.Bonuses {
		if b.Each {
			r.Score += b.Points * countContained(t, b.Terms)
			continue
		}
		if containsAny(t, b.Terms) {
			r.Score += b.Points
		}
	}

	if r.Excluded {
		r.Score -= w.Exclusion
	}
	for _, p := range s.vocab.Penalties {
		if strings.Contains(t, p.Term) && !containsAny(t, p.Unless) {
			r.Score -= p.Points
		}
	}

	r.Accepted = r.Doctor && r.Hiring && r.Score >= w.Threshold
	return r
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func countContained(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			n++
		}
	}
	return n
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
