package domain

import (
	"fmt"
	"strings"
)

// RatingScale is an immutable total order over rating labels. Higher rank
// means a better rating.
type RatingScale struct {
	name   string
	labels []string
	ranks  map[string]int
}

// NewRatingScale builds a scale from labels ordered best first. The best
// label receives rank len(labels), the worst rank 1.
func NewRatingScale(name string, labelsBestFirst []string) (*RatingScale, error) {
	if len(labelsBestFirst) == 0 {
		return nil, fmt.Errorf("rating scale %q has no labels", name)
	}

	s := &RatingScale{
		name:   name,
		labels: make([]string, 0, len(labelsBestFirst)),
		ranks:  make(map[string]int, len(labelsBestFirst)),
	}
	for i, raw := range labelsBestFirst {
		label := NormalizeRating(raw)
		if label == "" {
			return nil, fmt.Errorf("rating scale %q: label %d is blank", name, i+1)
		}
		if _, dup := s.ranks[label]; dup {
			return nil, fmt.Errorf("rating scale %q: duplicate label %q", name, label)
		}
		s.ranks[label] = len(labelsBestFirst) - i
		s.labels = append(s.labels, label)
	}
	return s, nil
}

// MSCIRatingLabels is the default letter scale, best first.
var MSCIRatingLabels = []string{"AAA", "AA", "A", "BBB", "BB", "B", "CCC", "CC", "C", "D"}

// DefaultRatingScale returns the MSCI-style scale AAA=10 ... D=1.
func DefaultRatingScale() *RatingScale {
	s, err := NewRatingScale("msci", MSCIRatingLabels)
	if err != nil {
		panic(err)
	}
	return s
}

// NormalizeRating trims and upper-cases a rating label.
func NormalizeRating(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// Name returns the configured scale name
func (s *RatingScale) Name() string {
	return s.name
}

// Labels returns a copy of the labels, best first.
func (s *RatingScale) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Rank returns the rank of label and whether the label is on the scale.
func (s *RatingScale) Rank(label string) (int, bool) {
	r, ok := s.ranks[NormalizeRating(label)]
	return r, ok
}

// Contains reports whether label is on the scale.
func (s *RatingScale) Contains(label string) bool {
	_, ok := s.Rank(label)
	return ok
}
