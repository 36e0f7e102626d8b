package domain

// Pillar identifies one of the three ESG sub-scores.
type Pillar string

const (
	PillarEnvironmental Pillar = "environmental"
	PillarSocial        Pillar = "social"
	PillarGovernance    Pillar = "governance"
)

// Pillars lists every pillar in reporting order.
var Pillars = []Pillar{PillarEnvironmental, PillarSocial, PillarGovernance}

// Record is one company-period ESG observation.
type Record struct {
	Row            int               `json:"row"`
	Issuer         Label             `json:"issuer"`
	AsOf           Date              `json:"as_of_date"`
	Rating         Label             `json:"rating"`
	PreviousRating Label             `json:"previous_rating"`
	Industry       Label             `json:"industry"`
	Country        Label             `json:"country"`
	Pillars        map[Pillar]Number `json:"pillar_scores"`
	TotalScore     Number            `json:"total_score"`

	// Derived fields, filled by the metric calculator.
	RatingRank    Number `json:"rating_rank"`
	PreviousRank  Number `json:"previous_rank"`
	RatingDelta   Number `json:"rating_delta"`
	PillarAverage Number `json:"pillar_average"`
}

// Pillar returns the score for p, absent when the record has none.
func (r *Record) Pillar(p Pillar) Number {
	if r.Pillars == nil {
		return Number{}
	}
	return r.Pillars[p]
}

// HasDateOrRating reports whether the record can reach aggregation.
func (r *Record) HasDateOrRating() bool {
	return r.AsOf.IsPresent() || r.Rating.IsPresent()
}

// DeltaDirection classifies the rating delta of a record.
type DeltaDirection string

const (
	DeltaImproving DeltaDirection = "improving"
	DeltaDeclining DeltaDirection = "declining"
	DeltaStable    DeltaDirection = "stable"
	DeltaUnknown   DeltaDirection = "unknown"
)

// Direction partitions the record by its rating delta. Records without a
// defined delta are DeltaUnknown and belong to none of the other three.
func (r *Record) Direction() DeltaDirection {
	d, ok := r.RatingDelta.Get()
	switch {
	case !ok:
		return DeltaUnknown
	case d > 0:
		return DeltaImproving
	case d < 0:
		return DeltaDeclining
	default:
		return DeltaStable
	}
}
