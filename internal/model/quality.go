package model

// QualityReport is the structural verdict on a narrative that
// references a KPISummary. It is data for the calling layer, never an
// error: a failed report triggers a fallback narrative upstream but
// does not block the pipeline.
type QualityReport struct {
	Passed          bool               `json:"passed"`
	Score           float64            `json:"score"`
	Level           string             `json:"level"`
	MissingSections []string           `json:"missingSections,omitempty"`
	MissingKeywords []string           `json:"missingKeywords,omitempty"`
	Dimensions      map[string]float64 `json:"dimensions,omitempty"`
	Length          int                `json:"length"`
}
