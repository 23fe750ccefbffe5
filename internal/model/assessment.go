package model

// RiskLevel is the assessor's coarse risk bucket.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Confidence is the assessor's self-reported confidence in its scoring.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// CategoryScores holds the five fixed risk categories, each in [0,100].
type CategoryScores struct {
	Liquidity   int `json:"liquidity"`
	Ownership   int `json:"ownership"`
	Contract    int `json:"contract"`
	TradingRisk int `json:"tradingRisk"`
	Holders     int `json:"holders"`
}

// Reason is one cited justification behind the overall assessment.
type Reason struct {
	Title        string   `json:"title"`
	Detail       string   `json:"detail"`
	EvidenceRefs []string `json:"evidenceRefs"`
}

// Assessment is the final structured risk verdict for a scan.
type Assessment struct {
	Summary        string         `json:"summary"`
	OverallScore   int            `json:"overallScore"`
	RiskLevel      RiskLevel      `json:"riskLevel"`
	Confidence     Confidence     `json:"confidence"`
	CategoryScores CategoryScores `json:"categoryScores"`
	Reasons        []Reason       `json:"reasons"`
	MissingData    []string       `json:"missingData"`
}
