package models

// RiskFeatures is the only payload allowed to reach the reasoning service.
// It carries no raw personal data.
type RiskFeatures struct {
	Age                  *int   `json:"age"`
	DocumentType         string `json:"documentType"`
	DocumentNumberMasked string `json:"documentNumberMasked"`
	DocumentNumberHash   string `json:"documentNumberHash"`
	IssuerCountry        string `json:"issuerCountry"`
}

type ReasoningOutput struct {
	Text         string
	ModelVersion string
}

type RiskClassification struct {
	RiskLevel       RiskLevel
	ConfidenceScore float64
	Reasoning       string
	ModelVersion    string
}

const (
	FallbackConfidenceScore = 0.5
	FallbackReasoningPrefix = "Failed to parse model output. Raw response: "
)

type DocumentAnalysisResult struct {
	Raw          []byte
	DocumentType string
}
