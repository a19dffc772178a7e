package models

// SideEffectResult is the outcome of a secondary write. A failed side effect
// never fails the operation that triggered it.
type SideEffectResult struct {
	Name string
	Err  error
}

func (s SideEffectResult) Failed() bool {
	return s.Err != nil
}

type SideEffects []SideEffectResult

func (s SideEffects) Failures() []SideEffectResult {
	var failed []SideEffectResult
	for _, r := range s {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

type KycIntakeResult struct {
	Case        KycCase
	UploadUrl   string
	ExpiresIn   int
	SideEffects SideEffects
}

type KycIngestionResult struct {
	CaseId            string
	Extraction        ExtractionRecord
	ExtractionBlobUrl string
	SideEffects       SideEffects
}

type KycAnalysisResult struct {
	CaseId     string
	Assessment RiskAssessment
	Status     KycStatus
}

type KycReviewDetail struct {
	Case       KycCase
	Extraction *ExtractionRecord
}

type KycIngestionInput struct {
	CaseId   string
	BlobUrl  string
	BlobName string
}

type KycDecisionInput struct {
	CaseId   string
	Decision string
	Note     string
}
