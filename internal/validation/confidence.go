package validation

const (
	weightCompleteness = 0.40
	weightConsistency  = 0.30
	weightLLM          = 0.30
)

// scoreConfidence combines the three quality signals into one score.
//
//	confidence = 0.40*completeness + 0.30*consistency + 0.30*llm_confidence
//
// consistency is the fraction of the six business rules that passed,
// counting warnings as failures.
func scoreConfidence(completeness float64, violationCount int, llmConfidence float64) float64 {
	consistency := float64(RuleCount-violationCount) / float64(RuleCount)
	if consistency < 0 {
		consistency = 0
	}
	return clamp01(weightCompleteness*completeness + weightConsistency*consistency + weightLLM*llmConfidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
