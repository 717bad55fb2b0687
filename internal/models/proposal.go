package models

// SquashProposal is one proposed history squash: fold the source units
// into the target, preserving the target's identity. Confidence is an
// opaque ranking hint on [0, 1], not a calibrated probability.
type SquashProposal struct {
	SourceCommits    []string `json:"source_commits"`
	TargetCommit     string   `json:"target_commit"`
	Reason           string   `json:"reason"`
	SuggestedMessage string   `json:"suggested_message"`
	Confidence       float64  `json:"confidence,omitempty"`
}

// AnalysisResponse is the JSON document the completion service returns for
// an organize analysis prompt.
type AnalysisResponse struct {
	Proposals []SquashProposal `json:"proposals"`
}

// OutputFormat is a JSON schema handed to the completion service to
// constrain structured responses.
type OutputFormat struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}
