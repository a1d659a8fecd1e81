package pipeline

// Step names, as they appear in logs and wrapped errors.
const (
	StepFilterRecords  = "filter_records"
	StepBuildMatrix    = "build_matrix"
	StepNormalize      = "normalize"
	StepTrainMap       = "train_map"
	StepAssignClusters = "assign_clusters"
	StepSummarize      = "summarize"
	StepEvaluateMap    = "evaluate_map"
)

// Run outcomes reported to observers.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)
