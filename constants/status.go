package constants

// JobStatus tracks one background analysis run.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// AnalysisPhase names the ordered structuring phases.
type AnalysisPhase string

const (
	PhaseBasicExtraction AnalysisPhase = "BASIC_EXTRACTION"
	PhaseItemAnalysis    AnalysisPhase = "ITEM_ANALYSIS"
	PhaseRiskAnalysis    AnalysisPhase = "RISK_ANALYSIS"
	PhaseDone            AnalysisPhase = "DONE"
	PhaseError           AnalysisPhase = "ERROR"
)

// StrategyName identifies one extraction strategy.
type StrategyName string

const (
	StrategyLayoutTable StrategyName = "layout-table"
	StrategyFlowTable   StrategyName = "flow-table"
	StrategyTextPattern StrategyName = "text-pattern"
	StrategyOCRFallback StrategyName = "ocr-fallback"
)
