package constants

// RunStatus is the orchestrator state between and during batch runs.
type RunStatus string

const (
	RunStatusIdle       RunStatus = "IDLE"
	RunStatusSubmitting RunStatus = "SUBMITTING"
)

// DocumentStatus tracks one document inside a run.
type DocumentStatus string

const (
	DocumentStatusRequesting DocumentStatus = "REQUESTING"
	DocumentStatusSucceeded  DocumentStatus = "SUCCEEDED"
	DocumentStatusFailed     DocumentStatus = "FAILED"
)
