package types

// NodeExecutionStatus is the run state of a node, derived from its BaseData.
type NodeExecutionStatus string

const (
	StatusIdle    NodeExecutionStatus = "idle"
	StatusLoading NodeExecutionStatus = "loading"
	StatusSuccess NodeExecutionStatus = "success"
	StatusFailed  NodeExecutionStatus = "failed"
	StatusInvalid NodeExecutionStatus = "invalid" // required input missing
)

// Status derives the execution status from the loading and error fields.
func (b BaseData) Status() NodeExecutionStatus {
	switch {
	case b.IsLoading:
		return StatusLoading
	case b.ValidationError != "":
		return StatusInvalid
	case b.Error != "":
		return StatusFailed
	case b.Output != "":
		return StatusSuccess
	}
	return StatusIdle
}
