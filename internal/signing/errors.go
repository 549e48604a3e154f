package signing

import "fmt"

// OutcomeError reports a signing request that reached a terminal state
// other than Completed. The artifact made it to the service; a policy or
// approval decision stopped it. That is semantically distinct from the
// infrastructure failures the rest of the run surfaces.
type OutcomeError struct {
	// Status is the terminal status as reported by the service.
	Status string
	// WorkflowStatus is the detailed workflow state at termination.
	WorkflowStatus string
}

func (e *OutcomeError) Error() string {
	return fmt.Sprintf("signing request did not complete successfully. Status: %s, workflow status: %s",
		e.Status, e.WorkflowStatus)
}
