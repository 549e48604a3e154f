package signpath

// Status is the closed set of signing request states zign understands.
// Wire values outside this set classify as StatusUnrecognized; they are
// never guessed to be terminal based on the string alone.
type Status string

const (
	// StatusPending covers a request the service has accepted but not
	// finished processing.
	StatusPending Status = "Pending"
	// StatusCompleted means the artifact was signed and can be downloaded.
	StatusCompleted Status = "Completed"
	// StatusFailed means the signing workflow failed on the service side.
	StatusFailed Status = "Failed"
	// StatusDenied means an approver rejected the signing request.
	StatusDenied Status = "Denied"
	// StatusCanceled means the request was canceled before completion.
	StatusCanceled Status = "Canceled"
	// StatusUnrecognized marks any wire status outside the known set.
	StatusUnrecognized Status = "Unrecognized"
)

// SigningRequest identifies one submitted signing request by the status
// URL returned in the Location header of the submit response. One request
// per artifact; never resubmitted within a run.
type SigningRequest struct {
	StatusURL string
}

// RequestStatus maps the JSON body of the status endpoint.
type RequestStatus struct {
	// Status is the raw status string as reported by the service.
	Status string `json:"status"`

	// WorkflowStatus is the detailed workflow processing state.
	WorkflowStatus string `json:"workflowStatus"`

	// IsFinalStatus reports whether the service considers the request
	// terminal, independent of whether we recognize the status string.
	IsFinalStatus bool `json:"isFinalStatus"`

	// SignedArtifactLink is the download URL for the signed artifact.
	// Present once the request is completed.
	SignedArtifactLink string `json:"signedArtifactLink"`

	// UnsignedArtifactLink points back at the originally submitted bytes.
	UnsignedArtifactLink string `json:"unsignedArtifactLink"`
}

// terminalStatuses is the process-wide set of statuses after which no
// further polling will change the result.
var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusFailed:    true,
	StatusDenied:    true,
	StatusCanceled:  true,
}

// classifyStatus maps a wire status string onto the closed Status set.
func classifyStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusFailed, StatusDenied, StatusCanceled:
		return Status(s)
	default:
		return StatusUnrecognized
	}
}

// Classified returns the status mapped onto the known Status set.
func (s *RequestStatus) Classified() Status {
	return classifyStatus(s.Status)
}

// IsCompleted reports whether the request finished with a signed artifact.
func (s *RequestStatus) IsCompleted() bool {
	return s.Classified() == StatusCompleted
}

// IsFinal reports whether polling should stop. A known terminal status is
// final on its own; an unrecognized status is final only when the service
// says so via isFinalStatus.
func (s *RequestStatus) IsFinal() bool {
	return s.IsFinalStatus || terminalStatuses[s.Classified()]
}
