package dispatch

// CommunicationError is returned when a task could not be exchanged with a provisioner worker,
// either because the transport failed or because the worker's document could not be decoded.
// Retrying is up to the scheduler.
type CommunicationError struct {
	Node string
	Err  error
}

func (e *CommunicationError) Error() string {
	return "Communication with provisioner worker for node " + e.Node + " failed: " + e.Err.Error()
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}
