package ingestion

// CancelFunc is polled between pipeline stages; when it returns true the
// run finishes the in-flight batch then stops, rather than aborting
// mid-write (spec: "best-effort ordered shutdown").
type CancelFunc func() bool

func neverCanceled() bool { return false }

// Canceled is returned by Run when CancelFunc reported true before the
// run could commit any further batches.
type Canceled struct{}

func (Canceled) Error() string { return "ingestion: canceled" }
