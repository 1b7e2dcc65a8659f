package retrieve

import "fmt"

// UnsupportedCrossModalQueryError is returned when a retriever's encoder
// does not support the requested cross-modal direction (spec: "if the
// encoder lacks text→image capability, fail with UnsupportedCrossModalQuery").
type UnsupportedCrossModalQueryError struct {
	Direction string
}

func (e *UnsupportedCrossModalQueryError) Error() string {
	return fmt.Sprintf("retrieve: unsupported cross-modal query: %s", e.Direction)
}
