package hostlink

import "fmt"

// HostError carries the error text the host reported for a request.
type HostError struct {
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host error: %s", e.Message)
}
