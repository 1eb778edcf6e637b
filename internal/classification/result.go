package classification

import "strings"

// Status is the normalized safety verdict for a snake photo.
type Status string

const (
	StatusVenomous       Status = "Venomous"
	StatusMildlyVenomous Status = "Mildly Venomous"
	StatusNotVenomous    Status = "Not Venomous"
	StatusUnknown        Status = "Unknown"
	StatusError          Status = "Error"
)

// modelStatuses lists the verdicts a model reply is allowed to carry.
// StatusError is produced only by the transport boundary.
var modelStatuses = []Status{
	StatusVenomous,
	StatusMildlyVenomous,
	StatusNotVenomous,
	StatusUnknown,
}

// Result is the response shape returned to callers.
type Result struct {
	Status      Status `json:"status"`
	Description string `json:"description"`
}

// ParseStatus maps free-form model output onto a known verdict, ignoring case
// and surrounding whitespace.
func ParseStatus(value string) (Status, bool) {
	value = strings.TrimSpace(value)
	for _, status := range modelStatuses {
		if strings.EqualFold(value, string(status)) {
			return status, true
		}
	}
	return "", false
}

// ErrorResult builds the body returned when a request cannot be processed.
func ErrorResult(message string) Result {
	return Result{
		Status:      StatusError,
		Description: "Error processing image: " + message,
	}
}
