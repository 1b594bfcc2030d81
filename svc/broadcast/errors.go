package broadcast

import (
	"errors"
	"strconv"
)

var (
	ErrUnknownFormat = errors.New("broadcast: unknown content format")
	ErrRenderFailed  = errors.New("broadcast: failed to render content")
)

// Client-facing messages.
const (
	MsgFieldsRequired     = "Subject and content are required"
	MsgNoActiveRecipients = "No active subscribers found"
	MsgInvalidFormat      = "Format must be html or markdown"
	MsgFailed             = "Failed to send newsletter"
	MsgServiceUnavailable = "Service unavailable"
)

// StartedMessage is the success message for a batch of total recipients.
func StartedMessage(total int) string {
	return "Newsletter sending started for " + strconv.Itoa(total) + " active subscribers"
}
