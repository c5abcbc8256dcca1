package wizard

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownKind     = errors.New("unknown wizard kind")
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrClosed          = errors.New("wizard session is closed")
	ErrAlreadyOpen     = errors.New("wizard session is already open")
	ErrEditOnly        = errors.New("wizard can only edit an existing entity")
	ErrSubmitting      = errors.New("submission already in progress")
	ErrNotTerminal     = errors.New("submission is only allowed from the last step")
	ErrDiscarded       = errors.New("wizard session was closed during submission")
)

// UploadError is returned when a blocking upload (image or PDF asset) fails.
// Nothing was saved.
type UploadError struct {
	Field string
	File  string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploading %s (%s): %v", e.Field, e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// SaveError is returned when the create/update call fails.
// Messages are the user facing messages that were notified, in order.
type SaveError struct {
	Messages []string
	Err      error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving entity: %v", e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// userMessenger is implemented by errors carrying server reported messages.
type userMessenger interface {
	UserMessages() []string
}

// FailureMessages returns the messages to show for err: the server messages when there are some, else fallback.
func FailureMessages(err error, fallback string) []string {
	var um userMessenger
	if errors.As(err, &um) {
		if msgs := um.UserMessages(); len(msgs) > 0 {
			return msgs
		}
	}
	return []string{fallback}
}
