package rooms

import "fmt"

// Kind classifies a validation failure reported back to the requesting user.
type Kind string

const (
	KindInvalidArgument Kind = "InvalidArgument"
	KindAlreadyExists   Kind = "AlreadyExists"
	KindOwnerNotFound   Kind = "OwnerNotFound"
	KindRoomNotFound    Kind = "RoomNotFound"
	KindJoinerNotFound  Kind = "JoinerNotFound"
)

// Error is a validation failure: a machine-readable kind plus a message
// that can be shown to the user as is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is match on kind alone, e.g. errors.Is(err, &Error{Kind: KindRoomNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
