package booking

// Kind classifies a domain failure so the transport layer can pick a status
// code without string-matching messages.
type Kind int

const (
	KindInvalid Kind = iota
	KindForbidden
	KindNotFound
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func invalid(msg string) *Error   { return &Error{Kind: KindInvalid, Message: msg} }
func forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }
func notFound(msg string) *Error  { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) *Error  { return &Error{Kind: KindConflict, Message: msg} }
