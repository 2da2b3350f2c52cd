package poster

import (
	"errors"
	"fmt"
)

// Kind classifies why a job could not run (or stopped running)
type Kind int

const (
	KindUnknown Kind = iota
	// settings rejected before a job starts
	KindInvalidSettings
	// missing, corrupt or unreadable source image
	KindSourceImage
	// output directory or file could not be written
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInvalidSettings:
		return "invalid settings"
	case KindSourceImage:
		return "source image error"
	case KindIO:
		return "io error"
	default:
		return "unknown error"
	}
}

var (
	// ErrInvalidSettings matches (errors.Is) any settings validation failure
	ErrInvalidSettings = &Error{Kind: KindInvalidSettings}

	// ErrSourceImage matches any failure to read the source image
	ErrSourceImage = &Error{Kind: KindSourceImage}

	// ErrIO matches any failure writing output
	ErrIO = &Error{Kind: KindIO}

	// ErrBusy is returned when a job is requested while another is in flight
	ErrBusy = errors.New("a tiling job is already running")

	errEmptyImage = errors.New("image has no pixels")
)

// Error is a failure raised by the tiling engine.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the bare sentinels by kind, so
// errors.Is(err, ErrIO) holds for every IO failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" || t.Path != "" || t.Err != nil {
		return e == t
	}
	return e.Kind == t.Kind
}

func invalidSettings(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidSettings, Op: "invalid settings", Err: fmt.Errorf(format, args...)}
}

func sourceImageError(op, path string, err error) error {
	return &Error{Kind: KindSourceImage, Op: op, Path: path, Err: err}
}

func ioError(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}
