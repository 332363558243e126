// Package errdefs defines the error taxonomy shared by the conversion core.
//
// Every failure carries a stable Code. Codes group into three kinds:
// setup failures (the engine cannot be built or is gone), input failures
// (the image or its scale is unusable) and dispatch failures (one
// conversion request failed on the device). Callers match codes with
// errors.Is against the exported sentinels:
//
//	if errors.Is(err, errdefs.ErrDeviceUnavailable) { ... }
package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how far its effects reach.
type Kind int

const (
	KindUnknown Kind = iota
	// KindSetup: no conversions are possible until a new engine is built.
	KindSetup
	// KindInput: the request's image or scale is unusable.
	KindInput
	// KindDispatch: one conversion failed; other requests are unaffected.
	KindDispatch
)

func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindInput:
		return "input"
	case KindDispatch:
		return "dispatch"
	default:
		return "unknown"
	}
}

// Error codes.
const (
	CodeDeviceUnavailable = "DEVICE_UNAVAILABLE"
	CodeKernelCompile     = "KERNEL_COMPILE"
	CodePipelineCreate    = "PIPELINE_CREATE"
	CodeEngineClosed      = "ENGINE_CLOSED"

	CodeImageDecode  = "IMAGE_DECODE"
	CodeInvalidScale = "INVALID_SCALE"

	CodeTextureUpload = "TEXTURE_UPLOAD"
	CodeBufferAlloc   = "BUFFER_ALLOC"
	CodeCommandBuffer = "COMMAND_BUFFER"
	CodeDispatchSize  = "DISPATCH_SIZE"
	CodeExecution     = "EXECUTION"
)

var kinds = map[string]Kind{
	CodeDeviceUnavailable: KindSetup,
	CodeKernelCompile:     KindSetup,
	CodePipelineCreate:    KindSetup,
	CodeEngineClosed:      KindSetup,
	CodeImageDecode:       KindInput,
	CodeInvalidScale:      KindInput,
	CodeTextureUpload:     KindDispatch,
	CodeBufferAlloc:       KindDispatch,
	CodeCommandBuffer:     KindDispatch,
	CodeDispatchSize:      KindDispatch,
	CodeExecution:         KindDispatch,
}

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrDeviceUnavailable = &Error{Code: CodeDeviceUnavailable}
	ErrKernelCompile     = &Error{Code: CodeKernelCompile}
	ErrPipelineCreate    = &Error{Code: CodePipelineCreate}
	ErrEngineClosed      = &Error{Code: CodeEngineClosed}
	ErrImageDecode       = &Error{Code: CodeImageDecode}
	ErrInvalidScale      = &Error{Code: CodeInvalidScale}
	ErrTextureUpload     = &Error{Code: CodeTextureUpload}
	ErrBufferAlloc       = &Error{Code: CodeBufferAlloc}
	ErrCommandBuffer     = &Error{Code: CodeCommandBuffer}
	ErrDispatchSize      = &Error{Code: CodeDispatchSize}
	ErrExecution         = &Error{Code: CodeExecution}
)

// Error is a coded failure of the conversion core.
type Error struct {
	Code    string // stable code, one of the Code* constants
	Message string // human-readable detail
	Err     error  // underlying cause, may be nil
}

// New returns an Error with a formatted message.
func New(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a message and an underlying cause.
func Wrap(code string, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Code == e.Code
}

// Kind returns the kind the error's code belongs to.
func (e *Error) Kind() Kind {
	return kinds[e.Code]
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
