// Package nerrors defines the error taxonomy shared across the GLiNER2
// pipeline stages. Each error carries a Kind the caller can branch on with
// errors.Is, plus the stage name that raised it and the wrapped cause.
package nerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error without revealing which stage produced it.
type Kind int

const (
	// ResourceError signals a missing manifest, artifact, tokenizer
	// directory, or required vocabulary entry.
	ResourceError Kind = iota
	// TokenizerError signals an unsupported model type, invalid
	// maxLength, unknown special token, or an over-length encoding.
	TokenizerError
	// EncodingError signals a shape/length mismatch between pipeline
	// stages, or a missing word/prompt mapping.
	EncodingError
	// InvalidInput signals a caller-supplied argument that violates a
	// precondition (empty labels with non-empty text, bad span shape).
	InvalidInput
	// InvalidOutput signals a backend tensor of unexpected rank, dtype,
	// or a missing output name.
	InvalidOutput
	// Cancelled signals cooperative cancellation between pipeline
	// stages.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case ResourceError:
		return "ResourceError"
	case TokenizerError:
		return "TokenizerError"
	case EncodingError:
		return "EncodingError"
	case InvalidInput:
		return "InvalidInput"
	case InvalidOutput:
		return "InvalidOutput"
	case Cancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error type returned by every stage in this module.
type Error struct {
	Kind  Kind
	Stage string // e.g. "tokenizer", "projector", "backend:encoder"
	Msg   string
	Err   error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Stage, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, nerrors.KindResourceError) work by comparing Kind
// against one of the Kind* sentinels declared below.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// New constructs an *Error for the given kind, stage, and message.
func New(kind Kind, stage, msg string) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: msg}
}

// Wrap constructs an *Error of the given kind that wraps cause. The new
// error always carries kind; if cause is itself an *Error, its Kind is not
// copied, though errors.Is still reaches it through Unwrap.
func Wrap(kind Kind, stage, msg string, cause error) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: msg, Err: cause}
}

// sentinel kind comparisons, usable with errors.Is(err, nerrors.KindResourceError)
var (
	KindResourceError = &Error{Kind: ResourceError}
	KindTokenizer     = &Error{Kind: TokenizerError}
	KindEncoding      = &Error{Kind: EncodingError}
	KindInvalidInput  = &Error{Kind: InvalidInput}
	KindInvalidOutput = &Error{Kind: InvalidOutput}
	KindCancelled     = &Error{Kind: Cancelled}
)
