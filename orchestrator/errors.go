package orchestrator

import (
	"context"
	"errors"
	"os"

	"github.com/phonlab/tgpipe/textgrid"
)

// Code is the short failure class written to logs and run.json.
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeDecode    Code = "decode"
	CodeMalformed Code = "malformed"
	CodeIO        Code = "io"
	CodeCancel    Code = "cancel"
)

func ErrorCode(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, textgrid.ErrDecodeFailure):
		return CodeDecode
	case errors.Is(err, textgrid.ErrMalformedInterval), errors.Is(err, textgrid.ErrMalformedTier):
		return CodeMalformed
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}
