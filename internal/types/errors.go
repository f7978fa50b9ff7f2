package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProbeFailure      = errors.New("probe failure")
	ErrTranscodeFailure  = errors.New("transcode failure")
	ErrTTSFailure        = errors.New("tts failure")
	ErrNoInputMedia      = errors.New("no input media")
	ErrZeroDurationClips = fmt.Errorf("%w: all clips have zero duration", ErrNoInputMedia)
	ErrOutputBusy        = errors.New("output is being written by another run")
)

// ToolError reports a failed external tool invocation together with the
// last lines of its diagnostic output.
type ToolError struct {
	Kind   error
	Step   string
	Result ProcessResult
	Err    error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Step)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	} else {
		fmt.Fprintf(&b, ": exit code %d", e.Result.ExitCode)
	}
	if len(e.Result.Tail) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(e.Result.Tail, "\n"))
	}
	return b.String()
}

func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
