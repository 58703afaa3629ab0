package transport

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/submitgo/submit/message"
)

// Command delivers a message by spawning a local mail-submission program
// (sendmail-compatible: "-i", optional "-f <reverse-path>", then "--"
// followed by the recipients) and writing the serialized message to its
// standard input. Recipients are passed only through the argument vector,
// never through a shell, and are validated (by the caller constructing the
// Envelope) to contain no characters a shell would treat specially; this
// type itself never invokes a shell to begin with.
type Command struct {
	// Program is the path or PATH-resolved name of the mail submission
	// program, e.g. "sendmail".
	Program string
	// ExtraArgs are inserted between the program name and "-f"/"--", e.g.
	// ["-t"] for some invocations. May be nil.
	ExtraArgs []string
}

// Send implements Transport.
func (c *Command) Send(env *message.Envelope, raw []byte) (*Report, error) {
	args := append([]string{}, c.ExtraArgs...)
	args = append(args, "-i")

	if env.ReversePath != nil {
		args = append(args, "-f", env.ReversePath.String())
	}

	args = append(args, "--")
	for _, rcpt := range env.ForwardPath {
		args = append(args, rcpt.String())
	}

	cmd := exec.Command(c.Program, args...)
	cmd.Stdin = bytes.NewReader(raw)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		wrapped := fmt.Errorf("%s: %w: %s", c.Program, err, stderr.String())
		return Failure(env, wrapped), wrapped
	}

	return Success(env), nil
}
