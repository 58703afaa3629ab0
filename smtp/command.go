package smtp

import (
	"fmt"
	"io"
	"strings"
)

// WriteCommand writes a single SMTP command line to w in the wire format
// "VERB[ args]\r\n". args is written verbatim after a single space; pass an
// empty string for commands that take no arguments.
func WriteCommand(w io.Writer, verb, args string) error {
	var err error
	if args == "" {
		_, err = fmt.Fprintf(w, "%s\r\n", verb)
	} else {
		_, err = fmt.Fprintf(w, "%s %s\r\n", verb, args)
	}
	return err
}

// FormatMailFrom builds the argument string for a MAIL command, including
// any ESMTP parameters (SIZE=, BODY=8BITMIME, SMTPUTF8) the transaction
// negotiated.
func FormatMailFrom(reversePath string, params ...string) string {
	return formatPathCommand("FROM", reversePath, params)
}

// FormatRcptTo builds the argument string for a RCPT command.
func FormatRcptTo(forwardPath string, params ...string) string {
	return formatPathCommand("TO", forwardPath, params)
}

func formatPathCommand(kw, path string, params []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:<%s>", kw, path)
	for _, p := range params {
		if p == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(p)
	}
	return b.String()
}

// StuffDots applies SMTP DATA transparency (RFC 5321 section 4.5.2) to body:
// any line beginning with '.' has a second '.' prepended, so the receiver's
// dot-unstuffing recovers the original bytes exactly. body must already use
// CRLF line endings.
func StuffDots(body []byte) []byte {
	lines := splitKeepingCRLF(body)
	var out []byte
	for _, line := range lines {
		if len(line) > 0 && line[0] == '.' {
			out = append(out, '.')
		}
		out = append(out, line...)
	}
	return out
}

// UnstuffDots reverses StuffDots.
func UnstuffDots(body []byte) []byte {
	lines := splitKeepingCRLF(body)
	var out []byte
	for _, line := range lines {
		if len(line) > 1 && line[0] == '.' && line[1] == '.' {
			line = line[1:]
		}
		out = append(out, line...)
	}
	return out
}

// splitKeepingCRLF splits body into lines, each retaining its trailing CRLF
// (the final line keeps whatever trailing bytes it has, CRLF or not).
func splitKeepingCRLF(body []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i+1 < len(body); i++ {
		if body[i] == '\r' && body[i+1] == '\n' {
			lines = append(lines, body[start:i+2])
			start = i + 2
			i++
		}
	}
	if start < len(body) {
		lines = append(lines, body[start:])
	}
	return lines
}

// DataTerminator is the five-octet sequence that ends a DATA payload.
const DataTerminator = "\r\n.\r\n"
