package transfer

import (
	"encoding/base64"
	"io"
)

// base64LineLength is the maximum number of base64 octets per output line,
// per RFC 2045 section 6.8.
const base64LineLength = 76

// NewBase64Encoder will translate all bytes written to the returned
// io.WriteCloser into base64 encoding, wrapped at 76 octets per line, and
// write the result to the given io.Writer. Lines are broken with a bare LF;
// CRLF normalization of the wire bytes is done once, by the message
// serializer, not here.
func NewBase64Encoder(w io.Writer) io.WriteCloser {
	wrap := &lineWrapWriter{w: w}
	return &base64Encoder{
		enc:  base64.NewEncoder(base64.StdEncoding, wrap),
		wrap: wrap,
	}
}

// base64Encoder chains the stdlib base64 encoder through a lineWrapWriter
// and makes sure both get closed (and so flushed) in order.
type base64Encoder struct {
	enc  io.WriteCloser
	wrap *lineWrapWriter
}

func (b *base64Encoder) Write(p []byte) (int, error) { return b.enc.Write(p) }

func (b *base64Encoder) Close() error {
	if err := b.enc.Close(); err != nil {
		return err
	}
	return b.wrap.Close()
}

// NewBase64Decoder will translate all bytes read from the given io.Reader as
// base64 and return the binary data to the returned io.Reader. Line breaks
// within the base64 stream are stripped before decoding.
func NewBase64Decoder(r io.Reader) io.Reader {
	return base64.NewDecoder(base64.StdEncoding, &crlfStripReader{r: r})
}

// lineWrapWriter inserts a line break after every base64LineLength octets
// written, but never after the final line.
type lineWrapWriter struct {
	w       io.Writer
	lineLen int
}

func (lw *lineWrapWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		remaining := base64LineLength - lw.lineLen
		n := len(p)
		if n > remaining {
			n = remaining
		}

		wn, err := lw.w.Write(p[:n])
		written += wn
		lw.lineLen += wn
		if err != nil {
			return written, err
		}

		p = p[wn:]
		if lw.lineLen == base64LineLength && len(p) > 0 {
			if _, err := lw.w.Write([]byte("\n")); err != nil {
				return written, err
			}
			lw.lineLen = 0
		}
	}
	return written, nil
}

func (lw *lineWrapWriter) Close() error {
	return nil
}

// crlfStripReader strips CR and LF bytes from the underlying reader, so a
// line-wrapped base64 stream can be fed straight to base64.NewDecoder.
type crlfStripReader struct {
	r io.Reader
}

func (s *crlfStripReader) Read(p []byte) (int, error) {
	buf := make([]byte, len(p))
	n, err := s.r.Read(buf)

	j := 0
	for i := 0; i < n; i++ {
		if buf[i] == '\r' || buf[i] == '\n' {
			continue
		}
		p[j] = buf[i]
		j++
	}

	return j, err
}
