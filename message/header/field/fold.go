package field

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

const (
	DefaultFoldIndent          = " "  // indent placed before folded lines
	DefaultPreferredFoldLength = 80   // we prefer header and 7bit/8bit body lines shorter than this
	DefaultForcedFoldLength    = 1000 // we forcibly break header and 7bit/8bit body lines longer than this

	DoNotFold = -1 // fold lengths set to this value disable folding entirely
)

var (
	// DefaultFoldEncoding is the FoldEncoding used when no other has been
	// configured.
	DefaultFoldEncoding = &FoldEncoding{
		DefaultFoldIndent,
		DefaultPreferredFoldLength,
		DefaultForcedFoldLength,
	}

	// DoNotFoldEncoding is a FoldEncoding that performs no folding at all,
	// used when a header has been parsed and we want to round-trip it
	// without alteration.
	DoNotFoldEncoding = &FoldEncoding{
		DefaultFoldIndent,
		DoNotFold,
		DoNotFold,
	}
)

var (
	// ErrFoldIndentSpace is returned by NewFoldEncoding when foldIndent
	// contains something other than spaces and tabs.
	ErrFoldIndentSpace = errors.New("fold indent may only contains spaces and tabs")

	// ErrFoldIndentTooShort is returned by NewFoldEncoding when foldIndent
	// is empty.
	ErrFoldIndentTooShort = errors.New("fold indent must contain at least one space or tab")

	// ErrFoldIndentTooLong is returned by NewFoldEncoding when foldIndent is
	// as long as or longer than preferredFoldLength.
	ErrFoldIndentTooLong = errors.New("fold indent must be shorter than the preferred fold length")

	// ErrFoldLengthTooLong is returned by NewFoldEncoding when
	// preferredFoldLength is longer than forcedFoldLength.
	ErrFoldLengthTooLong = errors.New("preferred fold length must be no longer than the forced fold length")

	// ErrFoldLengthTooShort is returned by NewFoldEncoding when
	// forcedFoldLength is shorter than 3 bytes.
	ErrFoldLengthTooShort = errors.New("preferred fold length and forced fold length cannot be too short")

	// ErrDoNotFold is returned by NewFoldEncoding when only one of
	// preferredFoldLength/forcedFoldLength is set to DoNotFold.
	ErrDoNotFold = errors.New("preferred fold length and forced fold length must both be -1 if either are -1")
)

// Break represents the line break used when folding, as a byte slice so it
// can be compared and sliced cheaply during folding.
type Break []byte

// FoldEncoding provides the tooling for folding email message headers.
type FoldEncoding struct {
	foldIndent          string
	preferredFoldLength int
	forcedFoldLength    int
}

// NewFoldEncoding creates a new FoldEncoding with the given settings.
// foldIndent must consist of one or more spaces/tabs and must be shorter
// than preferredFoldLength. preferredFoldLength must be no longer than
// forcedFoldLength. Either both lengths are DoNotFold or neither is.
//
// This does nothing special to avoid folding before the colon; it relies on
// the chosen fold lengths being wider than the longest field name in use.
func NewFoldEncoding(
	foldIndent string,
	preferredFoldLength,
	forcedFoldLength int,
) (*FoldEncoding, error) {
	if ix := strings.IndexFunc(foldIndent, func(c rune) bool { return !isSpace(c) }); ix >= 0 {
		return nil, ErrFoldIndentSpace
	}

	if len(foldIndent) < 1 {
		return nil, ErrFoldIndentTooShort
	}

	if (preferredFoldLength == DoNotFold && forcedFoldLength != DoNotFold) ||
		(forcedFoldLength == DoNotFold && preferredFoldLength != DoNotFold) {
		return nil, ErrDoNotFold
	}

	if preferredFoldLength != DoNotFold {
		if len(foldIndent) >= preferredFoldLength {
			return nil, ErrFoldIndentTooLong
		}

		if preferredFoldLength > forcedFoldLength {
			return nil, ErrFoldLengthTooLong
		}

		if preferredFoldLength < 3 || forcedFoldLength < 3 {
			return nil, ErrFoldLengthTooShort
		}
	}

	return &FoldEncoding{foldIndent, preferredFoldLength, forcedFoldLength}, nil
}

// Unfold strips CR and LF bytes from a folded header field value, restoring
// the logical body.
func (vf *FoldEncoding) Unfold(f []byte) []byte {
	uf := make([]byte, 0, len(f))
	for _, b := range f {
		if !isCRLF(rune(b)) {
			uf = append(uf, b)
		}
	}
	return uf
}

func isCRLF(c rune) bool     { return c == '\r' || c == '\n' }
func isSpace(c rune) bool    { return c == ' ' || c == '\t' }
func isNonSpace(c rune) bool { return c != ' ' && c != '\t' }

// Fold writes f to out, folding at whitespace where the line runs past
// preferredFoldLength, or else at the first whitespace that comes before
// forcedFoldLength. A line longer than forcedFoldLength with no such
// whitespace is broken at preferredFoldLength regardless of whitespace. Both
// lengths count the two octets of the line break. Each continuation line is
// indented with foldIndent.
func (vf *FoldEncoding) Fold(out io.Writer, f []byte, lb Break) (int64, error) {
	total := int64(0)
	continuingLine := false
	writeFold := func(f []byte, end int) ([]byte, error) {
		if continuingLine && !isSpace(rune(f[0])) {
			n, err := out.Write([]byte(vf.foldIndent))
			total += int64(n)
			if err != nil {
				return nil, err
			}
		}
		n, err := out.Write(f[:end])
		total += int64(n)
		if err != nil {
			return nil, err
		}

		n, err = out.Write(lb)
		total += int64(n)
		if err != nil {
			return nil, err
		}

		f = f[end:]
		continuingLine = true

		return bytes.TrimLeft(f, " \t"), nil
	}

	if len(f) < vf.preferredFoldLength || vf.preferredFoldLength == DoNotFold {
		_, err := writeFold(f, len(f))
		return total, err
	}

	// assumes lb is at most a couple of bytes long
	lines := bytes.Split(f, lb)
	for _, line := range lines {
	FoldingSingle:
		for len(line) > 0 {
			var err error

			fforced := len(line) > vf.forcedFoldLength-2

			fneed := len(line) > vf.preferredFoldLength-2
			if !fneed {
				line, err = writeFold(line, len(line))
				if err != nil {
					return total, err
				}
				continue FoldingSingle
			}

			var firstChar int
			if continuingLine {
				firstChar = bytes.IndexFunc(line, isNonSpace)
			} else {
				colon := bytes.IndexRune(line, ':')
				firstChar = bytes.IndexFunc(line[colon+1:], isNonSpace)
				if firstChar >= 0 {
					firstChar += colon + 1
				}
			}

			if firstChar < -1 {
				firstChar = 0
			}

			if ix := bytes.LastIndexFunc(line[firstChar:vf.preferredFoldLength-2], isSpace); ix >= 0 {
				line, err = writeFold(line, ix+firstChar)
				if err != nil {
					return total, err
				}
				continue FoldingSingle
			}

			if ix := bytes.IndexFunc(line[firstChar:], isSpace); ix >= 0 && ix < vf.forcedFoldLength-2 {
				line, err = writeFold(line, ix+firstChar)
				if err != nil {
					return total, err
				}
				continue FoldingSingle
			}

			if fforced {
				line, err = writeFold(line, vf.preferredFoldLength-2)
				if err != nil {
					return total, err
				}
				continue FoldingSingle
			}

			line, err = writeFold(line, len(line))
			if err != nil {
				return total, err
			}
		}
	}

	return total, nil
}
