package field

import (
	"fmt"
)

// Field provides a low-level interface to manage a single email header
// field. It normally holds a structured name and body, but the Raw field may
// be set to preserve the original on-the-wire bytes so that a parsed message
// can be round-tripped without alteration.
//
// SetName and SetBody discard Raw, since changing the structured value makes
// the original bytes stale. SetRaw may be used afterward to attach a new raw
// form if needed.
type Field struct {
	name string
	body string

	// Raw, when not nil, holds the original bytes of the field and takes
	// priority over the structured name/body when rendering.
	Raw []byte
}

// New constructs a new field from a structured name and body. There is no
// Raw value associated with a field built this way.
func New(name, body string) *Field {
	return &Field{name: name, body: body}
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	var raw []byte
	if f.Raw != nil {
		raw = make([]byte, len(f.Raw))
		copy(raw, f.Raw)
	}
	return &Field{name: f.name, body: f.body, Raw: raw}
}

// Name returns the structured name of the field.
func (f *Field) Name() string {
	return f.name
}

// Body returns the structured body of the field.
func (f *Field) Body() string {
	return f.body
}

// SetName changes the name of the field. This clears Raw.
func (f *Field) SetName(name string) {
	f.name = name
	f.Raw = nil
}

// SetBody changes the body of the field. This clears Raw.
func (f *Field) SetBody(body string) {
	f.body = body
	f.Raw = nil
}

// SetRaw attaches a raw on-the-wire byte representation to the field. It
// takes precedence over the structured name/body until the next call to
// SetName or SetBody.
func (f *Field) SetRaw(raw []byte) {
	f.Raw = raw
}

// String renders Raw, if set, or the structured "Name: Body" form,
// RFC 2047-encoding the body as needed.
func (f *Field) String() string {
	if f.Raw != nil {
		return string(f.Raw)
	}
	return fmt.Sprintf("%s: %s", f.name, Encode(f.body))
}

// Bytes renders Raw, if set, or the structured "Name: Body" form.
func (f *Field) Bytes() []byte {
	if f.Raw != nil {
		return f.Raw
	}
	return []byte(f.String())
}
