// Package param provides parsing, construction, and modification of MIME
// media type values with parameters, as found in the Content-Type and
// Content-Disposition header fields.
package param

import (
	"mime"
)

// Well-known parameter names.
const (
	Charset  = "charset"
	Boundary = "boundary"
	Filename = "filename"
)

// Value represents a parsed or constructed media-type value together with
// its parameters, e.g. "text/plain; charset=utf-8".
type Value struct {
	mediaType string
	params    map[string]string
}

// Parse parses s as a MIME type with optional parameters, using the same
// rules as Content-Type and Content-Disposition field bodies.
func Parse(s string) (*Value, error) {
	mt, params, err := mime.ParseMediaType(s)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]string{}
	}
	return &Value{mediaType: mt, params: params}, nil
}

// New constructs a Value from a media type and zero or more parameter maps,
// which are merged together.
func New(mediaType string, params ...map[string]string) *Value {
	merged := map[string]string{}
	for _, ps := range params {
		for k, v := range ps {
			merged[k] = v
		}
	}
	return &Value{mediaType: mediaType, params: merged}
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	params := make(map[string]string, len(v.params))
	for k, p := range v.params {
		params[k] = p
	}
	return &Value{mediaType: v.mediaType, params: params}
}

// MediaType returns the full media type string, e.g. "text/plain" or just
// "text" when no subtype was given (as with Content-Disposition's
// "attachment").
func (v *Value) MediaType() string {
	return v.mediaType
}

// Type returns the primary type, e.g. "text" in "text/plain". Returns an
// empty string when the value has no slash, as with the disposition type.
func (v *Value) Type() string {
	t, _, ok := splitMediaType(v.mediaType)
	if !ok {
		return ""
	}
	return t
}

// Subtype returns the subtype, e.g. "plain" in "text/plain". Returns an
// empty string when the value has no slash.
func (v *Value) Subtype() string {
	_, s, ok := splitMediaType(v.mediaType)
	if !ok {
		return ""
	}
	return s
}

// Presentation returns the media type as it would be presented when there
// are no parameters, identical to MediaType.
func (v *Value) Presentation() string {
	return v.mediaType
}

// Value returns the media type string, identical to MediaType.
func (v *Value) Value() string {
	return v.mediaType
}

// Parameters returns a copy of the parameter map.
func (v *Value) Parameters() map[string]string {
	params := make(map[string]string, len(v.params))
	for k, p := range v.params {
		params[k] = p
	}
	return params
}

// Parameter returns the named parameter, or an empty string if it is not
// set.
func (v *Value) Parameter(name string) string {
	return v.params[name]
}

// Charset returns the charset parameter.
func (v *Value) Charset() string {
	return v.params[Charset]
}

// Boundary returns the boundary parameter.
func (v *Value) Boundary() string {
	return v.params[Boundary]
}

// Filename returns the filename parameter.
func (v *Value) Filename() string {
	return v.params[Filename]
}

// String renders the value in "type/subtype; param=value; ..." form.
func (v *Value) String() string {
	if len(v.params) == 0 {
		return v.mediaType
	}
	return mime.FormatMediaType(v.mediaType, v.params)
}

// Bytes renders the value the same way as String.
func (v *Value) Bytes() []byte {
	return []byte(v.String())
}

func splitMediaType(mt string) (typ, subtype string, ok bool) {
	for i := 0; i < len(mt); i++ {
		if mt[i] == '/' {
			return mt[:i], mt[i+1:], true
		}
	}
	return "", "", false
}

// Modifier changes a Value when passed to Modify.
type Modifier func(*Value)

// Modify applies each Modifier to a clone of v and returns the result,
// leaving v unchanged.
func Modify(v *Value, mods ...Modifier) *Value {
	nv := v.Clone()
	for _, mod := range mods {
		mod(nv)
	}
	return nv
}

// Change sets the media type, leaving existing parameters untouched.
func Change(mediaType string) Modifier {
	return func(v *Value) {
		v.mediaType = mediaType
	}
}

// Set sets or replaces a single parameter.
func Set(name, value string) Modifier {
	return func(v *Value) {
		if v.params == nil {
			v.params = map[string]string{}
		}
		v.params[name] = value
	}
}

// Delete removes a single parameter.
func Delete(name string) Modifier {
	return func(v *Value) {
		delete(v.params, name)
	}
}
