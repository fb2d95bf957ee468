package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownType is returned by Decode for a tag this build does not know.
	ErrUnknownType = errors.New("unknown message type")
	// ErrMalformed is returned for frames that are not a well-formed variant.
	ErrMalformed = errors.New("malformed message")
)

type envelope struct {
	Type Type `json:"type"`
}

// wireFields lists the keys each tag owns, spelled exactly as on the wire.
// Required keys must be present; optional ones may be left out.
type wireFields struct {
	required []string
	optional []string
}

var variantFields = map[Type]wireFields{
	TypeTheme:            {required: []string{"content"}},
	TypeAddCapture:       {required: []string{"imageData", "width", "height"}},
	TypeSelectionUpdate:  {required: []string{"name"}},
	TypeLoadSelection:    {},
	TypeSelectionLoaded:  {required: []string{"imageData", "width", "height"}},
	TypeSelectionLoading: {required: []string{"isLoading"}},
	TypeCaptureResult:    {required: []string{"ok"}, optional: []string{"error"}},
}

// Encode serialises m as a JSON object with its "type" tag first.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformed)
	}
	if inv, ok := m.(Invalid); ok {
		return nil, fmt.Errorf("%w: cannot encode invalid %q frame", ErrMalformed, inv.Tag)
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	tag, err := json.Marshal(envelope{Type: m.Type()})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	// splice {"type":...} and the variant fields into one object
	if bytes.Equal(body, []byte("{}")) {
		return tag, nil
	}
	out := make([]byte, 0, len(tag)+len(body))
	out = append(out, tag[:len(tag)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}

// Decode parses a frame produced by Encode (or by the panel's JavaScript side).
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch env.Type {
	case TypeTheme:
		return decodeAs[Theme](data, env.Type)
	case TypeAddCapture:
		return decodeAs[AddCapture](data, env.Type)
	case TypeSelectionUpdate:
		return decodeAs[SelectionUpdate](data, env.Type)
	case TypeLoadSelection:
		return decodeAs[LoadSelection](data, env.Type)
	case TypeSelectionLoaded:
		return decodeAs[SelectionLoaded](data, env.Type)
	case TypeSelectionLoading:
		return decodeAs[SelectionLoading](data, env.Type)
	case TypeCaptureResult:
		return decodeAs[CaptureResult](data, env.Type)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeAs[T Message](data []byte, t Type) (Message, error) {
	var m T
	if err := decodeStrict(data, variantFields[t], &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
	}
	return m, nil
}

// DecodeOrInvalid never fails: frames Decode rejects come back as Invalid.
func DecodeOrInvalid(data []byte) Message {
	m, err := Decode(data)
	if err != nil {
		var env envelope
		_ = json.Unmarshal(data, &env)
		return Invalid{Tag: env.Type, Err: err}
	}
	return m
}

// decodeStrict rejects fields the variant does not own and frames missing a
// required field. Keys are matched case-sensitively, unlike encoding/json's
// own field lookup. The "type" tag is removed first since variants do not
// carry it as a field.
func decodeStrict(data []byte, want wireFields, into interface{}) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	delete(fields, "type")
	for _, key := range want.required {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("missing field %q", key)
		}
	}
	for key := range fields {
		if !slices.Contains(want.required, key) && !slices.Contains(want.optional, key) {
			return fmt.Errorf("unknown field %q", key)
		}
	}
	stripped, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}
