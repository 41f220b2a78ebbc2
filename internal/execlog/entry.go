// Package execlog holds the client-side model of a mailbot execution log:
// decoding snapshots, tracking which entries were already shown, paginating
// the first load and turning entries into display rows.
package execlog

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"
)

// Field names with a fixed meaning on every entry.
const (
	FieldTimestamp = "timestamp"
	FieldTrigger   = "trigger"
	FieldError     = "error"
	FieldLog       = "log"
	FieldType      = "type"
	FieldFrom      = "from_"
	FieldSubject   = "subject"
	FieldFolder    = "folder"
)

// internalFields are control metadata that never reach a generic preview.
var internalFields = map[string]bool{
	FieldTrigger:   true,
	FieldError:     true,
	FieldLog:       true,
	FieldTimestamp: true,
	FieldType:      true,
}

// IsInternalField reports whether key is stripped before generic rendering.
func IsInternalField(key string) bool {
	return internalFields[key]
}

// Contact is the sender record attached to message-triggered entries.
// A nil field was absent (or null) on the wire.
type Contact struct {
	Name         *string
	Email        *string
	Organization *string
	Geolocation  *string
}

// Field is one key of an entry in server enumeration order.
type Field struct {
	Key string
	// Raw is the compact JSON encoding of the value.
	Raw string
	// Text is the value for display: the string itself for JSON strings,
	// Raw for everything else.
	Text string
}

// LogEntry is one execution-log record.
type LogEntry struct {
	Key     Timestamp
	Trigger string
	Error   bool
	Log     string
	Type    string
	From    *Contact
	// Fields lists every key of the record, internal ones included.
	Fields []Field
}

// Field returns the named field, if present.
func (e LogEntry) Field(key string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// PublicFields returns the fields left after stripping internal ones.
func (e LogEntry) PublicFields() []Field {
	out := make([]Field, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !IsInternalField(f.Key) {
			out = append(out, f)
		}
	}
	return out
}

// DecodeError reports an imap_log payload that is not a JSON object of
// entries.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed execution log payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var snapshotParsers fastjson.ParserPool

// IsEmptyPayload reports whether raw carries no log at all.
func IsEmptyPayload(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "null", "undefined", "None":
		return true
	}
	return false
}

// DecodeSnapshot parses an imap_log payload. An empty payload yields an
// empty snapshot.
func DecodeSnapshot(raw string) (Snapshot, error) {
	if IsEmptyPayload(raw) {
		return Snapshot{}, nil
	}

	p := snapshotParsers.Get()
	defer snapshotParsers.Put(p)

	v, err := p.Parse(raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	obj, err := v.Object()
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	snap := make(Snapshot, obj.Len())
	var visitErr error
	obj.Visit(func(k []byte, val *fastjson.Value) {
		if visitErr != nil {
			return
		}
		key := string(k)
		entry, err := decodeEntry(key, val)
		if err != nil {
			visitErr = &DecodeError{Err: fmt.Errorf("entry %q: %w", key, err)}
			return
		}
		snap[key] = entry
	})
	if visitErr != nil {
		return nil, visitErr
	}
	return snap, nil
}

// decodeEntry copies everything it needs out of val; values handed out by
// the parser pool are only valid until the parser is reused.
func decodeEntry(key string, val *fastjson.Value) (LogEntry, error) {
	obj, err := val.Object()
	if err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{
		Key:    ParseTimestamp(key),
		Fields: make([]Field, 0, obj.Len()),
	}
	obj.Visit(func(k []byte, v *fastjson.Value) {
		f := Field{Key: string(k), Raw: string(v.MarshalTo(nil))}
		f.Text = f.Raw
		if v.Type() == fastjson.TypeString {
			f.Text = string(v.GetStringBytes())
		}
		entry.Fields = append(entry.Fields, f)

		switch f.Key {
		case FieldTrigger:
			entry.Trigger = textOf(v)
		case FieldLog:
			entry.Log = textOf(v)
		case FieldType:
			entry.Type = textOf(v)
		case FieldError:
			entry.Error = truthy(v)
		case FieldFrom:
			entry.From = decodeContact(v)
		}
	})
	return entry, nil
}

func decodeContact(v *fastjson.Value) *Contact {
	if v.Type() != fastjson.TypeObject {
		return nil
	}
	// An empty from_ object means the sender had no contact record.
	if obj, _ := v.Object(); obj == nil || obj.Len() == 0 {
		return nil
	}
	return &Contact{
		Name:         optionalText(v, "name"),
		Email:        optionalText(v, "email"),
		Organization: optionalText(v, "organization"),
		Geolocation:  optionalText(v, "geolocation"),
	}
}

func optionalText(v *fastjson.Value, key string) *string {
	f := v.Get(key)
	if f == nil || f.Type() == fastjson.TypeNull {
		return nil
	}
	s := textOf(f)
	return &s
}

func textOf(v *fastjson.Value) string {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNull:
		return ""
	default:
		return string(v.MarshalTo(nil))
	}
}

func truthy(v *fastjson.Value) bool {
	switch v.Type() {
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeNumber:
		return v.GetFloat64() != 0
	case fastjson.TypeString:
		s := strings.ToLower(string(v.GetStringBytes()))
		return s == "true" || s == "1"
	}
	return false
}
