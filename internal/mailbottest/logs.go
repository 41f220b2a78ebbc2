package mailbottest

import (
	"fmt"
	"time"

	"github.com/valyala/fastjson"
)

// KV is one key of a log entry. Entries keep KV order on the wire.
type KV struct {
	Key   string
	Value any
}

// Object is a nested JSON object with ordered keys.
type Object []KV

// EntryDef describes one log entry.
type EntryDef struct {
	Timestamp string
	Fields    []KV
}

// Entry builds an entry keyed by ts. A "timestamp" field is written first,
// as the server does.
func Entry(ts string, fields ...KV) EntryDef {
	return EntryDef{Timestamp: ts, Fields: fields}
}

// Log encodes entries as an imap_log snapshot object, keyed by timestamp.
func Log(entries ...EntryDef) string {
	var a fastjson.Arena
	root := a.NewObject()
	for _, e := range entries {
		obj := a.NewObject()
		obj.Set("timestamp", a.NewString(e.Timestamp))
		for _, kv := range e.Fields {
			obj.Set(kv.Key, toValue(&a, kv.Value))
		}
		root.Set(e.Timestamp, obj)
	}
	return string(root.MarshalTo(nil))
}

// Contact builds a from_ value.
func Contact(name, email, org, geo string) Object {
	return Object{
		{"name", name},
		{"email", email},
		{"organization", org},
		{"geolocation", geo},
	}
}

// EngineTimestamp formats t the way the rule engine keys entries.
func EngineTimestamp(t time.Time) string {
	return t.Format("01/02 15:04:05,000000")
}

// BrowserTimestamp formats t like the sample logs in the web UI.
func BrowserTimestamp(t time.Time) string {
	return t.Format("1/2/2006, 3:04:05 PM")
}

// Days builds n message entries one day apart starting at start, using
// browser-format keys.
func Days(start time.Time, n int) []EntryDef {
	out := make([]EntryDef, n)
	for i := range out {
		ts := BrowserTimestamp(start.AddDate(0, 0, i))
		out[i] = Entry(ts,
			KV{"trigger", "rule " + fmt.Sprint(i)},
			KV{"subject", fmt.Sprintf("message %d", i)},
		)
	}
	return out
}

func toValue(a *fastjson.Arena, v any) *fastjson.Value {
	switch x := v.(type) {
	case nil:
		return a.NewNull()
	case string:
		return a.NewString(x)
	case bool:
		if x {
			return a.NewTrue()
		}
		return a.NewFalse()
	case int:
		return a.NewNumberInt(x)
	case float64:
		return a.NewNumberFloat64(x)
	case Object:
		obj := a.NewObject()
		for _, kv := range x {
			obj.Set(kv.Key, toValue(a, kv.Value))
		}
		return obj
	case []any:
		arr := a.NewArray()
		for i, item := range x {
			arr.SetArrayItem(i, toValue(a, item))
		}
		return arr
	default:
		return a.NewString(fmt.Sprint(x))
	}
}
