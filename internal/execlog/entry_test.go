package execlog

import (
	"errors"
	"testing"
)

const sampleLog = `{
  "1/2/2024, 9:00:00 AM": {
    "timestamp": "1/2/2024, 9:00:00 AM",
    "type": "new_message",
    "trigger": "archive newsletters",
    "error": false,
    "log": "moved to Newsletters<br>",
    "from_": {"name": "Ada", "email": "ada@example.com", "organization": null},
    "to": [{"name": "Bob", "email": "bob@example.com"}],
    "folder": "INBOX",
    "subject": "Weekly digest",
    "is_read": false
  },
  "1/1/2024, 1:00:00 PM": {
    "error": true,
    "log": "NameError: name 'foo' is not defined"
  }
}`

func TestDecodeSnapshot(t *testing.T) {
	snap, err := DecodeSnapshot(sampleLog)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2", len(snap))
	}

	e := snap["1/2/2024, 9:00:00 AM"]
	if e.Trigger != "archive newsletters" {
		t.Errorf("Trigger = %q", e.Trigger)
	}
	if e.Type != "new_message" {
		t.Errorf("Type = %q", e.Type)
	}
	if e.Error {
		t.Error("Error = true, want false")
	}
	if e.Log != "moved to Newsletters<br>" {
		t.Errorf("Log = %q", e.Log)
	}
	if e.From == nil {
		t.Fatal("From = nil")
	}
	if e.From.Name == nil || *e.From.Name != "Ada" {
		t.Errorf("From.Name = %v", e.From.Name)
	}
	if e.From.Organization != nil {
		t.Errorf("From.Organization = %q, want nil for null", *e.From.Organization)
	}
	if e.From.Geolocation != nil {
		t.Errorf("From.Geolocation = %q, want nil for absent", *e.From.Geolocation)
	}

	wantOrder := []string{"from_", "to", "folder", "subject", "is_read"}
	public := e.PublicFields()
	if len(public) != len(wantOrder) {
		t.Fatalf("PublicFields() = %d fields, want %d", len(public), len(wantOrder))
	}
	for i, f := range public {
		if f.Key != wantOrder[i] {
			t.Errorf("PublicFields()[%d] = %q, want %q", i, f.Key, wantOrder[i])
		}
	}

	if f, _ := e.Field("subject"); f.Text != "Weekly digest" || f.Raw != `"Weekly digest"` {
		t.Errorf("subject field = %+v", f)
	}
	if f, _ := e.Field("is_read"); f.Text != "false" {
		t.Errorf("is_read Text = %q, want false", f.Text)
	}

	bad := snap["1/1/2024, 1:00:00 PM"]
	if !bad.Error {
		t.Error("Error = false, want true")
	}
	if bad.From != nil {
		t.Error("From should be nil when absent")
	}
}

func TestDecodeSnapshotEmptyPayloads(t *testing.T) {
	for _, raw := range []string{"", "null", "  ", "{}"} {
		snap, err := DecodeSnapshot(raw)
		if err != nil {
			t.Errorf("DecodeSnapshot(%q) error = %v", raw, err)
		}
		if len(snap) != 0 {
			t.Errorf("DecodeSnapshot(%q) = %d entries, want 0", raw, len(snap))
		}
	}
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "<html>oops</html>"},
		{"array", `[1, 2, 3]`},
		{"entry not an object", `{"1/1/2024, 1:00:00 PM": "hello"}`},
		{"truncated", `{"1/1/2024, 1:00:00 PM": {"log": "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot(tt.raw)
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("DecodeSnapshot() error = %v, want *DecodeError", err)
			}
		})
	}
}

func TestIsInternalField(t *testing.T) {
	for _, k := range []string{"trigger", "error", "log", "timestamp", "type"} {
		if !IsInternalField(k) {
			t.Errorf("IsInternalField(%q) = false", k)
		}
	}
	for _, k := range []string{"subject", "folder", "from_", "flags"} {
		if IsInternalField(k) {
			t.Errorf("IsInternalField(%q) = true", k)
		}
	}
}
