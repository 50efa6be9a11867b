package frame

import "testing"

func TestNormalize_FullObject(t *testing.T) {
	r := Normalize([]byte(`{"thread":"abc","message":"hello","isBidirectional":true}`))

	if r.ThreadKey != "abc" {
		t.Errorf("thread key: got %q", r.ThreadKey)
	}
	if r.Text != "hello" {
		t.Errorf("text: got %q", r.Text)
	}
	if !r.Bidirectional {
		t.Error("expected bidirectional")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	r := Normalize([]byte(`{"message":"hi"}`))

	if r.ThreadKey != DefaultThreadKey {
		t.Errorf("thread key: got %q, want %q", r.ThreadKey, DefaultThreadKey)
	}
	if r.Bidirectional {
		t.Error("bidirectional should default to false")
	}
	if r.ChannelID != "" {
		t.Errorf("channel override should default empty, got %q", r.ChannelID)
	}
}

func TestNormalize_ChannelOverride(t *testing.T) {
	r := Normalize([]byte(`{"message":"hi","channelId":"999"}`))

	if r.ChannelID != "999" {
		t.Errorf("channel override: got %q", r.ChannelID)
	}
}

func TestNormalize_BareString(t *testing.T) {
	r := Normalize([]byte(`"ping"`))

	if r.ThreadKey != DefaultThreadKey || r.Text != "ping" || r.Bidirectional {
		t.Errorf("bare string mishandled: %+v", r)
	}
}

func TestNormalize_MissingMessageFallsBackToRaw(t *testing.T) {
	raw := `{"thread":"abc"}`
	r := Normalize([]byte(raw))

	if r.Text != raw {
		t.Errorf("expected raw bytes as text, got %q", r.Text)
	}
	if r.ThreadKey != DefaultThreadKey {
		t.Errorf("fallback must use default thread, got %q", r.ThreadKey)
	}
}

func TestNormalize_GarbageFallsBackToRaw(t *testing.T) {
	raw := "\x01\x02 binary noise"
	r := Normalize([]byte(raw))

	if r.Text != raw {
		t.Errorf("expected raw bytes as text, got %q", r.Text)
	}
}

// Every frame produces exactly one record, never zero.
func TestNormalize_NeverDrops(t *testing.T) {
	inputs := []string{
		`{"message":"ok"}`,
		`"ping"`,
		`{"unknown":"field"}`,
		`[1,2,3]`,
		`not json at all`,
		`{"message":""}`,
	}
	for _, in := range inputs {
		r := Normalize([]byte(in))
		if r.Text == "" {
			t.Errorf("input %q produced empty text", in)
		}
	}
}
