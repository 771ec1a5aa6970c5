package automation

import "testing"

func TestNormalize_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"output field", `{"output":"from output"}`, "from output"},
		{"myField field", `{"myField":"from myField"}`, "from myField"},
		{"bare string", `"bare reply"`, "bare reply"},
		{"message field", `{"message":"from message"}`, "from message"},
		{"output wins over myField", `{"myField":"no","output":"yes"}`, "yes"},
		{"output wins over message", `{"message":"no","output":"yes"}`, "yes"},
		{"myField wins over message", `{"message":"no","myField":"yes"}`, "yes"},
		{"all keys present", `{"message":"c","myField":"b","output":"a"}`, "a"},
		{"unrecognized object", `{"something":"else"}`, FallbackReply},
		{"empty object", `{}`, FallbackReply},
		{"array payload", `[1,2,3]`, FallbackReply},
		{"number payload", `42`, FallbackReply},
		{"null payload", `null`, FallbackReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]byte(tt.payload))
			if got.Text != tt.want {
				t.Errorf("Normalize(%s) = %q, want %q", tt.payload, got.Text, tt.want)
			}
		})
	}
}

func TestNormalize_EmptyStringValuesSkipped(t *testing.T) {
	// An empty string under a known key does not match; evaluation
	// continues down the precedence order.
	got := Normalize([]byte(`{"output":"","message":"fallback to message"}`))
	if got.Text != "fallback to message" {
		t.Errorf("expected empty output to defer to message, got %q", got.Text)
	}

	got = Normalize([]byte(`{"output":"","myField":""}`))
	if got.Text != FallbackReply {
		t.Errorf("expected fallback when all known keys empty, got %q", got.Text)
	}
}

func TestNormalize_PlainTextBodyIsTheReply(t *testing.T) {
	// A backend answering with a text/plain body is the whole payload
	// presenting as a string.
	got := Normalize([]byte("All done, check your inbox."))
	if got.Text != "All done, check your inbox." {
		t.Errorf("expected plain-text body surfaced as reply, got %q", got.Text)
	}

	got = Normalize([]byte("  padded reply\n"))
	if got.Text != "padded reply" {
		t.Errorf("expected trimmed plain-text reply, got %q", got.Text)
	}
}

func TestNormalize_EmptyBodyFallsBack(t *testing.T) {
	for _, body := range []string{"", "   ", "\n"} {
		got := Normalize([]byte(body))
		if got.Text != FallbackReply {
			t.Errorf("Normalize(%q) = %q, want fallback", body, got.Text)
		}
	}
}

func TestNormalize_NonStringValuesSkipped(t *testing.T) {
	got := Normalize([]byte(`{"output":{"nested":"obj"},"message":"plain"}`))
	if got.Text != "plain" {
		t.Errorf("expected non-string output to defer to message, got %q", got.Text)
	}
}
