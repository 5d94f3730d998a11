package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "u1", "password", "hunter2", "GEMINI_API_KEY", "k", "dangling"})
	if len(out) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(out))
	}
	if out[1] != "u1" {
		t.Fatalf("expected user_id untouched, got %v", out[1])
	}
	if out[3] != "[REDACTED]" || out[5] != "[REDACTED]" {
		t.Fatalf("expected secrets redacted, got %v / %v", out[3], out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("expected trailing key kept, got %v", out[6])
	}
}
