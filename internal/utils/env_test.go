package utils

import "testing"

func TestSafeEnv(t *testing.T) {
	const key = "_SCAMWATCH_TEST_SAFEENV"
	t.Setenv(key, "")
	if got := SafeEnv(key, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv(key, " value ")
	if got := SafeEnv(key, "fallback"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}

func TestEnvList(t *testing.T) {
	const key = "_SCAMWATCH_TEST_LIST"
	t.Setenv(key, "https://a.example/rss, ,https://b.example/atom ")
	got := EnvList(key)
	if len(got) != 2 || got[0] != "https://a.example/rss" || got[1] != "https://b.example/atom" {
		t.Fatalf("EnvList=%v", got)
	}
	t.Setenv(key, "")
	if got := EnvList(key); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}
