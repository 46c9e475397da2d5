package logger

import (
	"strings"
	"testing"
)

func TestRedactorMasksSecretsAndHashesIDs(t *testing.T) {
	r := &redactor{salt: "pepper"}
	out := r.kvs([]interface{}{
		"access_token", "abc",
		"user_id", "2f4c",
		"token_length", 120,
		"details", map[string]interface{}{"api_key": "k", "thread_id": "t1"},
	})
	if len(out) != 8 {
		t.Fatalf("unexpected kv length: %d", len(out))
	}
	if out[1] != redacted {
		t.Fatalf("access_token should be redacted, got %v", out[1])
	}
	if s, _ := out[3].(string); !strings.HasPrefix(s, "hash:") || s == "hash:2f4c" {
		t.Fatalf("user_id should be hashed, got %v", out[3])
	}
	if out[5] != 120 {
		t.Fatalf("token_length should pass through, got %v", out[5])
	}
	details, ok := out[7].(map[string]interface{})
	if !ok {
		t.Fatalf("details should remain a map, got %T", out[7])
	}
	if details["api_key"] != redacted || details["thread_id"] != "t1" {
		t.Fatalf("unexpected nested redaction: %#v", details)
	}
}

func TestRedactorDisabledPassesThrough(t *testing.T) {
	var r *redactor
	in := []interface{}{"password", "hunter2"}
	out := r.kvs(in)
	if out[1] != "hunter2" {
		t.Fatalf("nil redactor should not rewrite values")
	}
}

func TestOddKeyValueCountKeepsTrailingKey(t *testing.T) {
	r := &redactor{}
	out := r.kvs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %#v", out)
	}
}
