package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("SUMMIT_TEST_INT", "42")
	t.Setenv("SUMMIT_TEST_BAD_INT", "x")
	t.Setenv("SUMMIT_TEST_BOOL", "off")
	t.Setenv("SUMMIT_TEST_MS", "250")

	if got := Int("SUMMIT_TEST_INT", 1); got != 42 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("SUMMIT_TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got=%d", got)
	}
	if got := Bool("SUMMIT_TEST_BOOL", true); got {
		t.Fatalf("Bool: expected false")
	}
	if got := Bool("SUMMIT_TEST_UNSET_BOOL", true); !got {
		t.Fatalf("Bool default: expected true")
	}
	if got := Millis("SUMMIT_TEST_MS", time.Second); got != 250*time.Millisecond {
		t.Fatalf("Millis: got=%s", got)
	}
	if got := String("SUMMIT_TEST_UNSET", "def"); got != "def" {
		t.Fatalf("String default: got=%q", got)
	}
}

func TestFloatAndList(t *testing.T) {
	t.Setenv("SUMMIT_TEST_RATIO", "0.25")
	t.Setenv("SUMMIT_TEST_BAD_RATIO", "most")
	t.Setenv("SUMMIT_TEST_LIST", " a@x.test, ,b@x.test ")

	if got := Float("SUMMIT_TEST_RATIO", 1); got != 0.25 {
		t.Fatalf("Float: got=%v", got)
	}
	if got := Float("SUMMIT_TEST_BAD_RATIO", 1); got != 1 {
		t.Fatalf("Float fallback: got=%v", got)
	}
	got := List("SUMMIT_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a@x.test" || got[1] != "b@x.test" {
		t.Fatalf("List: got=%q", got)
	}
	if got := List("SUMMIT_TEST_UNSET_LIST", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Fatalf("List default: got=%q", got)
	}
}
