package semverx

import "testing"

func TestMaxSatisfyingPicksGreatest(t *testing.T) {
	got, ok := MaxSatisfying([]string{"1.0.0", "1.2.3"}, "^1.0.0")
	if !ok || got != "1.2.3" {
		t.Fatalf("got (%q, %v), want (1.2.3, true)", got, ok)
	}
}

func TestMaxSatisfyingNarrowRange(t *testing.T) {
	got, ok := MaxSatisfying([]string{"1.0.0", "1.2.3"}, "~1.0.0")
	if !ok || got != "1.0.0" {
		t.Fatalf("got (%q, %v), want (1.0.0, true)", got, ok)
	}
}

func TestMaxSatisfyingNone(t *testing.T) {
	_, ok := MaxSatisfying([]string{"1.2.3"}, "^2.0.0")
	if ok {
		t.Fatal("expected no satisfying version")
	}
}

func TestMaxSatisfyingEmptyCandidates(t *testing.T) {
	_, ok := MaxSatisfying(nil, "^1.0.0")
	if ok {
		t.Fatal("expected no satisfying version for empty candidate set")
	}
}
