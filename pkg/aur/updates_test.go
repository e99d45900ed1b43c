package aur

import (
	"strings"
	"testing"
)

// lexCmp orders versions lexically; good enough for fixtures shaped to sort
// the way real versions would.
func lexCmp(a, b string) (int, error) {
	return strings.Compare(a, b), nil
}

func TestOutdated(t *testing.T) {
	installed := map[string]string{
		"paru":  "1.0-1",
		"yay":   "3.0-1",
		"stale": "0.5-1",
	}
	latest := map[string]Package{
		"paru":  {Name: "paru", Version: "2.0-1"},
		"yay":   {Name: "yay", Version: "3.0-1"},
		"stale": {Name: "stale", Version: "0.9-1"},
	}

	updates := Outdated(installed, latest, lexCmp)

	want := []Update{
		{Name: "paru", Installed: "1.0-1", Latest: "2.0-1"},
		{Name: "stale", Installed: "0.5-1", Latest: "0.9-1"},
	}
	if len(updates) != len(want) {
		t.Fatalf("Outdated() = %v, want %v", updates, want)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("updates[%d] = %v, want %v", i, updates[i], want[i])
		}
	}
}

func TestOutdatedSkipsMissingNames(t *testing.T) {
	installed := map[string]string{"orphaned": "1.0-1"}
	latest := map[string]Package{}

	if updates := Outdated(installed, latest, lexCmp); len(updates) != 0 {
		t.Errorf("Outdated() = %v, want empty", updates)
	}
}

func TestOutdatedSkipsUncomparablePairs(t *testing.T) {
	installed := map[string]string{"weird": "1.0-1"}
	latest := map[string]Package{"weird": {Name: "weird", Version: "2.0-1"}}

	failCmp := func(a, b string) (int, error) {
		return 0, &compareError{}
	}
	if updates := Outdated(installed, latest, failCmp); len(updates) != 0 {
		t.Errorf("Outdated() = %v, want empty", updates)
	}
}

func TestOutdatedNewerInstalledNotReported(t *testing.T) {
	installed := map[string]string{"devbuild": "9.9-1"}
	latest := map[string]Package{"devbuild": {Name: "devbuild", Version: "1.0-1"}}

	if updates := Outdated(installed, latest, lexCmp); len(updates) != 0 {
		t.Errorf("Outdated() = %v, want empty (installed is newer)", updates)
	}
}

type compareError struct{}

func (*compareError) Error() string { return "uncomparable" }
