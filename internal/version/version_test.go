package version

import (
	"strings"
	"testing"
)

func TestPretty(t *testing.T) {
	prev := Version
	defer func() { Version = prev }()

	Version = "1.2.3-rc1"
	if got := Pretty(false); got != "1.2.3-rc1" {
		t.Fatalf("Pretty(false) = %q", got)
	}
	colored := Pretty(true)
	if !strings.Contains(colored, "\x1b[") {
		t.Fatalf("Pretty(true) = %q, want escape codes", colored)
	}
	if strings.Count(colored, ".") != 2 {
		t.Fatalf("Pretty(true) = %q", colored)
	}

	Version = "dev"
	if got := Pretty(true); got != "dev" {
		t.Fatalf("Pretty = %q", got)
	}
}
