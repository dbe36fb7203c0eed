package version

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	build := Current()

	if build.Version == "" || build.Commit == "" || build.Date == "" {
		t.Fatalf("build metadata must have defaults: %+v", build)
	}
	if build.Version != GetVersion() {
		t.Fatalf("GetVersion (%s) must match Current (%s)", GetVersion(), build.Version)
	}
}

func TestString(t *testing.T) {
	s := String()

	for _, field := range []string{"version=", "commit=", "date="} {
		if !strings.Contains(s, field) {
			t.Fatalf("String %q must contain %q", s, field)
		}
	}
}
