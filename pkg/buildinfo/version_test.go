package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-02T03:04:05Z"

	info := Get()
	if info.Version != "v1.2.3" || info.Commit != "abc123" || info.Date != "2026-01-02T03:04:05Z" {
		t.Errorf("Get() = %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.Contains(tmpl, "commit: "+Commit) {
		t.Errorf("Template() missing commit: %q", tmpl)
	}
}
