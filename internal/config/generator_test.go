package config

import (
	"context"
	"strings"
	"testing"

	"github.com/vellumlabs/dotstrap/internal/platform"
)

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator()
	code, err := gen.Generate(Default())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, want := range []string{
		"dotstrap = {",
		`path = "/etc/ansible/hosts"`,
		`host = "localhost"`,
		`connection = "local"`,
		`path = "~/.ansible/setup.yml"`,
		"ask_become_pass = true",
		`"ansible"`,
		`"starship"`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("generated config missing %q:\n%s", want, code)
		}
	}

	// The insecure mode must never appear unless opted into.
	if strings.Contains(code, "world_writable") {
		t.Error("world_writable should be omitted when false")
	}
}

func TestGenerator_Generate_WorldWritableOptIn(t *testing.T) {
	cfg := Default()
	cfg.Inventory.WorldWritable = true

	code, err := NewGenerator().Generate(cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(code, "world_writable = true") {
		t.Errorf("generated config should carry the explicit opt-in:\n%s", code)
	}
}

func TestGenerator_RoundTrip(t *testing.T) {
	original := Default()
	original.Meta.Name = `with "quotes" and \backslash`
	original.Inventory.Group = "local"
	original.Shell.ZellijAutostart = true
	original.Options.SkipUpgrade = true

	code, err := NewGenerator().Generate(original)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	detector := &mockDetector{info: &platform.Info{OS: "linux", Arch: "amd64"}}
	parsed, err := NewParser(detector).ParseString(context.Background(), code)
	if err != nil {
		t.Fatalf("ParseString() error = %v\ncode:\n%s", err, code)
	}

	if parsed.Meta.Name != original.Meta.Name {
		t.Errorf("Meta.Name = %q, want %q", parsed.Meta.Name, original.Meta.Name)
	}
	if parsed.Inventory.Group != "local" {
		t.Errorf("Inventory.Group = %q, want local", parsed.Inventory.Group)
	}
	if len(parsed.Packages) != len(original.Packages) {
		t.Errorf("Packages = %v, want %v", parsed.Packages, original.Packages)
	}
	if !parsed.Shell.ZellijAutostart {
		t.Error("Shell.ZellijAutostart lost in round-trip")
	}
	if !parsed.Options.SkipUpgrade {
		t.Error("Options.SkipUpgrade lost in round-trip")
	}
}
