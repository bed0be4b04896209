package main

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
	"testing/fstest"

	mprops "github.com/magiconair/properties"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/bootprops/internal/properties"
	"github.com/eugenenazirov/bootprops/internal/sysprops"
)

func loadTestSet(t *testing.T, content string) *properties.Set {
	t.Helper()
	src := &properties.EmbeddedSource{
		FS:   fstest.MapFS{"test.properties": {Data: []byte(content)}},
		Path: "test.properties",
	}
	loader := properties.NewLoader(zaptest.NewLogger(t), []properties.Source{src},
		properties.WithStore(sysprops.NewMemoryStore()))

	set, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return set
}

func TestParseArgs(t *testing.T) {
	t.Run("serve is the default command", func(t *testing.T) {
		inv, err := parseArgs([]string{"--catalina-base", "/srv/base"})
		if err != nil {
			t.Fatalf("parseArgs returned error: %v", err)
		}
		if inv.command != cmdServe {
			t.Fatalf("expected serve command, got %q", inv.command)
		}
		if inv.overrides.RateLimitRPS != nil || inv.overrides.Port != nil {
			t.Fatalf("expected serve overrides to stay unset")
		}
	})

	t.Run("serve flags", func(t *testing.T) {
		inv, err := parseArgs([]string{"--catalina-base", "/srv/base", "serve", "--port", "9000"})
		if err != nil {
			t.Fatalf("parseArgs returned error: %v", err)
		}
		if inv.overrides.BaseDir == nil || *inv.overrides.BaseDir != "/srv/base" {
			t.Fatalf("expected base dir override")
		}
		if inv.overrides.Port == nil || *inv.overrides.Port != "9000" {
			t.Fatalf("expected port override")
		}
		if inv.overrides.RateLimitRPS != nil || inv.overrides.RateLimitBurst != nil {
			t.Fatalf("expected rate limit overrides to stay unset")
		}
		if inv.overrides.ExportEnv != nil {
			t.Fatalf("expected export-env to stay unset")
		}
	})

	t.Run("rate limit flags", func(t *testing.T) {
		inv, err := parseArgs([]string{"serve", "--rate-limit-rps", "0", "--rate-limit-burst", "3"})
		if err != nil {
			t.Fatalf("parseArgs returned error: %v", err)
		}
		if inv.overrides.RateLimitRPS == nil || *inv.overrides.RateLimitRPS != 0 {
			t.Fatalf("expected explicit zero RPS override")
		}
		if inv.overrides.RateLimitBurst == nil || *inv.overrides.RateLimitBurst != 3 {
			t.Fatalf("expected burst override")
		}
	})

	t.Run("get with default", func(t *testing.T) {
		inv, err := parseArgs([]string{"--export-env", "get", "common.loader", "--default", ""})
		if err != nil {
			t.Fatalf("parseArgs returned error: %v", err)
		}
		if inv.command != cmdGet || inv.name != "common.loader" {
			t.Fatalf("unexpected invocation %+v", inv)
		}
		if inv.def == nil || *inv.def != "" {
			t.Fatalf("expected explicit empty default")
		}
		if inv.overrides.ExportEnv == nil || !*inv.overrides.ExportEnv {
			t.Fatalf("expected export-env override")
		}
	})

	t.Run("get without default", func(t *testing.T) {
		inv, err := parseArgs([]string{"get", "common.loader"})
		if err != nil {
			t.Fatalf("parseArgs returned error: %v", err)
		}
		if inv.def != nil {
			t.Fatalf("expected no default")
		}
	})

	t.Run("get requires a name", func(t *testing.T) {
		if _, err := parseArgs([]string{"get"}); err == nil {
			t.Fatalf("expected error for missing name")
		}
	})

	t.Run("list", func(t *testing.T) {
		inv, err := parseArgs([]string{"list", "--catalina-config", "http://config.local/c.properties"})
		if err != nil {
			t.Fatalf("parseArgs returned error: %v", err)
		}
		if inv.command != cmdList || *inv.overrides.ConfigURL != "http://config.local/c.properties" {
			t.Fatalf("unexpected invocation %+v", inv)
		}
	})
}

func TestPrintProperty(t *testing.T) {
	set := loadTestSet(t, "present=yes\n")

	var out bytes.Buffer
	if err := printProperty(&out, set, "present", nil); err != nil {
		t.Fatalf("printProperty returned error: %v", err)
	}
	if out.String() != "yes\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	def := "fallback"
	if err := printProperty(&out, set, "absent", &def); err != nil {
		t.Fatalf("printProperty returned error: %v", err)
	}
	if out.String() != "fallback\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := printProperty(&out, set, "absent", nil); !errors.Is(err, errPropertyNotFound) {
		t.Fatalf("expected errPropertyNotFound, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output for missing property, got %q", out.String())
	}
}

func TestPrintProperties(t *testing.T) {
	set := loadTestSet(t, "b=2\na=1\nempty=\n")

	var out bytes.Buffer
	printProperties(&out, set)

	if want := "b=2\na=1\nempty=\n"; out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}

func TestPrintPropertiesEscapesSpecialCharacters(t *testing.T) {
	set := loadTestSet(t, `a\=b=line1\nline2
c\:d=\ leading #!
x\ y=back\\slash
hash\#key=tab\there
`)
	if set.Len() != 4 {
		t.Fatalf("expected 4 entries, got %v", set.Keys())
	}

	var out bytes.Buffer
	printProperties(&out, set)

	reloaded, err := (&mprops.Loader{Encoding: mprops.UTF8, DisableExpansion: true}).LoadBytes(out.Bytes())
	if err != nil {
		t.Fatalf("output does not parse as properties: %v\n%s", err, out.String())
	}
	if got := reloaded.Keys(); !slices.Equal(got, set.Keys()) {
		t.Fatalf("expected keys %q, got %q", set.Keys(), got)
	}
	for _, name := range set.Keys() {
		want, _ := set.Property(name)
		if got, _ := reloaded.Get(name); got != want {
			t.Fatalf("value of %q changed in round trip: want %q, got %q", name, want, got)
		}
	}
}
