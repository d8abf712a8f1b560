package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestConfigDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.cmd")
	defer teardown()
	//
	conf, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if conf.GetString("path") != "." {
		t.Errorf("expected default path '.', have %q", conf.GetString("path"))
	}
	if conf.GetBool("dump-macro-expansions") {
		t.Errorf("expected expansion dumps to be off by default")
	}
	if conf.GetString("tracing.adapter") != "go" {
		t.Errorf("expected default tracing adapter 'go', have %q", conf.GetString("tracing.adapter"))
	}
}

func TestConfigFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.cmd")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "splice.toml")
	src := `
path = "lib"
dump-macro-expansions = true
depth = 7

[tracing]
level = "Debug"
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	conf, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	conf.InitDefaults()
	if conf.GetString("path") != "lib" {
		t.Errorf("expected path 'lib', have %q", conf.GetString("path"))
	}
	if !conf.GetBool("dump-macro-expansions") {
		t.Errorf("expected expansion dumps to be on")
	}
	if conf.GetInt("depth") != 7 {
		t.Errorf("expected depth 7, have %d", conf.GetInt("depth"))
	}
	if conf.GetString("tracing.level") != "Debug" {
		t.Errorf("expected nested key tracing.level=Debug, have %q", conf.GetString("tracing.level"))
	}
	if conf.GetString("tracing.adapter") != "go" {
		t.Errorf("expected default for tracing.adapter to survive, have %q", conf.GetString("tracing.adapter"))
	}
	if conf.IsSet("nothing") {
		t.Errorf("expected key 'nothing' to be unset")
	}
}

func TestConfigSyntaxError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.cmd")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "splice.toml")
	if err := os.WriteFile(path, []byte("path = \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestOpenBraces(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.cmd")
	defer teardown()
	//
	for _, c := range []struct {
		input string
		open  int
	}{
		{"x = 1", 0},
		{"def f(x) {", 1},
		{"def f(x) {\n  return [x,", 2},
		{"s = \"{\"", 0},
		{"x = 1 # {", 0},
		{"d = {'a': (1, 2)}", 0},
	} {
		if n := openBraces(c.input); n != c.open {
			t.Errorf("%q: expected %d open braces, have %d", c.input, c.open, n)
		}
	}
}

func TestTraceAdapterFromConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "splice.cmd")
	defer teardown()
	//
	conf, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := traceAdapter(conf)().(*gologadapter.Tracer); !ok {
		t.Errorf("expected default adapter 'go' to create Go loggers")
	}
	conf["tracing.adapter"] = "nop"
	if _, ok := traceAdapter(conf)().(*gologadapter.Tracer); ok {
		t.Errorf("expected adapter 'nop' not to create Go loggers")
	}
}
