package lint

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"cssb/config"
	"cssb/css"
	"cssb/selector"
	"cssb/state"
)

const sample = `
#b.a { color: red; }
.c1#main { color: red; }
p::before::after { content: ""; }
.item10#x, .item2#x { margin: 0; }
@media print {
  #a#b { display: none; }
  p { color: black; }
}
`

func TestStylesheet(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	res := Stylesheet(p, []byte(sample), "sample.css", config.LintConfig{})
	if res.Rules != 7 {
		t.Errorf("expected 7 rules, got %d", res.Rules)
	}
	if len(res.Violations) != 5 {
		t.Fatalf("expected 5 violations, got %d: %v", len(res.Violations), res.Violations)
	}
	if !errors.Is(res.Violations[0].Err, selector.ErrOrderViolation) {
		t.Errorf("expected order violation first, got %v", res.Violations[0].Err)
	}

	want := []string{"#a#b", ".c1#main", ".item2#x", ".item10#x", "p::before::after"}
	got := res.Selectors()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Selectors() = %v, want %v", got, want)
	}
}

func TestStylesheet_IgnoreMedia(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	res := Stylesheet(p, []byte(sample), "sample.css", config.LintConfig{IgnoreMedia: true})
	if res.Rules != 5 {
		t.Errorf("expected 5 rules, got %d", res.Rules)
	}
	if len(res.Violations) != 4 {
		t.Errorf("expected 4 violations, got %d", len(res.Violations))
	}
	for _, v := range res.Violations {
		if v.Media != "" {
			t.Errorf("unexpected violation inside @media: %v", v)
		}
	}
}

func TestResult_SelectorsDistinct(t *testing.T) {
	res := Result{Violations: []css.Warning{{Selector: "b"}, {Selector: "a"}, {Selector: "b"}}}
	if got := res.Selectors(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Selectors() = %v", got)
	}
}

func TestReport_NamesFragment(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	res := Stylesheet(css.NewParser(zap.NewNop()), []byte(".c1#main { color: red; }"), "one.css", config.LintConfig{})

	report(zap.New(core), res, 0)

	entries := logs.FilterMessage("Selector violates builder grammar").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 violation entry, got %d", len(entries))
	}
	reason := entries[0].ContextMap()["reason"].(string)
	if !strings.Contains(reason, `"#main" after class`) {
		t.Errorf("reason does not name fragment: %q", reason)
	}
}

func TestDescribe(t *testing.T) {
	_, err := selector.Parse("p::before::after")
	if got := describe(err); !strings.Contains(got, `pseudo-element "::after" after pseudo-element`) {
		t.Errorf("describe() = %q", got)
	}
	if got := describe(errors.New("plain")); got != "plain" {
		t.Errorf("describe() = %q", got)
	}
}

func newApp(t *testing.T, cfg *config.Config) (context.Context, *cli.Command, *bytes.Buffer) {
	t.Helper()

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)

	var out bytes.Buffer
	app := &cli.Command{
		Name:   "cssb",
		Writer: &out,
		Commands: []*cli.Command{
			{Name: "lint", Action: Run},
			{Name: "check", Action: Check},
		},
	}
	// errors are checked by tests, do not let cli exit
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	return ctx, app, &out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestRun(t *testing.T) {
	clean := writeFile(t, "clean.css", "p.a { color: red; } ul > li { margin: 0; }")
	dirty := writeFile(t, "dirty.css", sample)

	t.Run("clean", func(t *testing.T) {
		ctx, app, _ := newApp(t, &config.Config{Version: 1, Lint: config.LintConfig{FailOnViolation: true}})
		if err := app.Run(ctx, []string{"cssb", "lint", clean}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("fail on violation", func(t *testing.T) {
		ctx, app, _ := newApp(t, &config.Config{Version: 1, Lint: config.LintConfig{FailOnViolation: true, MaxReported: 2}})
		err := app.Run(ctx, []string{"cssb", "lint", clean, dirty, filepath.Join(t.TempDir(), "missing.css")})
		if err == nil {
			t.Fatal("expected error")
		}
		if n := len(multierr.Errors(err)); n != 2 {
			t.Errorf("expected 2 aggregated errors, got %d: %v", n, err)
		}
		if !strings.Contains(err.Error(), "5 selector(s)") {
			t.Errorf("unexpected error text: %v", err)
		}
	})

	t.Run("report only", func(t *testing.T) {
		ctx, app, _ := newApp(t, &config.Config{Version: 1})
		if err := app.Run(ctx, []string{"cssb", "lint", dirty}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("no files", func(t *testing.T) {
		ctx, app, _ := newApp(t, &config.Config{Version: 1})
		if err := app.Run(ctx, []string{"cssb", "lint"}); err == nil {
			t.Error("expected error without files")
		}
	})
}

func TestCheck(t *testing.T) {
	ctx, app, out := newApp(t, &config.Config{Version: 1})

	err := app.Run(ctx, []string{"cssb", "check", "a>b", ".c1#main", "ul li", "a, b"})
	if err == nil {
		t.Fatal("expected error")
	}
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), err)
	}
	if !errors.Is(errs[0], selector.ErrOrderViolation) {
		t.Errorf("expected order violation, got %v", errs[0])
	}
	if !errors.Is(errs[1], selector.ErrSyntax) {
		t.Errorf("expected syntax error, got %v", errs[1])
	}
	if out.String() != "a > b\nul   li\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}
