// Package lint checks stylesheets and standalone selectors against selector
// builder grammar.
package lint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssb/config"
	"cssb/css"
	"cssb/selector"
	"cssb/state"
)

// Result holds outcome of checking a single stylesheet.
type Result struct {
	Source     string
	Rules      int
	Violations []css.Warning
}

// Selectors returns distinct offending selectors in natural order.
func (r *Result) Selectors() []string {
	seen := make(map[string]struct{}, len(r.Violations))
	names := make([]string, 0, len(r.Violations))
	for _, w := range r.Violations {
		if _, ok := seen[w.Selector]; ok {
			continue
		}
		seen[w.Selector] = struct{}{}
		names = append(names, w.Selector)
	}
	sort.Slice(names, func(i, j int) bool { return natural.Less(names[i], names[j]) })
	return names
}

// Stylesheet parses data and collects selectors violating builder grammar.
func Stylesheet(p *css.Parser, data []byte, source string, cfg config.LintConfig) *Result {
	sheet := p.Parse(data, source)

	res := &Result{Source: source}
	for _, item := range sheet.Items {
		switch {
		case item.Rule != nil:
			res.Rules++
		case item.MediaBlock != nil && !cfg.IgnoreMedia:
			res.Rules += len(item.MediaBlock.Rules)
		}
	}
	for _, w := range sheet.Warnings {
		if cfg.IgnoreMedia && w.Media != "" {
			continue
		}
		res.Violations = append(res.Violations, w)
	}
	return res
}

// Run is the action for "lint" subcommand.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Logger().Named("lint")

	if cmd.NArg() == 0 {
		return errors.New("no stylesheets to check, at least one FILE is required")
	}

	var cfg config.LintConfig
	if env.Cfg != nil {
		cfg = env.Cfg.Lint
	}

	p := css.NewParser(log)
	for _, fname := range cmd.Args().Slice() {
		if ctx.Err() != nil {
			return multierr.Append(err, ctx.Err())
		}

		data, er := os.ReadFile(fname)
		if er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to read stylesheet '%s': %w", fname, er))
			continue
		}

		res := Stylesheet(p, data, fname, cfg)
		report(log, res, cfg.MaxReported)

		if len(res.Violations) > 0 && cfg.FailOnViolation {
			err = multierr.Append(err, fmt.Errorf("%s: %d selector(s) violate builder grammar", fname, len(res.Violations)))
		}
	}
	return err
}

func report(log *zap.Logger, res *Result, limit int) {
	for i, w := range res.Violations {
		if limit > 0 && i >= limit {
			log.Warn("Too many violations, rest is not reported", zap.String("file", res.Source), zap.Int("skipped", len(res.Violations)-limit))
			break
		}
		fields := []zap.Field{zap.String("file", res.Source), zap.String("selector", w.Selector), zap.String("reason", describe(w.Err))}
		if w.Media != "" {
			fields = append(fields, zap.String("media", w.Media))
		}
		log.Warn("Selector violates builder grammar", fields...)
	}
	if len(res.Violations) == 0 {
		log.Info("Stylesheet is clean", zap.String("file", res.Source), zap.Int("rules", res.Rules))
		return
	}
	log.Info("Stylesheet checked", zap.String("file", res.Source), zap.Int("rules", res.Rules),
		zap.Int("violations", len(res.Violations)), zap.Strings("selectors", res.Selectors()))
}

// describe names the offending fragment when err is a grammar violation.
func describe(err error) string {
	var ge *selector.GrammarError
	if errors.As(err, &ge) {
		return ge.Detail()
	}
	return err.Error()
}

// Check is the action for "check" subcommand. Each argument is parsed as a
// selector, normalized form is written for valid ones.
func Check(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Logger().Named("check")

	if cmd.NArg() == 0 {
		return errors.New("nothing to check, at least one SELECTOR is required")
	}

	for _, text := range cmd.Args().Slice() {
		e, er := selector.Parse(text)
		if er != nil {
			log.Warn("Selector rejected", zap.String("selector", text), zap.String("reason", describe(er)))
			err = multierr.Append(err, fmt.Errorf("'%s': %w", text, er))
			continue
		}
		if _, er := fmt.Fprintln(cmd.Root().Writer, selector.Render(e)); er != nil {
			return multierr.Append(err, fmt.Errorf("unable to write selector: %w", er))
		}
	}
	return err
}
