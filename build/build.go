// Package build implements "build" subcommand: assembling selector from
// command line parts.
package build

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssb/css"
	"cssb/selector"
	"cssb/state"
)

// Assemble builds expression from parts. Each part is either KIND=VALUE or a
// combinator (symbol or name). When slugify is set id and class values are
// converted to slugs.
func Assemble(parts []string, slugify bool) (selector.Expr, error) {
	var (
		result  selector.Expr
		cur     = selector.Begin()
		comb    string
		joined  bool
		started bool
	)
	for i, part := range parts {
		if c, err := selector.ParseCombinator(part); err == nil {
			if !started {
				return selector.Expr{}, fmt.Errorf("part %d (%q): combinator without left side", i+1, part)
			}
			e, _ := cur.Expr()
			if joined {
				result = selector.Combine(result, comb, e)
			} else {
				result, joined = e, true
			}
			comb, cur, started = c, selector.Begin(), false
			continue
		}

		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return selector.Expr{}, fmt.Errorf("part %d (%q): expected KIND=VALUE or combinator", i+1, part)
		}
		k, err := selector.ParseKind(name)
		if err != nil {
			return selector.Expr{}, fmt.Errorf("part %d (%q): %w", i+1, part, err)
		}
		if slugify && (k == selector.KindID || k == selector.KindClass) {
			value = slug.Make(value)
		}
		if cur = cur.Append(k, value); cur.Err() != nil {
			return selector.Expr{}, fmt.Errorf("part %d (%q): %w", i+1, part, cur.Err())
		}
		started = true
	}
	if !started {
		if joined {
			return selector.Expr{}, fmt.Errorf("dangling combinator %q", comb)
		}
		return selector.Expr{}, errors.New("nothing to build")
	}
	e, _ := cur.Expr()
	if !joined {
		return e, nil
	}
	return selector.Combine(result, comb, e), nil
}

// Run is the action for "build" subcommand.
func Run(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Logger().Named("build")

	if cmd.NArg() == 0 {
		return errors.New("nothing to build, at least one PART is required")
	}

	slugify := cmd.Bool("slug")
	if env.Cfg != nil {
		slugify = slugify || env.Cfg.Build.Slugify
	}

	e, err := Assemble(cmd.Args().Slice(), slugify)
	if err != nil {
		return fmt.Errorf("unable to build selector: %w", err)
	}
	log.Debug("Selector built", zap.String("selector", selector.Render(e)), zap.Bool("slugify", slugify))

	out := selector.Render(e) + "\n"
	if decl := cmd.String("rule"); len(decl) > 0 {
		props := css.NewParser(log).ParseInline([]byte(decl))
		if len(props) == 0 {
			return fmt.Errorf("no declarations found in '%s'", decl)
		}
		var sheet css.Stylesheet
		sheet.Add(css.Rule{Selector: css.Selector{Raw: selector.Render(e), Expr: e}, Properties: props})
		out = sheet.String()
	}

	if _, err := fmt.Fprint(cmd.Root().Writer, out); err != nil {
		return fmt.Errorf("unable to write selector: %w", err)
	}
	return nil
}
