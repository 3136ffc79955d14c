package css

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"cssb/selector"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]Warning, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// End of input or error
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := string(data)
			switch strings.ToLower(atRule) {
			case "@media":
				query := joinTokens(parser.Values())
				rules := p.parseRules(parser, sheet, query)
				p.log.Debug("Parsed @media block", zap.String("query", query), zap.Int("rules", len(rules)))
				sheet.Items = append(sheet.Items, StylesheetItem{
					MediaBlock: &MediaBlock{Query: query, Rules: rules},
				})
			default:
				// Skip other @-rules with blocks
				p.skipAtRuleBlock(parser)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			atRule := string(data)
			if strings.EqualFold(atRule, "@import") {
				url := extractImportURL(parser.Values())
				if url != "" {
					sheet.Items = append(sheet.Items, StylesheetItem{Import: &url})
					p.log.Debug("Parsed @import", zap.String("url", url))
				}
			} else {
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.BeginRulesetGrammar:
			for _, rule := range p.parseRuleset(parser, data, sheet, "") {
				sheet.Items = append(sheet.Items, StylesheetItem{Rule: &rule})
			}
		}
	}
}

// ParseInline parses declarations of a style attribute, e.g.
// "color: red; margin: 0".
func (p *Parser) ParseInline(data []byte) map[string]Value {
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), true)
	return p.parseDeclarations(parser)
}

// parseRuleset turns current ruleset into one rule per selector of the list.
func (p *Parser) parseRuleset(parser *css.Parser, data []byte, sheet *Stylesheet, media string) []Rule {
	selectors := splitSelectors(data, parser.Values())
	props := p.parseDeclarations(parser)

	rules := make([]Rule, 0, len(selectors))
	for _, raw := range selectors {
		propsCopy := make(map[string]Value, len(props))
		maps.Copy(propsCopy, props)
		rules = append(rules, Rule{
			Selector:   p.parseSelector(raw, sheet, media),
			Properties: propsCopy,
		})
	}
	return rules
}

// parseRules parses rules inside an @media block and returns them.
func (p *Parser) parseRules(parser *css.Parser, sheet *Stylesheet, media string) []Rule {
	var rules []Rule
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return rules

		case css.BeginRulesetGrammar:
			rules = append(rules, p.parseRuleset(parser, data, sheet, media)...)

		case css.BeginAtRuleGrammar:
			p.skipAtRuleBlock(parser)
			p.log.Debug("Skipping nested @-rule", zap.String("rule", string(data)), zap.String("media", media))
		}
	}
}

// parseSelector rebuilds selector text with selector builder, grammar
// violations are recorded as stylesheet warnings.
func (p *Parser) parseSelector(raw string, sheet *Stylesheet, media string) Selector {
	sel := Selector{Raw: raw}
	sel.Expr, sel.Err = selector.Parse(raw)
	if sel.Err != nil {
		sheet.Warnings = append(sheet.Warnings, Warning{Selector: raw, Media: media, Err: sel.Err})
		p.log.Debug("Selector does not follow builder grammar", zap.String("selector", raw), zap.Error(sel.Err))
	}
	return sel
}

// splitSelectors splits selector list tokens on top level commas. Commas
// inside functions and attribute brackets belong to selectors.
func splitSelectors(data []byte, tokens []css.Token) []string {
	var (
		selectors []string
		sb        strings.Builder
		depth     int
		prev      = css.ErrorToken
	)
	sb.Write(data)
	flush := func() {
		if s := strings.TrimSpace(sb.String()); s != "" {
			selectors = append(selectors, s)
		}
		sb.Reset()
		prev = css.ErrorToken
	}
	for _, t := range tokens {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				flush()
				continue
			}
		}
		// comments are dropped by the grammar parser, put one back where
		// neighbouring tokens would otherwise read as a single token
		if mergesWith(prev, t.TokenType) {
			sb.WriteString("/**/")
		}
		sb.Write(t.Data)
		prev = t.TokenType
	}
	flush()
	return selectors
}

// mergesWith reports whether text of token b written right after token a
// would be lexed differently.
func mergesWith(a, b css.TokenType) bool {
	return (a == css.IdentToken || a == css.HashToken) && (b == css.IdentToken || b == css.FunctionToken)
}

// extractImportURL extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url);
func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := string(t.Data)
			s = strings.TrimPrefix(s, "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) map[string]Value {
	props := make(map[string]Value)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props

		case css.DeclarationGrammar:
			propName := strings.ToLower(string(data))
			if values := parser.Values(); len(values) > 0 {
				props[propName] = parsePropertyValue(values)
			}

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) are kept verbatim
			props[string(data)] = Value{Raw: strings.TrimSpace(joinTokens(parser.Values()))}
		}
	}
}

// ParseValue parses standalone property value, e.g. "1.5em" or "bold".
func ParseValue(raw string) Value {
	l := css.NewLexer(parse.NewInputString(raw))
	var tokens []css.Token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		if tt == css.WhitespaceToken && len(tokens) == 0 {
			continue
		}
		tokens = append(tokens, css.Token{TokenType: tt, Data: bytes.Clone(data)})
	}
	return parsePropertyValue(tokens)
}

// parsePropertyValue converts CSS tokens to a Value.
func parsePropertyValue(tokens []css.Token) Value {
	if len(tokens) == 0 {
		return Value{}
	}

	raw := joinTokens(tokens)
	val := Value{Raw: raw}

	// Handle single token cases
	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Value, val.Unit = parseDimension(string(t.Data))
		case css.PercentageToken:
			val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = unquote(string(t.Data))
		case css.HashToken:
			// Color value
			val.Keyword = string(t.Data)
		}
		return val
	}

	// Functions (rgb(), url(), etc.) and multi-value properties keep raw value
	val.Keyword = raw
	return val
}

// joinTokens builds value string collapsing whitespace runs to single space.
func joinTokens(tokens []css.Token) string {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(rawParts, ""))
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}

	if numEnd == 0 {
		return 0, ""
	}

	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	unit := strings.ToLower(s[numEnd:])
	return num, unit
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
