// Package css reads stylesheet text back into rules. It is used to look up
// values embedded into generated stylesheets and to inspect compiled output.
package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
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

// Parse parses CSS text into a Stylesheet. Parsing never fails, whatever
// could be recognized is returned.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	sheet.Items, _ = p.parseItems(parser, sheet, false)
	return sheet
}

// parseItems reads rules and at-rules until the end of the enclosing block
// (or input). Declarations found directly in the block are returned
// separately.
func (p *Parser) parseItems(parser *css.Parser, sheet *Stylesheet, inBlock bool) ([]Item, []Declaration) {
	var (
		items   []Item
		decls   []Declaration
		pending []string
	)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				sheet.Warnings = append(sheet.Warnings, err.Error())
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return items, decls

		case css.EndAtRuleGrammar:
			if inBlock {
				return items, decls
			}

		case css.AtRuleGrammar:
			items = append(items, Item{Block: &Block{
				Name:      strings.ToLower(string(data)),
				Prelude:   joinPrelude(parser.Values()),
				Statement: true,
			}})

		case css.BeginAtRuleGrammar:
			block := &Block{
				Name:    strings.ToLower(string(data)),
				Prelude: joinPrelude(parser.Values()),
			}
			block.Items, block.Declarations = p.parseItems(parser, sheet, true)
			items = append(items, Item{Block: block})

		case css.QualifiedRuleGrammar:
			// selector list member followed by a comma
			pending = append(pending, parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			rule := &Rule{Selectors: append(pending, parseSelectors(data, parser.Values())...)}
			pending = nil
			rule.Declarations = p.parseDeclarations(parser, sheet)
			items = append(items, Item{Rule: rule})

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, Declaration{Property: declarationName(gt, data), Value: joinTokens(parser.Values())})
		}
	}
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser, sheet *Stylesheet) []Declaration {
	var decls []Declaration

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, Declaration{Property: declarationName(gt, data), Value: joinTokens(parser.Values())})

		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			sheet.Warnings = append(sheet.Warnings, "nested rule skipped: "+string(data)+joinTokens(parser.Values()))
			p.skipBlock(parser)
		}
	}
}

// skipBlock skips tokens until the matching end of a block.
func (p *Parser) skipBlock(parser *css.Parser) {
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

func declarationName(gt css.GrammarType, data []byte) string {
	if gt == css.CustomPropertyGrammar {
		// custom properties are case sensitive
		return string(data)
	}
	return strings.ToLower(string(data))
}

// joinTokens builds raw text from tokens collapsing whitespace.
func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// joinPrelude builds at-rule prelude text. The tokenizer drops whitespace
// following colons, so it is restored for features in plain parentheses:
// "(max-width: 100px)", not inside functions like "selector(a:hover)".
func joinPrelude(tokens []css.Token) string {
	var (
		sb    strings.Builder
		space bool
		colon bool
		stack []css.TokenType
	)
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = true
			continue
		}
		if (space || colon) && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space, colon = false, false
		sb.Write(t.Data)

		switch t.TokenType {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			stack = append(stack, t.TokenType)
		case css.RightParenthesisToken, css.RightBracketToken:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case css.ColonToken:
			colon = len(stack) > 0 && stack[len(stack)-1] == css.LeftParenthesisToken
		}
	}
	return strings.TrimSpace(sb.String())
}

// parseSelectors extracts selector strings from token data.
func parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	sb.WriteString(joinTokens(values))

	var selectors []string
	for _, s := range splitList(sb.String()) {
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// splitList splits selector list by commas which are not nested in
// parentheses or brackets.
func splitList(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
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
