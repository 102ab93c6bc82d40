package dsl

import (
	"fmt"
	"io"

	"github.com/hakosu/grackle/grammar"
	"github.com/hakosu/grackle/report"
)

// Parse reads a grammar source file:
//
//	name ';'
//	%left 'tok' … ';'  %right … ';'  %none … ';'
//	%whitespace "pattern" … ';'
//	nonterminal ':' rhs ('|' rhs)* ';'
//
// where an rhs is a sequence of identifiers, single-quoted literals,
// and double-quoted regexes, optionally followed by an action
// '[' name ']' and/or a '%precedence' override. The keyword `error`
// names the built-in recovery symbol.
func Parse(src io.Reader, sourceName string) (*grammar.Grammar, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		lex:        lex,
		sourceName: sourceName,
	}
	return p.parse()
}

type parser struct {
	lex        *lexer
	sourceName string
	errs       report.SpecErrors
}

func (p *parser) error(tok *token, format string, args ...interface{}) {
	p.errs = append(p.errs, &report.SpecError{
		Cause:      fmt.Errorf(format, args...),
		Code:       report.CodeSyntaxError,
		SourceName: p.sourceName,
		Row:        tok.row,
		Col:        tok.col,
	})
}

// skipTo discards tokens through the next semicolon so parsing can
// resume at a declaration boundary.
func (p *parser) skipTo(kind tokenKind) error {
	for {
		tok, err := p.lex.next()
		if err != nil {
			return err
		}
		if tok.kind == kind || tok.kind == tokenKindEOF {
			return nil
		}
	}
}

func (p *parser) parse() (*grammar.Grammar, error) {
	name, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if name.kind != tokenKindIdent {
		p.error(name, "a grammar must open with its name, found %v", name.kind)
		return nil, p.errs
	}
	semi, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if semi.kind != tokenKindSemicolon {
		p.error(semi, "the grammar name needs a terminating ';'")
		return nil, p.errs
	}

	b := grammar.NewBuilder(name.text)

	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenKindEOF:
			g, err := b.Build()
			if err != nil {
				if specErrs, ok := err.(report.SpecErrors); ok {
					p.errs = append(p.errs, specErrs...)
				} else {
					return nil, err
				}
			}
			if len(p.errs) > 0 {
				return nil, p.errs
			}
			return g, nil
		case tokenKindDirective:
			if err := p.parseDirective(b, tok); err != nil {
				return nil, err
			}
		case tokenKindIdent:
			if err := p.parseProduction(b, tok); err != nil {
				return nil, err
			}
		default:
			p.error(tok, "a declaration must open with a directive or a nonterminal, found %v", tok.kind)
			if err := p.skipTo(tokenKindSemicolon); err != nil {
				return nil, err
			}
		}
	}
}

func (p *parser) parseDirective(b *grammar.Builder, dir *token) error {
	switch dir.text {
	case "left", "right", "none":
		var scope *grammar.DirectiveScope
		switch dir.text {
		case "left":
			scope = b.Left(dir.row)
		case "right":
			scope = b.Right(dir.row)
		default:
			scope = b.None(dir.row)
		}
		for {
			tok, err := p.lex.next()
			if err != nil {
				return err
			}
			switch tok.kind {
			case tokenKindSemicolon:
				return nil
			case tokenKindIdent:
				scope.Identifier(tok.text, tok.row)
			case tokenKindLiteral:
				scope.Literal(tok.text, tok.row)
			case tokenKindRegex:
				scope.Regex(tok.text, tok.row)
			case tokenKindEOF:
				p.error(tok, "%%%v needs a terminating ';'", dir.text)
				return nil
			default:
				p.error(tok, "%%%v lists terminals only, found %v", dir.text, tok.kind)
			}
		}
	case "whitespace":
		scope := b.Whitespace(dir.row)
		for {
			tok, err := p.lex.next()
			if err != nil {
				return err
			}
			switch tok.kind {
			case tokenKindSemicolon:
				return nil
			case tokenKindLiteral:
				scope.Literal(tok.text, tok.row)
			case tokenKindRegex:
				scope.Regex(tok.text, tok.row)
			case tokenKindEOF:
				p.error(tok, "%%whitespace needs a terminating ';'")
				return nil
			default:
				p.error(tok, "%%whitespace lists literals and regexes only, found %v", tok.kind)
			}
		}
	default:
		p.error(dir, "unknown directive %%%v", dir.text)
		return p.skipTo(tokenKindSemicolon)
	}
}

func (p *parser) parseProduction(b *grammar.Builder, name *token) error {
	colon, err := p.lex.next()
	if err != nil {
		return err
	}
	if colon.kind != tokenKindColon {
		p.error(colon, "nonterminal %v needs a ':' before its alternatives", name.text)
		return p.skipTo(tokenKindSemicolon)
	}

	scope := b.Production(name.text, name.row)
	action := ""

	endAlternative := func(tok *token) {
		if action != "" {
			scope.Action(action, tok.row)
		} else {
			scope.EndExpression(tok.row)
		}
		action = ""
	}

	for {
		tok, err := p.lex.next()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokenKindSemicolon:
			endAlternative(tok)
			return nil
		case tokenKindVBar:
			endAlternative(tok)
		case tokenKindIdent:
			if tok.text == "error" {
				scope.Error(tok.row)
			} else {
				scope.Identifier(tok.text, tok.row)
			}
		case tokenKindLiteral:
			scope.Literal(tok.text, tok.row)
		case tokenKindRegex:
			scope.Regex(tok.text, tok.row)
		case tokenKindLBracket:
			ident, err := p.lex.next()
			if err != nil {
				return err
			}
			if ident.kind != tokenKindIdent {
				p.error(ident, "an action needs an identifier, found %v", ident.kind)
				return p.skipTo(tokenKindSemicolon)
			}
			if action != "" {
				p.error(ident, "an alternative can carry at most one action")
			}
			action = ident.text
			closing, err := p.lex.next()
			if err != nil {
				return err
			}
			if closing.kind != tokenKindRBracket {
				p.error(closing, "an action needs a closing ']'")
				return p.skipTo(tokenKindSemicolon)
			}
		case tokenKindDirective:
			if tok.text != "precedence" {
				p.error(tok, "only %%precedence may appear inside an alternative, found %%%v", tok.text)
				return p.skipTo(tokenKindSemicolon)
			}
			donor, err := p.lex.next()
			if err != nil {
				return err
			}
			scope.Precedence()
			switch donor.kind {
			case tokenKindIdent:
				scope.Identifier(donor.text, donor.row)
			case tokenKindLiteral:
				scope.Literal(donor.text, donor.row)
			case tokenKindRegex:
				scope.Regex(donor.text, donor.row)
			default:
				p.error(donor, "%%precedence needs a terminal, found %v", donor.kind)
				return p.skipTo(tokenKindSemicolon)
			}
		case tokenKindEOF:
			p.error(tok, "nonterminal %v needs a terminating ';'", name.text)
			endAlternative(tok)
			return nil
		default:
			p.error(tok, "unexpected %v in an alternative", tok.kind)
			return p.skipTo(tokenKindSemicolon)
		}
	}
}

// ParseFile annotates errors with the file path so they render with
// source context.
func ParseFile(src io.Reader, filePath, sourceName string) (*grammar.Grammar, error) {
	g, err := Parse(src, sourceName)
	if err != nil {
		if specErrs, ok := err.(report.SpecErrors); ok {
			for _, e := range specErrs {
				e.FilePath = filePath
			}
		}
		return nil, err
	}
	return g, nil
}
