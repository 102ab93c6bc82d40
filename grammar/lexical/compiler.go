// Package lexical compiles the terminal patterns of a grammar into
// the scanner's state machine: one minimized DFA over the union of all
// token patterns and, separately, one over the whitespace patterns.
package lexical

import (
	"fmt"

	"github.com/hakosu/grackle/grammar/lexical/dfa"
	"github.com/hakosu/grackle/grammar/lexical/regex"
	"github.com/hakosu/grackle/grammar/symbol"
	"github.com/hakosu/grackle/machine"
)

// Entry is one pattern handed to the compiler. Accept is the index the
// scanner reports when the pattern matches: a terminal index for
// tokens, an ordinal for whitespace.
type Entry struct {
	Kind    symbol.LexemeKind
	Pattern string
	Accept  int32
	Line    int
}

// CompileError is one malformed pattern.
type CompileError struct {
	Pattern string
	Line    int
	Cause   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Cause)
}

// Compile builds the scanner state machine. Token entries must be in
// declaration order: the subset construction breaks accept ties in
// favor of the lowest accept index, which realizes the
// first-declared-wins rule.
func Compile(tokens []*Entry, whitespace []*Entry) (*machine.LexerStateMachine, []*CompileError) {
	m := &machine.LexerStateMachine{}
	actions := map[string]int32{}

	var cerrs []*CompileError
	parse := func(entries []*Entry) []*dfa.Pattern {
		var pats []*dfa.Pattern
		for _, e := range entries {
			var root regex.Node
			var err error
			action := machine.NoAction
			switch e.Kind {
			case symbol.LexemeRegularExpression:
				var name string
				root, name, err = regex.Parse(e.Pattern)
				if err == nil && name != "" {
					id, ok := actions[name]
					if !ok {
						id = int32(len(m.ActionNames))
						m.ActionNames = append(m.ActionNames, name)
						actions[name] = id
					}
					action = id
				}
			default:
				root, err = regex.NewLiteralTree(e.Pattern)
			}
			if err != nil {
				cerrs = append(cerrs, &CompileError{
					Pattern: e.Pattern,
					Line:    e.Line,
					Cause:   err,
				})
				continue
			}
			pats = append(pats, &dfa.Pattern{
				Root:   root,
				Accept: e.Accept,
				Action: action,
			})
		}
		return pats
	}

	tokenPats := parse(tokens)
	wsPats := parse(whitespace)
	if len(cerrs) > 0 {
		return nil, cerrs
	}

	if len(tokenPats) == 0 {
		return nil, []*CompileError{{
			Cause: fmt.Errorf("a grammar needs at least one terminal with a pattern"),
		}}
	}

	tokenDFA, err := dfa.Compile(tokenPats)
	if err != nil {
		return nil, []*CompileError{{
			Cause: err,
		}}
	}
	m.Token = tokenDFA

	if len(wsPats) > 0 {
		wsDFA, err := dfa.Compile(wsPats)
		if err != nil {
			return nil, []*CompileError{{
				Cause: err,
			}}
		}
		m.Whitespace = wsDFA
	}

	return m, nil
}
