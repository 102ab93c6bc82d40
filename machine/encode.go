package machine

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hakosu/grackle/compressor"
)

// Binary layout of a compiled grammar. The layout is fixed for a
// format version: header (magic, version, fingerprint, name), the
// parser counts and symbol arrays, the compressed action and goto
// matrices, the reduction array and error-trapper flags, and the
// scanner's range-keyed DFAs. All integers are little-endian int32;
// flags are one byte each; strings are length-prefixed UTF-8. Identical
// grammars serialize byte-identically.
var magic = [4]byte{'g', 'r', 'k', 'l'}

const formatVersion = int32(1)

type tableWriter struct {
	w   io.Writer
	err error
}

func (w *tableWriter) int32(v int32) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.w, binary.LittleEndian, v)
}

func (w *tableWriter) int32s(vs []int32) {
	w.int32(int32(len(vs)))
	for _, v := range vs {
		w.int32(v)
	}
}

func (w *tableWriter) bytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *tableWriter) string(s string) {
	w.int32(int32(len(s)))
	w.bytes([]byte(s))
}

func (w *tableWriter) strings(ss []string) {
	w.int32(int32(len(ss)))
	for _, s := range ss {
		w.string(s)
	}
}

func (w *tableWriter) bools(bs []bool) {
	w.int32(int32(len(bs)))
	for _, b := range bs {
		if b {
			w.bytes([]byte{1})
		} else {
			w.bytes([]byte{0})
		}
	}
}

func (w *tableWriter) matrix(entries []int32, colCount int, empty int32) {
	m, err := compressor.NewMatrix(entries, colCount)
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return
	}
	c := compressor.Compress(m, empty)
	w.int32(int32(c.RowCount))
	w.int32(int32(c.ColCount))
	w.int32(c.Empty)
	w.int32s(c.RowMap)
	w.int32s(c.Displacement)
	w.int32s(c.Entries)
	w.int32s(c.Bounds)
}

// Encode writes the compiled grammar in the binary table format.
func (c *Compiled) Encode(w io.Writer) error {
	tw := &tableWriter{w: w}
	tw.bytes(magic[:])
	tw.int32(formatVersion)
	tw.bytes(c.Fingerprint[:])
	tw.string(c.Name)

	p := c.Parser
	tw.int32(int32(p.TerminalCount))
	tw.int32(int32(p.NonTerminalCount))
	tw.int32(int32(p.StateCount))
	tw.int32(int32(p.InitialState))
	tw.int32(int32(p.EndSymbol))
	tw.int32(int32(p.ErrorSymbol))
	tw.strings(p.Terminals)
	tw.strings(p.NonTerminals)
	tw.strings(p.ActionNames)
	tw.matrix(p.Action, p.TerminalCount, ActionError)
	tw.matrix(p.GoTo, p.NonTerminalCount, 0)
	tw.int32(int32(len(p.Reductions)))
	for _, r := range p.Reductions {
		tw.int32(r.Symbol)
		tw.int32(r.Length)
		tw.int32(r.Action)
	}
	tw.bools(p.ErrorTrapperStates)

	l := c.Lexer
	tw.strings(l.ActionNames)
	encodeDFA(tw, l.Token)
	if l.Whitespace != nil {
		tw.int32(1)
		encodeDFA(tw, l.Whitespace)
	} else {
		tw.int32(0)
	}

	return tw.err
}

func encodeDFA(w *tableWriter, d *DFA) {
	w.int32(d.InitialState)
	w.int32(int32(len(d.States)))
	for _, s := range d.States {
		w.int32(s.First)
		w.int32(s.Count)
		w.int32(s.Accept)
		w.int32(s.Action)
	}
	w.int32(int32(len(d.Transitions)))
	for _, t := range d.Transitions {
		w.int32(t.Lo)
		w.int32(t.Hi)
		w.int32(t.Next)
	}
}

type tableReader struct {
	r   io.Reader
	err error
}

func (r *tableReader) int32() int32 {
	if r.err != nil {
		return 0
	}
	var v int32
	r.err = binary.Read(r.r, binary.LittleEndian, &v)
	return v
}

func (r *tableReader) int32s() []int32 {
	n := r.int32()
	if r.err != nil || n < 0 {
		return nil
	}
	vs := make([]int32, n)
	for i := range vs {
		vs[i] = r.int32()
	}
	return vs
}

func (r *tableReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	b := make([]byte, n)
	_, r.err = io.ReadFull(r.r, b)
	return b
}

func (r *tableReader) string() string {
	n := r.int32()
	if r.err != nil || n < 0 {
		return ""
	}
	return string(r.bytes(int(n)))
}

func (r *tableReader) strings() []string {
	n := r.int32()
	if r.err != nil || n < 0 {
		return nil
	}
	ss := make([]string, n)
	for i := range ss {
		ss[i] = r.string()
	}
	return ss
}

func (r *tableReader) bools() []bool {
	n := r.int32()
	if r.err != nil || n < 0 {
		return nil
	}
	bs := make([]bool, n)
	for i := range bs {
		b := r.bytes(1)
		if len(b) == 1 && b[0] != 0 {
			bs[i] = true
		}
	}
	return bs
}

func (r *tableReader) matrix() []int32 {
	c := &compressor.Compressed{
		RowCount: int(r.int32()),
		ColCount: int(r.int32()),
		Empty:    r.int32(),
	}
	c.RowMap = r.int32s()
	c.Displacement = r.int32s()
	c.Entries = r.int32s()
	c.Bounds = r.int32s()
	if r.err != nil {
		return nil
	}
	return c.Expand().Entries
}

// Decode reads a compiled grammar back from its binary form.
func Decode(rd io.Reader) (*Compiled, error) {
	r := &tableReader{r: rd}

	var m [4]byte
	copy(m[:], r.bytes(4))
	if r.err == nil && m != magic {
		return nil, fmt.Errorf("not a grackle table file")
	}
	if v := r.int32(); r.err == nil && v != formatVersion {
		return nil, fmt.Errorf("unsupported table format version %v", v)
	}

	c := &Compiled{}
	copy(c.Fingerprint[:], r.bytes(32))
	c.Name = r.string()

	p := &ParserStateMachine{}
	p.Name = c.Name
	p.TerminalCount = int(r.int32())
	p.NonTerminalCount = int(r.int32())
	p.StateCount = int(r.int32())
	p.InitialState = int(r.int32())
	p.EndSymbol = int(r.int32())
	p.ErrorSymbol = int(r.int32())
	p.Terminals = r.strings()
	p.NonTerminals = r.strings()
	p.ActionNames = r.strings()
	p.Action = r.matrix()
	p.GoTo = r.matrix()
	redCount := int(r.int32())
	if r.err == nil && redCount >= 0 {
		p.Reductions = make([]Reduction, redCount)
		for i := range p.Reductions {
			p.Reductions[i] = Reduction{
				Symbol: r.int32(),
				Length: r.int32(),
				Action: r.int32(),
			}
		}
	}
	p.ErrorTrapperStates = r.bools()
	c.Parser = p

	l := &LexerStateMachine{}
	l.ActionNames = r.strings()
	l.Token = decodeDFA(r)
	if r.int32() != 0 {
		l.Whitespace = decodeDFA(r)
	}
	c.Lexer = l

	if r.err != nil {
		return nil, fmt.Errorf("failed to decode table file: %w", r.err)
	}
	return c, nil
}

func decodeDFA(r *tableReader) *DFA {
	d := &DFA{
		InitialState: r.int32(),
	}
	stateCount := int(r.int32())
	if r.err != nil || stateCount < 0 {
		return d
	}
	d.States = make([]LexerState, stateCount)
	for i := range d.States {
		d.States[i] = LexerState{
			First:  r.int32(),
			Count:  r.int32(),
			Accept: r.int32(),
			Action: r.int32(),
		}
	}
	tranCount := int(r.int32())
	if r.err != nil || tranCount < 0 {
		return d
	}
	d.Transitions = make([]LexerTransition, tranCount)
	for i := range d.Transitions {
		d.Transitions[i] = LexerTransition{
			Lo:   r.int32(),
			Hi:   r.int32(),
			Next: r.int32(),
		}
	}
	return d
}
