package iloc

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs ILOC in its textual syntax
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new ILOC printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints a complete program, one function after another
func (p *Printer) PrintProgram(prog *Program) {
	for i, fn := range prog.Functions {
		p.PrintFunction(fn)
		if i < len(prog.Functions)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// PrintFunction prints a function header followed by its instructions
func (p *Printer) PrintFunction(fn *Function) {
	fmt.Fprintf(p.w, "%s:\n", fn.Name)
	for id := fn.Code.Head(); id.Valid(); id = fn.Code.Next(id) {
		fmt.Fprintf(p.w, "  %s\n", FormatInsn(fn.Code.At(id)))
	}
}

// FormatInsn renders a single instruction in the textual syntax, without
// indentation or trailing newline.
func FormatInsn(in *Insn) string {
	name := in.Form.String()
	switch in.Form {
	case Nop, Return:
		return name
	case Label:
		return in.Ops[0].Sym + ":"
	case Push, Pop, Jump, Call:
		return fmt.Sprintf("%s %s", name, in.Ops[0])
	case Not, Neg, I2I, Load, Store, LoadI:
		return fmt.Sprintf("%s %s => %s", name, in.Ops[0], in.Ops[1])
	case AddI, MultI, LoadAI:
		return fmt.Sprintf("%s %s, %s => %s", name, in.Ops[0], in.Ops[1], in.Ops[2])
	case StoreAI, Cbr:
		return fmt.Sprintf("%s %s => %s, %s", name, in.Ops[0], in.Ops[1], in.Ops[2])
	default:
		// three-address arithmetic and comparisons
		return fmt.Sprintf("%s %s, %s => %s", name, in.Ops[0], in.Ops[1], in.Ops[2])
	}
}

// FormatProgram renders a whole program to a string. Convenience for
// diagnostics and tests.
func FormatProgram(prog *Program) string {
	var sb strings.Builder
	NewPrinter(&sb).PrintProgram(prog)
	return sb.String()
}
