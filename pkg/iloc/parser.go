package iloc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseProgram reads textual ILOC into a Program. The format is line
// oriented: an unindented "name:" line opens a function, indented lines
// are instructions, ";" starts a comment. Branch-target labels inside a
// function are written as indented "l1:" lines.
func ParseProgram(r io.Reader) (*Program, error) {
	prog := &Program{}
	var fn *Function

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		raw := scanner.Text()
		if i := strings.Index(raw, ";"); i >= 0 {
			raw = raw[:i]
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		indented := raw[0] == ' ' || raw[0] == '\t'
		if !indented {
			name, ok := strings.CutSuffix(line, ":")
			if !ok || !isIdent(name) {
				return nil, fmt.Errorf("line %d: expected function header, got %q", lineno, line)
			}
			fn = NewFunction(name)
			prog.Functions = append(prog.Functions, fn)
			continue
		}

		if fn == nil {
			return nil, fmt.Errorf("line %d: instruction before any function header", lineno)
		}
		insn, err := parseInsn(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		fn.Append(insn)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseString parses textual ILOC from a string.
func ParseString(src string) (*Program, error) {
	return ParseProgram(strings.NewReader(src))
}

var formByName = func() map[string]Form {
	m := make(map[string]Form, len(formTable))
	for form, info := range formTable {
		m[info.name] = form
	}
	return m
}()

func parseInsn(line string) (Insn, error) {
	// indented "l1:" lines are branch-target labels
	if name, ok := strings.CutSuffix(line, ":"); ok && isIdent(name) {
		return NewInsn(Label, Symbol(name)), nil
	}

	fields := tokenize(line)
	if len(fields) == 0 {
		return Insn{}, fmt.Errorf("no instruction in %q", line)
	}
	form, ok := formByName[fields[0]]
	if !ok {
		return Insn{}, fmt.Errorf("unknown instruction %q", fields[0])
	}
	info := formTable[form]

	var ops []Operand
	for _, tok := range fields[1:] {
		op, err := parseOperand(tok)
		if err != nil {
			return Insn{}, err
		}
		ops = append(ops, op)
	}

	arity := 0
	for _, class := range info.slots {
		if class != slotNone {
			arity++
		}
	}
	if len(ops) != arity {
		return Insn{}, fmt.Errorf("%s takes %d operand(s), got %d", info.name, arity, len(ops))
	}
	for i, op := range ops {
		switch info.slots[i] {
		case slotReg:
			if !op.IsRegister() {
				return Insn{}, fmt.Errorf("%s: operand %d must be a register, got %q", info.name, i+1, op)
			}
		case slotImm:
			if op.Kind != OpImm {
				return Insn{}, fmt.Errorf("%s: operand %d must be a constant, got %q", info.name, i+1, op)
			}
		case slotSym:
			if op.Kind != OpSym {
				return Insn{}, fmt.Errorf("%s: operand %d must be a label, got %q", info.name, i+1, op)
			}
		}
	}
	return NewInsn(form, ops...), nil
}

// tokenize splits an instruction line into mnemonic and operand tokens,
// discarding the "," and "=>" punctuation.
func tokenize(line string) []string {
	line = strings.ReplaceAll(line, ",", " ")
	line = strings.ReplaceAll(line, "=>", " ")
	return strings.Fields(line)
}

func parseOperand(tok string) (Operand, error) {
	switch {
	case strings.HasPrefix(tok, "%v"):
		id, err := strconv.Atoi(tok[2:])
		if err != nil || id < 0 {
			return Operand{}, fmt.Errorf("bad virtual register %q", tok)
		}
		return VirtualReg(id), nil
	case strings.HasPrefix(tok, "%p"):
		id, err := strconv.Atoi(tok[2:])
		if err != nil || id < 0 {
			return Operand{}, fmt.Errorf("bad physical register %q", tok)
		}
		return PhysicalReg(id), nil
	case tok == "sp":
		return StackPointer(), nil
	case tok == "bp":
		return BasePointer(), nil
	case tok == "ret":
		return ReturnReg(), nil
	}
	if v, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return IntConst(v), nil
	}
	if isIdent(tok) {
		return Symbol(tok), nil
	}
	return Operand{}, fmt.Errorf("bad operand %q", tok)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
