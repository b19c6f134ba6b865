package vm

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a two-pass compiler from assembly text to a binary
// program. Pass 1 binds labels to instruction indexes so forward
// references are legal; pass 2 emits instructions. The label table is
// read-only during emission.
type Assembler struct {
	Label  map[string]uint16 // Map of jump labels to instruction indexes.
	Equate map[string]string // Map of equates.

	predefine map[string]string // Predefines
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf parses a u16 immediate. Base 0, so decimal and 0x forms parse.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	v64, err := strconv.ParseUint(word, 0, 16)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}
	value = uint16(v64)

	return
}

// parenEval does compile-time $(...) evaluations.
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 < 0 || st_int64 > 0xffff {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

var parenRe = regexp.MustCompile(`\$\([^\$]*\)`)

// expand strips the comment, does $() evaluations, and tokenizes a line.
func (asm *Assembler) expand(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	if n := strings.IndexAny(line, "#;"); n >= 0 {
		line = line[:n]
	}

	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	return
}

// readLines slurps the source; both passes walk the same lines.
func readLines(input io.Reader) (lines []string, err error) {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()

	return
}

// Parse compiles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	lines, err := readLines(input)
	if err != nil {
		return
	}

	asm.Label = make(map[string]uint16, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	prog = &Program{}

	err = asm.scan(lines, prog)
	if err != nil {
		prog = nil
		return
	}

	err = asm.emit(lines, prog)
	if err != nil {
		prog = nil
		return
	}

	return
}

// scan is pass 1: bind labels to instruction indexes and collect the
// mandatory WIDTH/HEIGHT directives. Everything else is validated in
// pass 2.
func (asm *Assembler) scan(lines []string, prog *Program) (err error) {
	var lineno int
	var line string

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	var index uint16
	var haveWidth, haveHeight bool

	for n, text := range lines {
		lineno = n + 1
		line = text

		var words []string
		if i := strings.IndexAny(text, "#;"); i >= 0 {
			text = text[:i]
		}
		words = strings.Fields(text)

		for len(words) > 0 && strings.HasSuffix(words[0], ":") {
			label := strings.TrimSuffix(words[0], ":")
			_, ok := asm.Label[label]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[label] = index
			words = words[1:]
		}

		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "WIDTH", "HEIGHT":
			if len(words) < 2 {
				err = ErrDirectiveValue
				return
			}
			var value uint16
			value, err = asm.valueOf(words[1])
			if err != nil {
				return
			}
			// First occurrence wins.
			if words[0] == "WIDTH" && !haveWidth {
				prog.Width = value
				haveWidth = true
			} else if words[0] == "HEIGHT" && !haveHeight {
				prog.Height = value
				haveHeight = true
			}
		default:
			if _, ok := ParseOpcode(words[0]); ok {
				index++
			}
		}
	}

	lineno = 0
	line = ""
	if !haveWidth {
		err = ErrWidthMissing
		return
	}
	if !haveHeight {
		err = ErrHeightMissing
		return
	}

	return
}

// emit is pass 2: encode every instruction line against the label table.
func (asm *Assembler) emit(lines []string, prog *Program) (err error) {
	var lineno int
	var line string

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	for n, text := range lines {
		lineno = n + 1
		line = text

		var words []string
		words, err = asm.expand(text, lineno)
		if err != nil {
			return
		}

		for len(words) > 0 && strings.HasSuffix(words[0], ":") {
			words = words[1:]
		}

		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case ".equ":
			if len(words) != 3 {
				err = ErrEquateSyntax
				return
			}
			_, ok := asm.Equate[words[1]]
			if ok {
				err = ErrEquateDuplicate
				return
			}
			asm.Equate[words[1]] = words[2]
		case "WIDTH", "HEIGHT":
			if len(words) > 2 {
				err = ErrExtraArgs
				return
			}
		default:
			var in Instruction
			in, err = asm.parseWords(words)
			if err != nil {
				return
			}
			prog.Instructions = append(prog.Instructions, in)
		}
	}

	return
}

// operand returns the next operand token with equates applied.
func (asm *Assembler) operand(words []string) (word string, rest []string, ok bool) {
	if len(words) == 0 {
		return
	}
	word = words[0]
	rest = words[1:]
	ok = true

	equate, is_equ := asm.Equate[word]
	if is_equ {
		word = equate
	}

	return
}

// parseWords encodes one instruction line per the opcode's operand shape.
func (asm *Assembler) parseWords(words []string) (in Instruction, err error) {
	op, ok := ParseOpcode(words[0])
	if !ok {
		err = ErrMnemonicInvalid(words[0])
		return
	}
	in.Op = op
	sh := opcodeShapes[op]
	words = words[1:]

	if sh.hasReg {
		var word string
		word, words, ok = asm.operand(words)
		if !ok {
			err = ErrRegisterMissing
			return
		}
		in.Reg, ok = ParseRegister(word)
		if !ok {
			err = ErrRegisterInvalid(word)
			return
		}
	}

	if sh.hasVal {
		var word string
		word, words, ok = asm.operand(words)
		if !ok {
			err = ErrValueMissing
			return
		}
		// A register name selects the register form; anything else
		// must be a u16 immediate.
		reg, is_reg := ParseRegister(word)
		if is_reg {
			in.Val = Reg(reg)
		} else {
			var value uint16
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			in.Val = Imm(value)
		}
	}

	if sh.hasAddr {
		var word string
		word, words, ok = asm.operand(words)
		if !ok {
			err = ErrLabelArgMissing
			return
		}
		label := strings.TrimSuffix(word, ":")
		in.Addr, ok = asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
	}

	if len(words) != 0 {
		err = ErrExtraArgs
		return
	}

	return
}
