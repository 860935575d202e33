package mic

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the microprogram source.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":             "0",
	"CONTROL_STORE_SIZE": fmt.Sprintf("%#v", CONTROL_STORE_SIZE),
	"MPC_MASK":           fmt.Sprintf("%#v", MPC_MASK),
}

// Assembler is a single pass macro assembler for microprograms.
//
// Every source line that holds statements assembles into one control word
// at the current micro-address, which then advances by one. Statements are
// separated by ';' and comments start with '//'.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to micro-addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	addr int         // Current micro-address.
	used map[int]int // Micro-addresses already assembled, to line numbers.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// dstMap maps C bus destinations. N and Z only name the flags being set.
var dstMap = map[string]CMask{
	"MAR": C_MAR,
	"MDR": C_MDR,
	"PC":  C_PC,
	"SP":  C_SP,
	"LV":  C_LV,
	"CPP": C_CPP,
	"TOS": C_TOS,
	"OPC": C_OPC,
	"H":   C_H,
	"N":   0,
	"Z":   0,
}

// srcMap maps B bus sources.
var srcMap = map[string]BusB{
	"MDR":  B_MDR,
	"PC":   B_PC,
	"MBR":  B_MBR,
	"MBRU": B_MBRU,
	"SP":   B_SP,
	"LV":   B_LV,
	"CPP":  B_CPP,
	"TOS":  B_TOS,
	"OPC":  B_OPC,
}

// exprMap maps normalized expressions, with the B bus source written as
// 'B', to ALU functions.
var exprMap = map[string]AluOp{
	"0":         ALU_ZERO,
	"H AND B":   ALU_H_AND_B,
	"B AND H":   ALU_H_AND_B,
	"1":         ALU_ONE,
	"- 1":       ALU_MINUS_ONE,
	"B":         ALU_B,
	"H":         ALU_H,
	"NOT H":     ALU_NOT_H,
	"H OR B":    ALU_H_OR_B,
	"B OR H":    ALU_H_OR_B,
	"NOT B":     ALU_NOT_B,
	"B + 1":     ALU_B_PLUS_1,
	"B - 1":     ALU_B_MINUS_1,
	"H + 1":     ALU_H_PLUS_1,
	"- H":       ALU_NEG_H,
	"H + B":     ALU_H_PLUS_B,
	"B + H":     ALU_H_PLUS_B,
	"H + B + 1": ALU_H_PLUS_B_1,
	"B + H + 1": ALU_H_PLUS_B_1,
	"B - H":     ALU_B_MINUS_H,
}

// memMap maps memory operation statements.
var memMap = map[string]MemOps{
	"fetch": MEM_FETCH,
	"rd":    MEM_READ,
	"wr":    MEM_WRITE,
}

// jamMap maps the raw jump bit statements.
var jamMap = map[string]JumpBits{
	"jamn": JUMP_N,
	"jamz": JUMP_Z,
}

var (
	reToken = regexp.MustCompile(`0[xX][0-9a-fA-F]+|[0-9]+|[A-Za-z_.][A-Za-z0-9_.]*|<<|>>|\S`)
	reParen = regexp.MustCompile(`\$\([^\$]*\)`)
)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	invert := false
	if len(word) > 0 && word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 > 0xffffffff || v64 < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}
	value = uint32(v64)

	if invert {
		value = ^value
	}

	return
}

// isNumber returns true if the word starts like a number. A lone sign is
// an operator.
func isNumber(word string) bool {
	if len(word) > 1 && (word[0] == '~' || word[0] == '-') {
		word = word[1:]
	}
	return len(word) > 0 && word[0] >= '0' && word[0] <= '9'
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	for key, addr := range asm.Label {
		if _, ok := pred[key]; !ok {
			pred[key] = starlark.MakeInt(addr)
		}
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
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
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// parseLine handles directives, labels and macro calls. What remains of
// the line is returned as statements to assemble.
func (asm *Assembler) parseLine(line string, lineno int) (stmts string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case ".equ":
		// .equ CONST VALUE
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
		return
	case ".org":
		// .org ADDR
		if len(words) != 2 {
			err = ErrOrgSyntax
			return
		}
		var value uint32
		value, err = asm.valueOf(asm.equate(words[1]))
		if err != nil {
			return
		}
		if value >= CONTROL_STORE_SIZE {
			err = ErrAddressRange
			return
		}
		asm.addr = int(value)
		return
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.addr
		words = words[1:]
	}
	if len(words) == 0 {
		return
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		// '@' is unique per call site.
		unique := fmt.Sprintf("%v_%v_", name, lineno)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", unique)
			var text string
			text, err = asm.parseLine(line, lineno)
			if err == nil {
				err = asm.parseStatements(text, lineno)
			}
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		return
	}

	stmts = strings.Join(words, " ")
	return
}

// equate returns the value of word if it is an equate, or word itself.
func (asm *Assembler) equate(word string) string {
	value, ok := asm.Equate[word]
	if ok {
		return value
	}
	return word
}

// tokens splits a statement into tokens, replacing equates.
func (asm *Assembler) tokens(stmt string) (toks []string) {
	toks = reToken.FindAllString(stmt, -1)
	for n, tok := range toks {
		toks[n] = asm.equate(tok)
	}
	return
}

// Parse parses an input stream into a Microprogram.
func (asm *Assembler) Parse(input io.Reader) (prog *Microprogram, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			if _, ok := err.(*ErrSyntax); !ok {
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.addr = 0
	asm.used = make(map[int]int)

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment, _, _ := strings.Cut(text, "//")
		line = strings.TrimSpace(text_comment)
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		var stmts string
		stmts, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseStatements(stmts, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]
		lineno = op.LineNo
		line = strings.Join(op.Words, "; ")

		fields := Decode(op.Micro)
		if len(op.LinkLabel) != 0 {
			addr, ok := asm.Label[op.LinkLabel]
			if !ok {
				err = ErrLabelMissing(op.LinkLabel)
				return
			}
			if addr >= CONTROL_STORE_SIZE {
				err = ErrAddressRange
				return
			}
			fields.Next = uint16(addr)
			op.Micro = fields.Micro()
		}

		if len(op.PairLabel) != 0 {
			var taken uint32
			taken, err = asm.target(op.PairLabel)
			if err != nil {
				return
			}
			if taken != uint32(fields.Next)|0x100 {
				err = ErrJumpPair
				return
			}
		}
	}

	prog = &Microprogram{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// target resolves a numeric address or a defined label.
func (asm *Assembler) target(word string) (addr uint32, err error) {
	if isNumber(word) {
		addr, err = asm.valueOf(word)
		return
	}
	value, ok := asm.Label[word]
	if !ok {
		err = ErrLabelMissing(word)
		return
	}
	addr = uint32(value)
	return
}

// statement is the state of a line being assembled.
type statement struct {
	fields Fields
	hasAlu bool
	hasGo  bool
	link   string
	pair   string
}

// setNext sets the next address field from a number, or records a label.
func (asm *Assembler) setNext(st *statement, word string) (err error) {
	if st.hasGo {
		err = ErrStatementDuplicate
		return
	}
	st.hasGo = true

	if isNumber(word) {
		var value uint32
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}
		if value >= CONTROL_STORE_SIZE {
			err = ErrAddressRange
			return
		}
		st.fields.Next = uint16(value)
		return
	}

	st.link = word
	return
}

// parseStatements assembles the statements of one line into a control word.
func (asm *Assembler) parseStatements(text string, lineno int) (err error) {
	if len(strings.TrimSpace(text)) == 0 {
		return
	}

	var stmts []string
	for _, stmt := range strings.Split(text, ";") {
		stmt = strings.TrimSpace(stmt)
		if len(stmt) > 0 {
			stmts = append(stmts, stmt)
		}
	}
	if len(stmts) == 0 {
		return
	}

	st := &statement{}

	for n := 0; n < len(stmts); n++ {
		toks := asm.tokens(stmts[n])

		switch {
		case len(toks) == 1 && memMap[toks[0]] != 0:
			op := memMap[toks[0]]
			if st.fields.Mem&op != 0 {
				err = ErrStatementDuplicate
				return
			}
			st.fields.Mem |= op
		case len(toks) == 1 && jamMap[toks[0]] != 0:
			bit := jamMap[toks[0]]
			if st.fields.Jump&bit != 0 {
				err = ErrStatementDuplicate
				return
			}
			st.fields.Jump |= bit
		case toks[0] == "goto":
			err = asm.parseGoto(st, toks[1:])
			if err != nil {
				return
			}
		case toks[0] == "if":
			// if ( N ) goto T ; else goto F
			if len(toks) != 6 || toks[1] != "(" || toks[3] != ")" || toks[4] != "goto" {
				err = ErrStatementInvalid
				return
			}
			switch toks[2] {
			case "N":
				st.fields.Jump |= JUMP_N
			case "Z":
				st.fields.Jump |= JUMP_Z
			default:
				err = ErrStatementInvalid
				return
			}
			if n+1 >= len(stmts) {
				err = ErrStatementInvalid
				return
			}
			n++
			els := asm.tokens(stmts[n])
			if len(els) != 3 || els[0] != "else" || els[1] != "goto" {
				err = ErrStatementInvalid
				return
			}
			err = asm.setNext(st, els[2])
			if err != nil {
				return
			}
			st.pair = toks[5]
		default:
			err = asm.parseAssign(st, toks)
			if err != nil {
				return
			}
		}
	}

	if !st.hasGo {
		st.fields.Next = uint16((asm.addr + 1) & MPC_MASK)
	}

	if asm.addr < 0 || asm.addr >= CONTROL_STORE_SIZE {
		err = ErrAddressRange
		return
	}
	if _, ok := asm.used[asm.addr]; ok {
		err = ErrAddressDuplicate
		return
	}
	asm.used[asm.addr] = lineno

	opcode := Opcode{
		LineNo:    lineno,
		Addr:      asm.addr,
		Words:     stmts,
		Micro:     st.fields.Micro(),
		LinkLabel: st.link,
		PairLabel: st.pair,
	}
	asm.Opcode = append(asm.Opcode, opcode)

	if asm.Verbose {
		log.Printf("%03x: %v", opcode.Addr, opcode.Micro)
	}

	asm.addr++

	return
}

// parseGoto handles 'goto T', 'goto (MBR)' and 'goto (MBR OR T)'.
func (asm *Assembler) parseGoto(st *statement, toks []string) (err error) {
	switch {
	case len(toks) == 1:
		err = asm.setNext(st, toks[0])
	case len(toks) == 3 && toks[0] == "(" && toks[1] == "MBR" && toks[2] == ")":
		st.fields.Jump |= JUMP_MBR
		err = asm.setNext(st, "0")
	case len(toks) == 5 && toks[0] == "(" && toks[1] == "MBR" && toks[2] == "OR" && toks[4] == ")":
		st.fields.Jump |= JUMP_MBR
		err = asm.setNext(st, toks[3])
	default:
		err = ErrStatementInvalid
	}
	return
}

// parseAssign handles 'DST = ... = EXPR [<< 8 | >> 1]' and bare expressions.
func (asm *Assembler) parseAssign(st *statement, toks []string) (err error) {
	if st.hasAlu {
		err = ErrStatementDuplicate
		return
	}
	st.hasAlu = true

	// Destinations
	for len(toks) >= 2 && toks[1] == "=" {
		mask, ok := dstMap[toks[0]]
		if !ok {
			err = ErrTargetInvalid
			return
		}
		st.fields.C |= mask
		toks = toks[2:]
	}
	if len(toks) == 0 {
		err = ErrExpressionInvalid
		return
	}
	if slices.Contains(toks, "=") {
		err = ErrTargetInvalid
		return
	}

	// Shifter
	if len(toks) >= 3 {
		tail := toks[len(toks)-2:]
		var amount uint32
		if isNumber(tail[1]) {
			amount, err = asm.valueOf(tail[1])
			if err != nil {
				return
			}
		}
		switch {
		case tail[0] == "<<" && amount == 8:
			st.fields.Shift = SHIFT_SLL8
			toks = toks[:len(toks)-2]
		case tail[0] == ">>" && amount == 1:
			st.fields.Shift = SHIFT_SRL1
			toks = toks[:len(toks)-2]
		case tail[0] == "<<" || tail[0] == ">>":
			err = ErrExpressionInvalid
			return
		}
	}

	// Normalize the B bus source and numbers.
	norm := make([]string, len(toks))
	hasB := false
	for n, tok := range toks {
		if src, ok := srcMap[tok]; ok {
			if hasB {
				err = ErrBusConflict
				return
			}
			hasB = true
			st.fields.B = src
			tok = "B"
		} else if isNumber(tok) {
			var value uint32
			value, err = asm.valueOf(tok)
			if err != nil {
				return
			}
			tok = strconv.FormatUint(uint64(value), 10)
		}
		norm[n] = tok
	}

	op, ok := exprMap[strings.Join(norm, " ")]
	if !ok {
		err = ErrExpressionInvalid
		return
	}
	st.fields.Alu = op

	return
}
