// Package wordparser turns a single shell word's raw text into an ordered
// sequence of word pieces (spec.md §4.3), the input internal/expand walks
// to actually produce strings.
//
// Grounded on the teacher's runtime/lexer nested-expression capture (the
// same verbatim-copy-with-depth-tracking approach used for "$(" / "${"
// bodies at the token layer is reused here at the word-piece layer) and on
// original_source/parser/src/word.rs for the parameter-expansion operator
// table.
package wordparser

import (
	"strconv"
	"strings"

	"github.com/coreshell/gosh/internal/shellerr"
)

// PieceKind enumerates the word-piece variants from spec.md §3 "Word pieces".
type PieceKind int

const (
	Text PieceKind = iota
	SingleQuotedText
	AnsiCQuotedText
	DoubleQuotedSequence
	TildePrefix
	ParameterExpansion
	CommandSubstitution
	EscapeSequence
	ArithmeticExpression
)

// Piece is one element of a parsed word.
type Piece struct {
	Kind     PieceKind
	Text     string  // literal text, tilde user, command-sub/arith body, escape text
	Param    *Param  // set when Kind == ParameterExpansion
	Children []Piece // set when Kind == DoubleQuotedSequence
}

// Options mirrors the subset of parser.Options the word parser consults.
type Options struct {
	ExtendedGlobbing bool
	TildeExpansion   bool
	PosixMode        bool
}

// ParamOp is the operator tree attached to a ParameterExpansion piece
// (spec.md §3's long parameter-expression operator enumeration).
type ParamOp int

const (
	OpNone ParamOp = iota
	OpLength                 // ${#name}
	OpDefault                // ${name:-word} / ${name-word}
	OpAssignDefault          // ${name:=word} / ${name=word}
	OpAlt                    // ${name:+word} / ${name+word}
	OpError                  // ${name:?word} / ${name?word}
	OpRemoveShortestPrefix   // ${name#word}
	OpRemoveLongestPrefix    // ${name##word}
	OpRemoveShortestSuffix   // ${name%word}
	OpRemoveLongestSuffix    // ${name%%word}
	OpSubstring              // ${name:offset:length}
	OpUppercaseFirst         // ${name^} / ${name^pattern}
	OpUppercaseAll           // ${name^^} / ${name^^pattern}
	OpLowercaseFirst         // ${name,} / ${name,pattern}
	OpLowercaseAll           // ${name,,} / ${name,,pattern}
	OpReplaceFirst           // ${name/pat/rep}
	OpReplaceAll             // ${name//pat/rep}
	OpReplacePrefix          // ${name/#pat/rep}
	OpReplaceSuffix          // ${name/%pat/rep}
	OpTransform              // ${name@U u L Q E P A K a k}
	OpIndirection            // ${!name}
	OpNamePrefixList         // ${!prefix*} / ${!prefix@}
	OpArrayKeys              // ${!arr[@]} / ${!arr[*]}
)

// Param is a parsed parameter expression: the parameter plus its operator.
type Param struct {
	// Name is the parameter name, positional digit string, or special
	// character (@ * # ? - $ ! 0).
	Name string
	// Index is the literal subscript text for name[index]; "@" or "*" for
	// named-with-all-indices.
	Index string
	// Braced records whether ${...} syntax was used (vs bare $name/$1/$@).
	Braced bool

	Op ParamOp
	// TestColon distinguishes the ":"-flavored test ops (null-or-unset)
	// from the bare form (unset-only) for Default/AssignDefault/Alt/Error.
	TestColon bool
	// Word is the operand word for ops that take one (default value,
	// pattern, replacement-left side), lazily word-parsed by the caller.
	Word string
	// Word2 is the second operand for substring length and replace-with text.
	Word2      string
	ReplaceAll bool // OpReplaceFirst vs OpReplaceAll handled via Op directly; kept for clarity in substring len presence
	// HasWord2 distinguishes "${x:off}" (no length) from "${x:off:len}".
	HasWord2 bool
}

// Parse turns a word's raw text into pieces.
func Parse(text string, opt Options) ([]Piece, error) {
	p := &parser{src: []rune(text), opt: opt}
	return p.parseSequence(false)
}

type parser struct {
	src []rune
	pos int
	opt Options
}

func (p *parser) eof() bool   { return p.pos >= len(p.src) }
func (p *parser) peek() rune  { return p.src[p.pos] }
func (p *parser) advance() rune {
	r := p.src[p.pos]
	p.pos++
	return r
}

// parseSequence parses pieces until EOF (top level) or, when inDouble is
// true, until an unescaped closing '"'.
func (p *parser) parseSequence(inDouble bool) ([]Piece, error) {
	var pieces []Piece
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			pieces = append(pieces, Piece{Kind: Text, Text: text.String()})
			text.Reset()
		}
	}

	first := true
	for !p.eof() {
		c := p.peek()

		if inDouble && c == '"' {
			p.advance()
			flush()
			return pieces, nil
		}

		switch {
		case c == '\'' && !inDouble:
			p.advance()
			flush()
			body, err := p.captureUntil('\'', false)
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, Piece{Kind: SingleQuotedText, Text: body})

		case c == '$' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'':
			p.advance()
			p.advance()
			flush()
			body, err := p.captureUntil('\'', true)
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, Piece{Kind: AnsiCQuotedText, Text: unescapeAnsiC(body)})

		case c == '"' && !inDouble:
			p.advance()
			flush()
			inner, err := p.parseSequence(true)
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, Piece{Kind: DoubleQuotedSequence, Children: inner})

		case c == '\\' && !inDouble:
			p.advance()
			if p.eof() {
				text.WriteByte('\\')
				break
			}
			esc := p.advance()
			if esc != '\n' { // line continuation: produces nothing
				text.WriteRune(esc)
			}

		case c == '\\' && inDouble:
			if p.pos+1 < len(p.src) && isDoubleQuoteEscapable(p.src[p.pos+1]) {
				p.advance()
				esc := p.advance()
				flush()
				pieces = append(pieces, Piece{Kind: EscapeSequence, Text: string(esc)})
			} else {
				text.WriteRune(p.advance())
			}

		case c == '~' && first && p.opt.TildeExpansion && !inDouble:
			p.advance()
			flush()
			user := p.captureTildeUser()
			pieces = append(pieces, Piece{Kind: TildePrefix, Text: user})

		case c == '$' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '(':
			p.advance()
			p.advance()
			flush()
			body, err := p.captureBalanced('(', ')')
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, Piece{Kind: CommandSubstitution, Text: body})

		case c == '`':
			p.advance()
			flush()
			body, err := p.captureUntil('`', true)
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, Piece{Kind: CommandSubstitution, Text: body})

		case c == '$' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '{':
			p.advance()
			p.advance()
			flush()
			param, err := p.parseBracedParam()
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, Piece{Kind: ParameterExpansion, Param: param})

		case c == '$' && p.pos+1 < len(p.src) && isBareParamStart(p.src[p.pos+1]):
			p.advance()
			flush()
			param := p.parseBareParam()
			pieces = append(pieces, Piece{Kind: ParameterExpansion, Param: param})

		default:
			text.WriteRune(p.advance())
			first = false
			continue
		}
		first = false
	}
	if inDouble {
		return nil, shellerr.Newf(shellerr.KindSyntax, "unterminated double-quoted sequence")
	}
	flush()
	return pieces, nil
}

func isDoubleQuoteEscapable(c rune) bool {
	switch c {
	case '$', '`', '"', '\\', '\n':
		return true
	}
	return false
}

func (p *parser) captureUntil(end rune, processBackslashEnd bool) (string, error) {
	var b strings.Builder
	for !p.eof() {
		c := p.advance()
		if c == end {
			return b.String(), nil
		}
		if processBackslashEnd && c == '\\' && !p.eof() && p.peek() == end {
			b.WriteRune(p.advance())
			continue
		}
		b.WriteRune(c)
	}
	return "", shellerr.Newf(shellerr.KindSyntax, "unterminated quote, expected %q", end)
}

// captureBalanced copies verbatim text up to the matching close, tracking
// nested open/close pairs, mirroring the lexer's command-substitution
// capture so a $() body can itself contain parens/braces.
func (p *parser) captureBalanced(open, closeCh rune) (string, error) {
	depth := 1
	var b strings.Builder
	for !p.eof() {
		c := p.advance()
		switch c {
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return b.String(), nil
			}
		case '\'':
			b.WriteRune(c)
			inner, err := p.captureUntil('\'', false)
			if err != nil {
				return "", err
			}
			b.WriteString(inner)
			b.WriteByte('\'')
			continue
		}
		b.WriteRune(c)
	}
	return "", shellerr.Newf(shellerr.KindSyntax, "unterminated substitution, expected %q", closeCh)
}

func (p *parser) captureTildeUser() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c == '/' || c == ':' || c == ' ' || c == '\t' || c == '"' || c == '\'' {
			break
		}
		p.advance()
	}
	return string(p.src[start:p.pos])
}

func isBareParamStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || strings.ContainsRune("@*#?-$!", c)
}

// parseBareParam parses an unbraced $name / $1 / $@ / $! / ... reference.
func (p *parser) parseBareParam() *Param {
	c := p.peek()
	if c >= '0' && c <= '9' {
		start := p.pos
		for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
			p.advance()
		}
		return &Param{Name: string(p.src[start:p.pos])}
	}
	if strings.ContainsRune("@*#?-$!", c) {
		p.advance()
		return &Param{Name: string(c)}
	}
	start := p.pos
	for !p.eof() && isNameRune(p.peek()) {
		p.advance()
	}
	return &Param{Name: string(p.src[start:p.pos])}
}

func isNameRune(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// parseBracedParam parses the body of "${...}" up to its matching '}',
// dispatching on the operator table in spec.md §3.
func (p *parser) parseBracedParam() (*Param, error) {
	body, err := p.captureBalanced('{', '}')
	if err != nil {
		return nil, err
	}
	return parseParamBody(body)
}

// parseParamBody interprets the already-extracted "${...}" interior text.
// Operating on the flat string (rather than re-scanning the rune stream)
// keeps this pure and independently testable.
func parseParamBody(body string) (*Param, error) {
	if body == "" {
		return nil, shellerr.Newf(shellerr.KindSyntax, "empty parameter expansion")
	}
	param := &Param{Braced: true}

	if body[0] == '#' && len(body) > 1 && body != "#" {
		name, _ := splitNameAndIndex(body[1:], param)
		param.Name = name
		param.Op = OpLength
		return param, nil
	}
	if body[0] == '!' && len(body) > 1 {
		rest := body[1:]
		if suffix, ok := trimArraySubscript(rest, "@"); ok {
			param.Name, param.Op = suffix, OpArrayKeys
			param.Index = "@"
			return param, nil
		}
		if suffix, ok := trimArraySubscript(rest, "*"); ok {
			param.Name, param.Op = suffix, OpArrayKeys
			param.Index = "*"
			return param, nil
		}
		if strings.HasSuffix(rest, "*") {
			param.Name, param.Op = strings.TrimSuffix(rest, "*"), OpNamePrefixList
			return param, nil
		}
		if strings.HasSuffix(rest, "@") {
			param.Name, param.Op = strings.TrimSuffix(rest, "@"), OpNamePrefixList
			return param, nil
		}
		param.Name, param.Op = rest, OpIndirection
		return param, nil
	}

	name, rest := splitNameAndIndex(body, param)

	if rest == "" {
		param.Name = name
		return param, nil
	}

	switch {
	case strings.HasPrefix(rest, ":-"):
		param.Name, param.Op, param.TestColon, param.Word = name, OpDefault, true, rest[2:]
	case strings.HasPrefix(rest, "-"):
		param.Name, param.Op, param.Word = name, OpDefault, rest[1:]
	case strings.HasPrefix(rest, ":="):
		param.Name, param.Op, param.TestColon, param.Word = name, OpAssignDefault, true, rest[2:]
	case strings.HasPrefix(rest, "="):
		param.Name, param.Op, param.Word = name, OpAssignDefault, rest[1:]
	case strings.HasPrefix(rest, ":+"):
		param.Name, param.Op, param.TestColon, param.Word = name, OpAlt, true, rest[2:]
	case strings.HasPrefix(rest, "+"):
		param.Name, param.Op, param.Word = name, OpAlt, rest[1:]
	case strings.HasPrefix(rest, ":?"):
		param.Name, param.Op, param.TestColon, param.Word = name, OpError, true, rest[2:]
	case strings.HasPrefix(rest, "?"):
		param.Name, param.Op, param.Word = name, OpError, rest[1:]
	case strings.HasPrefix(rest, ":"):
		param.Name, param.Op = name, OpSubstring
		offLen := rest[1:]
		if idx := strings.IndexByte(offLen, ':'); idx >= 0 {
			param.Word, param.Word2, param.HasWord2 = offLen[:idx], offLen[idx+1:], true
		} else {
			param.Word = offLen
		}
	case strings.HasPrefix(rest, "##"):
		param.Name, param.Op, param.Word = name, OpRemoveLongestPrefix, rest[2:]
	case strings.HasPrefix(rest, "#"):
		param.Name, param.Op, param.Word = name, OpRemoveShortestPrefix, rest[1:]
	case strings.HasPrefix(rest, "%%"):
		param.Name, param.Op, param.Word = name, OpRemoveLongestSuffix, rest[2:]
	case strings.HasPrefix(rest, "%"):
		param.Name, param.Op, param.Word = name, OpRemoveShortestSuffix, rest[1:]
	case strings.HasPrefix(rest, "^^"):
		param.Name, param.Op, param.Word = name, OpUppercaseAll, rest[2:]
	case strings.HasPrefix(rest, "^"):
		param.Name, param.Op, param.Word = name, OpUppercaseFirst, rest[1:]
	case strings.HasPrefix(rest, ",,"):
		param.Name, param.Op, param.Word = name, OpLowercaseAll, rest[2:]
	case strings.HasPrefix(rest, ","):
		param.Name, param.Op, param.Word = name, OpLowercaseFirst, rest[1:]
	case strings.HasPrefix(rest, "//"):
		param.Name, param.Op = name, OpReplaceAll
		parseReplaceOperands(param, rest[2:])
	case strings.HasPrefix(rest, "/#"):
		param.Name, param.Op = name, OpReplacePrefix
		parseReplaceOperands(param, rest[2:])
	case strings.HasPrefix(rest, "/%"):
		param.Name, param.Op = name, OpReplaceSuffix
		parseReplaceOperands(param, rest[2:])
	case strings.HasPrefix(rest, "/"):
		param.Name, param.Op = name, OpReplaceFirst
		parseReplaceOperands(param, rest[1:])
	case strings.HasPrefix(rest, "@"):
		param.Name, param.Op, param.Word = name, OpTransform, rest[1:]
	default:
		return nil, shellerr.Newf(shellerr.KindSyntax, "unrecognized parameter expansion operator %q", rest)
	}
	return param, nil
}

func parseReplaceOperands(param *Param, s string) {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		param.Word, param.Word2, param.HasWord2 = s[:idx], s[idx+1:], true
		return
	}
	param.Word = s
}

// splitNameAndIndex separates the parameter name from an optional
// "[index]" subscript and returns the remaining operator text.
func splitNameAndIndex(body string, param *Param) (name, rest string) {
	i := 0
	if i < len(body) && strings.ContainsRune("@*#?-$!0123456789", rune(body[i])) {
		i++
		name = body[:i]
	} else {
		for i < len(body) && isNameRune(rune(body[i])) {
			i++
		}
		name = body[:i]
	}
	if i < len(body) && body[i] == '[' {
		end := strings.IndexByte(body[i:], ']')
		if end >= 0 {
			param.Index = body[i+1 : i+end]
			i += end + 1
		}
	}
	return name, body[i:]
}

func trimArraySubscript(s, idx string) (name string, ok bool) {
	suffix := "[" + idx + "]"
	if strings.HasSuffix(s, suffix) {
		return strings.TrimSuffix(s, suffix), true
	}
	return "", false
}

// unescapeAnsiC expands a $'...' ANSI-C-quoted body's backslash escapes
// (\n \t \\ \' \xHH, ...), producing the literal runtime text.
func unescapeAnsiC(s string) string {
	var b strings.Builder
	r := []rune(s)
	for i := 0; i < len(r); i++ {
		if r[i] != '\\' || i+1 >= len(r) {
			b.WriteRune(r[i])
			continue
		}
		i++
		switch r[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'e', 'E':
			b.WriteByte('\x1b')
		case '0':
			b.WriteByte(0)
		case 'x':
			j := i + 1
			for j < len(r) && j < i+3 && strings.ContainsRune("0123456789abcdefABCDEF", r[j]) {
				j++
			}
			if j == i+1 {
				b.WriteString("\\x")
				break
			}
			n, _ := strconv.ParseUint(string(r[i+1:j]), 16, 8)
			b.WriteByte(byte(n))
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteRune(r[i])
		}
	}
	return b.String()
}
