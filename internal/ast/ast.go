// Package ast defines the abstract syntax tree produced by internal/parser,
// per spec.md §3 "AST (Program)".
//
// Grounded on the teacher's core/ast/ast.go (a Node interface implemented by
// every struct, each carrying its own Position) with the opal decorator
// grammar replaced by the POSIX/bash command grammar spec.md §4.2 defines,
// and the LSP-oriented concrete-syntax bookkeeping (TokenRange,
// SemanticTokens) dropped since this spec has no editor-tooling consumer.
package ast

import (
	"fmt"
	"strings"

	"github.com/coreshell/gosh/internal/token"
)

// Node is implemented by every AST type.
type Node interface {
	Position() token.Position
	String() string
}

// Word is a single shell word: its raw, not-yet-word-parsed source text.
// internal/wordparser turns this into word pieces at expansion time
// (spec.md §4.3); the grammar layer only needs to know where a word begins
// and ends.
type Word struct {
	Text string
	Pos  token.Position
}

func (w *Word) Position() token.Position { return w.Pos }
func (w *Word) String() string           { return w.Text }

// Program is the root of the AST: a sequence of complete commands
// (spec.md §3 "AST (Program)").
type Program struct {
	Commands []*AndOrList
	Pos      token.Position
}

func (p *Program) Position() token.Position { return p.Pos }
func (p *Program) String() string {
	parts := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		parts[i] = c.String()
	}
	return strings.Join(parts, "\n")
}

// AndOrKind distinguishes && from || in an AndOrList.
type AndOrKind int

const (
	AndThen AndOrKind = iota
	OrElse
)

// AndOrStep is one `(&&|||) Pipeline` continuation of an AndOrList.
type AndOrStep struct {
	Kind     AndOrKind
	Pipeline *Pipeline
}

// AndOrList is a first Pipeline followed by zero or more && / || steps
// (spec.md §3).
type AndOrList struct {
	First *Pipeline
	Rest  []AndOrStep
	// Background marks a trailing '&': this complete command is launched
	// without the shell waiting for it (spec.md §4.7 "Background commands").
	Background bool
	Pos        token.Position
}

func (a *AndOrList) Position() token.Position { return a.Pos }
func (a *AndOrList) String() string {
	var b strings.Builder
	b.WriteString(a.First.String())
	for _, step := range a.Rest {
		if step.Kind == AndThen {
			b.WriteString(" && ")
		} else {
			b.WriteString(" || ")
		}
		b.WriteString(step.Pipeline.String())
	}
	if a.Background {
		b.WriteString(" &")
	}
	return b.String()
}

// Pipeline is a bang flag plus a nonempty sequence of Commands connected by
// '|' (spec.md §3).
type Pipeline struct {
	Bang     bool
	Commands []Command
	Pos      token.Position
}

func (p *Pipeline) Position() token.Position { return p.Pos }
func (p *Pipeline) String() string {
	parts := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		parts[i] = c.String()
	}
	s := strings.Join(parts, " | ")
	if p.Bang {
		return "! " + s
	}
	return s
}

// Command is implemented by SimpleCommand, CompoundCommand,
// FunctionDefinition, and ExtendedTestCommand — the four Command variants
// spec.md §3 names.
type Command interface {
	Node
	commandNode()
}

// Item is a prefix or suffix element of a SimpleCommand: a Word, an
// Assignment, or a Redirection (spec.md §3).
type Item interface {
	Node
	itemNode()
}

func (*Word) itemNode()        {}
func (*Assignment) itemNode()  {}
func (*Redirection) itemNode() {}

// SimpleCommand is prefix items, an optional command word, and suffix items
// (spec.md §3 grammar: `simple-command := (prefix-item)* (command-word
// (suffix-item)*)?`).
type SimpleCommand struct {
	Prefix []Item
	Name   *Word // nil when only assignments are present
	Suffix []Item
	Pos    token.Position
}

func (s *SimpleCommand) commandNode()             {}
func (s *SimpleCommand) Position() token.Position { return s.Pos }
func (s *SimpleCommand) String() string {
	var parts []string
	for _, it := range s.Prefix {
		parts = append(parts, it.String())
	}
	if s.Name != nil {
		parts = append(parts, s.Name.String())
	}
	for _, it := range s.Suffix {
		parts = append(parts, it.String())
	}
	return strings.Join(parts, " ")
}

// Assignment is `name=value`, `name[index]=value`, or either form with `+=`
// (spec.md §3).
type Assignment struct {
	Name        string
	Index       *Word // non-nil for name[index]=value
	Value       *Word // scalar value; nil when ArrayValues is set
	ArrayValues []*Word
	Append      bool
	Pos         token.Position
}

func (a *Assignment) Position() token.Position { return a.Pos }
func (a *Assignment) String() string {
	op := "="
	if a.Append {
		op = "+="
	}
	name := a.Name
	if a.Index != nil {
		name = fmt.Sprintf("%s[%s]", a.Name, a.Index.String())
	}
	if a.ArrayValues != nil {
		parts := make([]string, len(a.ArrayValues))
		for i, w := range a.ArrayValues {
			parts[i] = w.String()
		}
		return fmt.Sprintf("%s%s(%s)", name, op, strings.Join(parts, " "))
	}
	val := ""
	if a.Value != nil {
		val = a.Value.String()
	}
	return fmt.Sprintf("%s%s%s", name, op, val)
}

// RedirKind enumerates the Redirection.File operator variants from
// spec.md §3, plus the HereDocument/HereString/OutputAndError forms.
type RedirKind int

const (
	RedirLess       RedirKind = iota // <
	RedirGreat                       // >
	RedirAppend                      // >>
	RedirReadWrite                   // <>
	RedirClobber                     // >|
	RedirDupIn                       // <&
	RedirDupOut                      // >&
	RedirHereDoc                     // <<, <<-
	RedirHereString                  // <<<
	RedirOutputErr                   // &>  (OutputAndError)
)

// HereDocSpec carries a here-document's strip-tabs flag, terminator tag, and
// (filled in by the parser from the lexer's FIFO queue) body text.
type HereDocSpec struct {
	StripTabs bool
	Tag       string
	Quoted    bool // suppress expansion of Body when true
	Body      string
}

// Redirection is one redirection clause (spec.md §3).
type Redirection struct {
	FD      *int // explicit leading fd, nil = default for Kind
	Kind    RedirKind
	Target  *Word // filename, fd-number word, or process-substitution word
	HereDoc *HereDocSpec
	Pos     token.Position
}

func (r *Redirection) Position() token.Position { return r.Pos }
func (r *Redirection) String() string {
	fd := ""
	if r.FD != nil {
		fd = fmt.Sprintf("%d", *r.FD)
	}
	op := map[RedirKind]string{
		RedirLess: "<", RedirGreat: ">", RedirAppend: ">>", RedirReadWrite: "<>",
		RedirClobber: ">|", RedirDupIn: "<&", RedirDupOut: ">&",
		RedirHereDoc: "<<", RedirHereString: "<<<", RedirOutputErr: "&>",
	}[r.Kind]
	if r.Kind == RedirHereDoc {
		return fmt.Sprintf("%s%s%s", fd, op, r.HereDoc.Tag)
	}
	return fmt.Sprintf("%s%s%s", fd, op, r.Target.String())
}

// CompoundBody is implemented by every compound-command variant
// (spec.md §3 "CompoundCommand variants").
type CompoundBody interface {
	Node
	compoundBody()
}

// CompoundCommand wraps a CompoundBody with its optional trailing
// redirection list (spec.md §3 "Compound(CompoundCommand, optional
// redirection list)").
type CompoundCommand struct {
	Body   CompoundBody
	Redirs []*Redirection
	Pos    token.Position
}

func (c *CompoundCommand) commandNode()             {}
func (c *CompoundCommand) Position() token.Position { return c.Pos }
func (c *CompoundCommand) String() string {
	s := c.Body.String()
	for _, r := range c.Redirs {
		s += " " + r.String()
	}
	return s
}

// CompoundList is a `;`/newline/`&`-separated sequence of AndOrLists used as
// the body of braces, do-groups, etc. (GLOSSARY "Compound list").
type CompoundList struct {
	Items []*AndOrList
	Pos   token.Position
}

func (c *CompoundList) Position() token.Position { return c.Pos }
func (c *CompoundList) String() string {
	parts := make([]string, len(c.Items))
	for i, it := range c.Items {
		parts[i] = it.String()
	}
	return strings.Join(parts, "; ")
}

// Subshell is `( compound-list )`: the body runs in a cloned shell state
// (spec.md §4.7).
type Subshell struct {
	Body *CompoundList
	Pos  token.Position
}

func (s *Subshell) compoundBody()            {}
func (s *Subshell) Position() token.Position { return s.Pos }
func (s *Subshell) String() string           { return "(" + s.Body.String() + ")" }

// BraceGroup is `{ compound-list; }`: runs in the current shell, no
// environment isolation (spec.md §4.7).
type BraceGroup struct {
	Body *CompoundList
	Pos  token.Position
}

func (b *BraceGroup) compoundBody()            {}
func (b *BraceGroup) Position() token.Position { return b.Pos }
func (b *BraceGroup) String() string           { return "{ " + b.Body.String() + "; }" }

// ForClause is `for NAME [in WORD...]; do LIST; done`. HasIn distinguishes
// `for x in ...` from the POSIX-shorthand `for x` (implicitly `in "$@"`).
type ForClause struct {
	Var   string
	HasIn bool
	Words []*Word
	Body  *CompoundList
	Pos   token.Position
}

func (f *ForClause) compoundBody()            {}
func (f *ForClause) Position() token.Position { return f.Pos }
func (f *ForClause) String() string {
	return fmt.Sprintf("for %s; do %s; done", f.Var, f.Body.String())
}

// ArithForClause is the non-POSIX `for ((init; cond; post)); do LIST; done`.
// Each clause is retained as raw arithmetic text, evaluated at execution
// time (spec.md §3 "ArithmeticForClause").
type ArithForClause struct {
	Init, Cond, Post string
	Body             *CompoundList
	Pos              token.Position
}

func (f *ArithForClause) compoundBody()            {}
func (f *ArithForClause) Position() token.Position { return f.Pos }
func (f *ArithForClause) String() string {
	return fmt.Sprintf("for ((%s; %s; %s)); do %s; done", f.Init, f.Cond, f.Post, f.Body.String())
}

// WhileClause is `while COND; do LIST; done`.
type WhileClause struct {
	Cond *CompoundList
	Body *CompoundList
	Pos  token.Position
}

func (w *WhileClause) compoundBody()            {}
func (w *WhileClause) Position() token.Position { return w.Pos }
func (w *WhileClause) String() string {
	return fmt.Sprintf("while %s; do %s; done", w.Cond.String(), w.Body.String())
}

// UntilClause is `until COND; do LIST; done`.
type UntilClause struct {
	Cond *CompoundList
	Body *CompoundList
	Pos  token.Position
}

func (u *UntilClause) compoundBody()            {}
func (u *UntilClause) Position() token.Position { return u.Pos }
func (u *UntilClause) String() string {
	return fmt.Sprintf("until %s; do %s; done", u.Cond.String(), u.Body.String())
}

// ElifClause is one `elif COND; then LIST` arm of an IfClause.
type ElifClause struct {
	Cond *CompoundList
	Then *CompoundList
}

// IfClause is `if COND; then LIST (elif COND; then LIST)* [else LIST] fi`
// (spec.md §3).
type IfClause struct {
	Cond  *CompoundList
	Then  *CompoundList
	Elifs []ElifClause
	Else  *CompoundList // nil if no else/elif chain matched
	Pos   token.Position
}

func (i *IfClause) compoundBody()            {}
func (i *IfClause) Position() token.Position { return i.Pos }
func (i *IfClause) String() string {
	s := fmt.Sprintf("if %s; then %s", i.Cond.String(), i.Then.String())
	for _, e := range i.Elifs {
		s += fmt.Sprintf("; elif %s; then %s", e.Cond.String(), e.Then.String())
	}
	if i.Else != nil {
		s += "; else " + i.Else.String()
	}
	return s + "; fi"
}

// CaseAction is the terminator following a case item's body (spec.md §3).
type CaseAction int

const (
	CaseExit           CaseAction = iota // ;;
	CaseFallThrough                      // ;&
	CaseContinueMatch                    // ;;&
)

// CaseItem is one `pattern|pattern) body ;;` arm of a CaseClause.
type CaseItem struct {
	Patterns   []*Word
	Body       *CompoundList // nil for an empty body
	PostAction CaseAction
	Pos        token.Position
}

func (c *CaseItem) Position() token.Position { return c.Pos }
func (c *CaseItem) String() string {
	pats := make([]string, len(c.Patterns))
	for i, p := range c.Patterns {
		pats[i] = p.String()
	}
	body := ""
	if c.Body != nil {
		body = c.Body.String()
	}
	term := map[CaseAction]string{CaseExit: ";;", CaseFallThrough: ";&", CaseContinueMatch: ";;&"}[c.PostAction]
	return fmt.Sprintf("%s) %s %s", strings.Join(pats, "|"), body, term)
}

// CaseClause is `case WORD in CaseItem* esac` (spec.md §3).
type CaseClause struct {
	Value *Word
	Items []*CaseItem
	Pos   token.Position
}

func (c *CaseClause) compoundBody()            {}
func (c *CaseClause) Position() token.Position { return c.Pos }
func (c *CaseClause) String() string {
	parts := make([]string, len(c.Items))
	for i, it := range c.Items {
		parts[i] = it.String()
	}
	return fmt.Sprintf("case %s in %s esac", c.Value.String(), strings.Join(parts, " "))
}

// ArithmeticCommand is `(( expr ))`: truthy (exit 0) iff expr is nonzero
// (spec.md §3/§4.7).
type ArithmeticCommand struct {
	Expr string
	Pos  token.Position
}

func (a *ArithmeticCommand) compoundBody()            {}
func (a *ArithmeticCommand) Position() token.Position { return a.Pos }
func (a *ArithmeticCommand) String() string           { return "((" + a.Expr + "))" }

// FunctionDefinition registers a function body under a name; SourceText
// preserves the verbatim body text for `declare -f`-style introspection
// (spec.md §3 "FunctionDefinition(name, body, source-text)").
type FunctionDefinition struct {
	Name       string
	Body       *CompoundCommand
	SourceText string
	Pos        token.Position
}

func (f *FunctionDefinition) commandNode()             {}
func (f *FunctionDefinition) Position() token.Position { return f.Pos }
func (f *FunctionDefinition) String() string {
	return fmt.Sprintf("%s() %s", f.Name, f.Body.String())
}

// ExtendedTestCommand is `[[ expr ]]` (spec.md §3 "ExtendedTest(expr)").
type ExtendedTestCommand struct {
	Expr ExtendedTestExpr
	Pos  token.Position
}

func (e *ExtendedTestCommand) commandNode()             {}
func (e *ExtendedTestCommand) Position() token.Position { return e.Pos }
func (e *ExtendedTestCommand) String() string           { return "[[ " + e.Expr.String() + " ]]" }

// ExtendedTestExpr is implemented by every `[[ ]]` expression node.
type ExtendedTestExpr interface {
	Node
	extendedTestExpr()
}

type ExtTestWord struct {
	Operand *Word
	Pos     token.Position
}

func (e *ExtTestWord) extendedTestExpr()         {}
func (e *ExtTestWord) Position() token.Position  { return e.Pos }
func (e *ExtTestWord) String() string            { return e.Operand.String() }

type ExtTestUnary struct {
	Op      string // e.g. "-f", "-z", "-n"
	Operand *Word
	Pos     token.Position
}

func (e *ExtTestUnary) extendedTestExpr()        {}
func (e *ExtTestUnary) Position() token.Position { return e.Pos }
func (e *ExtTestUnary) String() string           { return e.Op + " " + e.Operand.String() }

type ExtTestBinary struct {
	Op          string // "==", "!=", "=~", "<", ">", "-eq", ...
	Left, Right *Word
	Pos         token.Position
}

func (e *ExtTestBinary) extendedTestExpr()        {}
func (e *ExtTestBinary) Position() token.Position { return e.Pos }
func (e *ExtTestBinary) String() string {
	return fmt.Sprintf("%s %s %s", e.Left.String(), e.Op, e.Right.String())
}

type ExtTestNot struct {
	Operand ExtendedTestExpr
	Pos     token.Position
}

func (e *ExtTestNot) extendedTestExpr()        {}
func (e *ExtTestNot) Position() token.Position { return e.Pos }
func (e *ExtTestNot) String() string           { return "! " + e.Operand.String() }

type ExtTestAnd struct {
	Left, Right ExtendedTestExpr
	Pos         token.Position
}

func (e *ExtTestAnd) extendedTestExpr()        {}
func (e *ExtTestAnd) Position() token.Position { return e.Pos }
func (e *ExtTestAnd) String() string           { return e.Left.String() + " && " + e.Right.String() }

type ExtTestOr struct {
	Left, Right ExtendedTestExpr
	Pos         token.Position
}

func (e *ExtTestOr) extendedTestExpr()        {}
func (e *ExtTestOr) Position() token.Position { return e.Pos }
func (e *ExtTestOr) String() string           { return e.Left.String() + " || " + e.Right.String() }

type ExtTestGroup struct {
	Inner ExtendedTestExpr
	Pos   token.Position
}

func (e *ExtTestGroup) extendedTestExpr()        {}
func (e *ExtTestGroup) Position() token.Position { return e.Pos }
func (e *ExtTestGroup) String() string           { return "(" + e.Inner.String() + ")" }
