// Package variables implements the shell value/variable/environment model
// from spec.md §3 "Shell value"/"Variable"/"Environment" and the assignment
// rules in §4.6.
//
// Grounded on the teacher's core/ir scope-stack handling (a stack of scopes
// with topmost-match lookup for decorator-local bindings) generalized from
// single-valued bindings to the tagged Unset/String/IndexedArray/
// AssociativeArray value model this spec requires, with Unicode-aware case
// transforms (declare -u/-l, capitalize) delegated to golang.org/x/text/cases
// rather than the ASCII-only strings.ToUpper/ToLower the teacher itself
// never needed to go beyond.
package variables

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/coreshell/gosh/internal/shellerr"
)

// ValueKind tags a Value's shape (spec.md §3 "Shell value").
type ValueKind int

const (
	KindUnset ValueKind = iota
	KindString
	KindIndexedArray
	KindAssociativeArray
)

// UnsetTag refines KindUnset: whether the not-yet-created slot is untyped
// or was declared as an array type ahead of first assignment.
type UnsetTag int

const (
	UnsetUntyped UnsetTag = iota
	UnsetIndexedArray
	UnsetAssociativeArray
)

// Value is a tagged shell value (spec.md §3).
type Value struct {
	Kind ValueKind
	Tag  UnsetTag // meaningful when Kind == KindUnset

	Str     string
	Indexed map[int]string
	Assoc   map[string]string
	// order preserves associative-array insertion order for enumeration
	// (declare -p / "${!arr[@]}" output stability).
	order []string
}

// NewUnset returns an untyped unset value.
func NewUnset() Value { return Value{Kind: KindUnset, Tag: UnsetUntyped} }

// NewString returns a scalar string value.
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }

// NewIndexedArray returns an empty indexed array.
func NewIndexedArray() Value {
	return Value{Kind: KindIndexedArray, Indexed: map[int]string{}}
}

// NewAssociativeArray returns an empty associative array.
func NewAssociativeArray() Value {
	return Value{Kind: KindAssociativeArray, Assoc: map[string]string{}}
}

// MaxIndex returns the highest key in an indexed array, or -1 if empty.
func (v Value) MaxIndex() int {
	max := -1
	for k := range v.Indexed {
		if k > max {
			max = k
		}
	}
	return max
}

// SortedIndices returns an indexed array's keys in numeric order
// (spec.md §3: "Ordering within indexed arrays is numerical").
func (v Value) SortedIndices() []int {
	keys := make([]int, 0, len(v.Indexed))
	for k := range v.Indexed {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// SortedAssocKeys returns an associative array's keys in insertion order.
func (v Value) SortedAssocKeys() []string {
	out := make([]string, 0, len(v.order))
	for _, k := range v.order {
		if _, ok := v.Assoc[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func (v *Value) setAssoc(key, val string) {
	if v.Assoc == nil {
		v.Assoc = map[string]string{}
	}
	if _, exists := v.Assoc[key]; !exists {
		v.order = append(v.order, key)
	}
	v.Assoc[key] = val
}

// UpdateTransform is the case-folding attribute applied on every assigned
// piece before storage (spec.md §3 "Variable").
type UpdateTransform int

const (
	TransformNone UpdateTransform = iota
	TransformLowercase
	TransformUppercase
	TransformCapitalize
)

// Attributes mirrors spec.md §3's Variable attribute bag.
type Attributes struct {
	Exported   bool
	Readonly   bool
	Enumerable bool // declare -p visibility; true unless explicitly hidden
	Trace      bool
	Integer    bool
	Nameref    bool
	Transform  UpdateTransform
}

// AttrLetters builds the declare -p letter string from spec.md §4.6:
// a/A/i/n/r/l/t/u/x, "-" if none apply.
func (a Attributes) AttrLetters(kind ValueKind) string {
	var b strings.Builder
	if kind == KindIndexedArray {
		b.WriteByte('a')
	}
	if kind == KindAssociativeArray {
		b.WriteByte('A')
	}
	if a.Integer {
		b.WriteByte('i')
	}
	if a.Nameref {
		b.WriteByte('n')
	}
	if a.Readonly {
		b.WriteByte('r')
	}
	if a.Transform == TransformLowercase {
		b.WriteByte('l')
	}
	if a.Trace {
		b.WriteByte('t')
	}
	if a.Transform == TransformUppercase {
		b.WriteByte('u')
	}
	if a.Exported {
		b.WriteByte('x')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

// Variable wraps a Value with its Attributes (spec.md §3).
type Variable struct {
	Value Value
	Attrs Attributes
}

// LookupPolicy controls which scopes Get searches (spec.md §4.6).
type LookupPolicy int

const (
	Anywhere LookupPolicy = iota
	OnlyCurrentLocal
)

// Scope is one level of the environment stack: the permanent global scope,
// or a local scope pushed for an active function call (spec.md §3
// "Environment").
type Scope struct {
	vars map[string]*Variable
}

func newScope() *Scope { return &Scope{vars: map[string]*Variable{}} }

// Environment is the scope stack (spec.md §3 "Environment": "one permanent
// global scope plus zero or more local scopes pushed for each active
// function").
type Environment struct {
	scopes []*Scope
}

// New creates an Environment with just the global scope.
func New() *Environment {
	return &Environment{scopes: []*Scope{newScope()}}
}

// PushLocals pushes a new local scope for a function call.
func (e *Environment) PushLocals() { e.scopes = append(e.scopes, newScope()) }

// PopLocals pops the topmost local scope. No-op if only the global scope
// remains (a programming error in the caller, not a user-facing one).
func (e *Environment) PopLocals() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

func (e *Environment) global() *Scope  { return e.scopes[0] }
func (e *Environment) current() *Scope { return e.scopes[len(e.scopes)-1] }

// Get resolves name under policy (spec.md §4.6 "get(name, policy)").
func (e *Environment) Get(name string, policy LookupPolicy) (*Variable, bool) {
	switch policy {
	case OnlyCurrentLocal:
		v, ok := e.current().vars[name]
		return v, ok
	default:
		for i := len(e.scopes) - 1; i >= 0; i-- {
			if v, ok := e.scopes[i].vars[name]; ok {
				return v, true
			}
		}
		return nil, false
	}
}

// ScopeKind selects where Set/update_or_add creates a new variable.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeCurrentLocal
)

func (e *Environment) scopeFor(kind ScopeKind) *Scope {
	if kind == ScopeGlobal {
		return e.global()
	}
	return e.current()
}

// Set stores lit as a scalar value of name in scope, honoring readonly
// (spec.md §4.6 "set(name, value-literal, scope)").
func (e *Environment) Set(name, lit string, scope ScopeKind) error {
	target := e.scopeFor(scope)
	v, exists := target.vars[name]
	if exists && v.Attrs.Readonly {
		return shellerr.Newf(shellerr.KindReadonlyVariable, "%s: readonly variable", name)
	}
	if !exists {
		v = &Variable{}
		target.vars[name] = v
	}
	v.Value = NewString(applyTransform(lit, v.Attrs.Transform))
	return nil
}

// UpdateOrAdd implements spec.md §4.6's update_or_add: if name is found
// under policy, mutate it in place (optionally appending and/or applying
// attrMutator); otherwise create it fresh in setScope.
func (e *Environment) UpdateOrAdd(name, lit string, append bool, policy LookupPolicy, setScope ScopeKind, attrMutator func(*Attributes)) error {
	if v, ok := e.Get(name, policy); ok {
		if attrMutator != nil {
			attrMutator(&v.Attrs)
		}
		return e.Assign(v, lit, append)
	}
	target := e.scopeFor(setScope)
	v := &Variable{Value: NewUnset()}
	if attrMutator != nil {
		attrMutator(&v.Attrs)
	}
	target.vars[name] = v
	return e.Assign(v, lit, append)
}

// Assign implements the full assignment table in spec.md §4.6.
func (e *Environment) Assign(v *Variable, lit string, appendVal bool) error {
	if v.Attrs.Readonly {
		return shellerr.Newf(shellerr.KindReadonlyVariable, "cannot assign to readonly variable")
	}
	lit = applyTransform(lit, v.Attrs.Transform)

	if v.Attrs.Integer {
		n, err := strconv.ParseInt(strings.TrimSpace(lit), 10, 64)
		if err != nil {
			n = 0
		}
		if appendVal && v.Value.Kind == KindString {
			cur, _ := strconv.ParseInt(strings.TrimSpace(v.Value.Str), 10, 64)
			n += cur
		}
		v.Value = NewString(strconv.FormatInt(n, 10))
		return nil
	}

	switch v.Value.Kind {
	case KindUnset, KindString:
		if appendVal && v.Value.Kind == KindString {
			v.Value.Str += lit
		} else {
			v.Value = NewString(lit)
		}
		return nil
	case KindIndexedArray:
		idx := 0
		if appendVal {
			idx = v.Value.MaxIndex() + 1
		}
		if v.Value.Indexed == nil {
			v.Value.Indexed = map[int]string{}
		}
		v.Value.Indexed[idx] = lit
		return nil
	case KindAssociativeArray:
		return shellerr.New(shellerr.KindAssigningListToArrayMember,
			"cannot assign a plain string to an associative array without a key")
	}
	return nil
}

// AssignAtIndex implements spec.md §4.6's assign_at_index: promotes a
// scalar to an indexed array, or converts unset to the appropriate array
// kind, then assigns at index (numeric for indexed, or the literal string
// key for associative).
func (e *Environment) AssignAtIndex(v *Variable, index, value string, appendVal bool) error {
	if v.Attrs.Readonly {
		return shellerr.Newf(shellerr.KindReadonlyVariable, "cannot assign to readonly variable")
	}
	value = applyTransform(value, v.Attrs.Transform)

	switch v.Value.Kind {
	case KindUnset:
		if v.Value.Tag == UnsetAssociativeArray {
			v.Value = NewAssociativeArray()
		} else {
			v.Value = NewIndexedArray()
		}
	case KindString:
		// Scalar promoted to element 0 of a new indexed array.
		old := v.Value.Str
		v.Value = NewIndexedArray()
		v.Value.Indexed[0] = old
	}

	switch v.Value.Kind {
	case KindIndexedArray:
		n, err := strconv.Atoi(strings.TrimSpace(index))
		if err != nil {
			return shellerr.Newf(shellerr.KindSyntax, "invalid array index %q", index)
		}
		if appendVal {
			if cur, ok := v.Value.Indexed[n]; ok {
				value = cur + value
			}
		}
		v.Value.Indexed[n] = value
		return nil
	case KindAssociativeArray:
		if appendVal {
			if cur, ok := v.Value.Assoc[index]; ok {
				value = cur + value
			}
		}
		v.Value.setAssoc(index, value)
		return nil
	default:
		return shellerr.New(shellerr.KindNotArray, "variable is not an array")
	}
}

// UnsetIndex implements spec.md §4.6's unset_index: fails if v isn't an
// array, otherwise removes the entry and reports whether it existed.
func (e *Environment) UnsetIndex(v *Variable, index string) (bool, error) {
	switch v.Value.Kind {
	case KindIndexedArray:
		n, err := strconv.Atoi(strings.TrimSpace(index))
		if err != nil {
			return false, shellerr.Newf(shellerr.KindSyntax, "invalid array index %q", index)
		}
		_, ok := v.Value.Indexed[n]
		delete(v.Value.Indexed, n)
		return ok, nil
	case KindAssociativeArray:
		_, ok := v.Value.Assoc[index]
		delete(v.Value.Assoc, index)
		return ok, nil
	default:
		return false, shellerr.New(shellerr.KindNotArray, "variable is not an array")
	}
}

// Unset removes name entirely from whichever scope it's found in under
// Anywhere policy.
func (e *Environment) Unset(name string) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i].vars[name]; ok {
			delete(e.scopes[i].vars, name)
			return
		}
	}
}

// Names lists every variable name visible from the current scope stack
// (topmost shadowing match only), sorted for deterministic iteration.
func (e *Environment) Names() []string {
	seen := map[string]bool{}
	for i := len(e.scopes) - 1; i >= 0; i-- {
		for name := range e.scopes[i].vars {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of the environment's scope stack (variables
// and their attributes), for subshell/command-substitution execution
// (spec.md §4.7 "Subshell") where mutations must not leak back to the
// parent shell.
func (e *Environment) Clone() *Environment {
	scopes := make([]*Scope, len(e.scopes))
	for i, s := range e.scopes {
		ns := newScope()
		for name, v := range s.vars {
			nv := *v
			nv.Value.Indexed = cloneIntMap(v.Value.Indexed)
			nv.Value.Assoc = cloneStringMap(v.Value.Assoc)
			nv.Value.order = append([]string(nil), v.Value.order...)
			ns.vars[name] = &nv
		}
		scopes[i] = ns
	}
	return &Environment{scopes: scopes}
}

func cloneIntMap(m map[int]string) map[int]string {
	if m == nil {
		return nil
	}
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ExportedPairs returns "name=value" pairs for every exported scalar
// variable visible in the current scope stack, for building a child
// process's environment block (spec.md §3 "Exported variables contribute
// to the child process environment").
func (e *Environment) ExportedPairs() []string {
	var out []string
	seen := map[string]bool{}
	for i := len(e.scopes) - 1; i >= 0; i-- {
		for name, v := range e.scopes[i].vars {
			if seen[name] {
				continue
			}
			seen[name] = true
			if v.Attrs.Exported && v.Value.Kind == KindString {
				out = append(out, fmt.Sprintf("%s=%s", name, v.Value.Str))
			}
		}
	}
	sort.Strings(out)
	return out
}

var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
)

// applyTransform applies a Variable's update-transform attribute to a
// newly assigned string before storage (spec.md §3/§4.6), using
// Unicode-aware folding rather than ASCII-only strings.ToUpper/ToLower.
func applyTransform(s string, t UpdateTransform) string {
	switch t {
	case TransformLowercase:
		return lowerCaser.String(s)
	case TransformUppercase:
		return upperCaser.String(s)
	case TransformCapitalize:
		if s == "" {
			return s
		}
		r := []rune(s)
		head := upperCaser.String(string(r[0]))
		return head + string(r[1:])
	default:
		return s
	}
}

// CaseFoldFirst uppercases/lowercases just the first rune of s, used by
// the ${x^} / ${x,} parameter-expansion operators.
func CaseFoldFirst(s string, upper bool) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	var head string
	if upper {
		head = upperCaser.String(string(r[0]))
	} else {
		head = lowerCaser.String(string(r[0]))
	}
	return head + string(r[1:])
}

// CaseFoldAll uppercases/lowercases every rune of s, used by ${x^^}/${x,,}.
func CaseFoldAll(s string, upper bool) string {
	if upper {
		return upperCaser.String(s)
	}
	return lowerCaser.String(s)
}
