package expand

import (
	"sort"
	"strconv"
	"strings"

	"github.com/coreshell/gosh/internal/arithmetic"
	"github.com/coreshell/gosh/internal/pattern"
	"github.com/coreshell/gosh/internal/shellerr"
	"github.com/coreshell/gosh/internal/variables"
	"github.com/coreshell/gosh/internal/wordparser"
)

// paramValue is the resolved value of one parameter reference, before any
// operator is applied.
type paramValue struct {
	set      bool
	scalar   string
	array    []string // resolved elements, used when isArray is true
	isArray  bool      // Index was "@" or "*", or Name was "@" or "*"
	variable *variables.Variable // non-nil when backed by a named shell variable (for assign/indirection ops)
	name     string              // the resolved variable name, for error messages and ${!name}
}

// resolveParam looks up p's base value, per spec.md §3's parameter
// enumeration: positional, special (@ * # ? - $ ! 0), named, named[index],
// named[@|*].
func (ex *Expander) resolveParam(p *wordparser.Param) paramValue {
	switch {
	case isAllDigits(p.Name):
		n, _ := strconv.Atoi(p.Name)
		if n == 0 {
			return paramValue{set: true, scalar: ex.Params.Name}
		}
		if n >= 1 && n <= len(ex.Params.Positional) {
			return paramValue{set: true, scalar: ex.Params.Positional[n-1]}
		}
		return paramValue{set: false}

	case p.Name == "@" || p.Name == "*":
		return paramValue{set: len(ex.Params.Positional) > 0, array: ex.Params.Positional, isArray: true}

	case p.Name == "#":
		return paramValue{set: true, scalar: strconv.Itoa(len(ex.Params.Positional))}

	case len(p.Name) == 1 && strings.ContainsRune("?!-$_", rune(p.Name[0])):
		v, ok := ex.Params.Special[p.Name[0]]
		return paramValue{set: ok, scalar: v}

	default:
		v, ok := ex.Env.Get(p.Name, variables.Anywhere)
		if !ok {
			return paramValue{set: false, name: p.Name}
		}
		if p.Index == "@" || p.Index == "*" {
			switch v.Value.Kind {
			case variables.KindIndexedArray:
				var out []string
				for _, i := range v.Value.SortedIndices() {
					out = append(out, v.Value.Indexed[i])
				}
				return paramValue{set: len(out) > 0, array: out, isArray: true, variable: v, name: p.Name}
			case variables.KindAssociativeArray:
				var out []string
				for _, k := range v.Value.SortedAssocKeys() {
					out = append(out, v.Value.Assoc[k])
				}
				return paramValue{set: len(out) > 0, array: out, isArray: true, variable: v, name: p.Name}
			default:
				return paramValue{set: v.Value.Kind == variables.KindString, scalar: v.Value.Str, variable: v, name: p.Name}
			}
		}
		if p.Index != "" {
			switch v.Value.Kind {
			case variables.KindIndexedArray:
				n, err := strconv.Atoi(strings.TrimSpace(p.Index))
				if err != nil {
					return paramValue{set: false, variable: v, name: p.Name}
				}
				s, ok := v.Value.Indexed[n]
				return paramValue{set: ok, scalar: s, variable: v, name: p.Name}
			case variables.KindAssociativeArray:
				s, ok := v.Value.Assoc[p.Index]
				return paramValue{set: ok, scalar: s, variable: v, name: p.Name}
			default:
				return paramValue{set: v.Value.Kind == variables.KindString, scalar: v.Value.Str, variable: v, name: p.Name}
			}
		}
		switch v.Value.Kind {
		case variables.KindIndexedArray:
			s, ok := v.Value.Indexed[0]
			return paramValue{set: ok, scalar: s, variable: v, name: p.Name}
		case variables.KindAssociativeArray:
			idx := v.Value.SortedAssocKeys()
			if len(idx) == 0 {
				return paramValue{set: false, variable: v, name: p.Name}
			}
			return paramValue{set: true, scalar: v.Value.Assoc[idx[0]], variable: v, name: p.Name}
		default:
			return paramValue{set: v.Value.Kind == variables.KindString, scalar: v.Value.Str, variable: v, name: p.Name}
		}
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (pv paramValue) isEmpty() bool {
	if pv.isArray {
		return len(pv.array) == 0
	}
	return pv.scalar == ""
}

// expandParameter dispatches a parameter expression's operator, per
// spec.md §3's operator enumeration and §4.5's per-operator semantics.
func (ex *Expander) expandParameter(p *wordparser.Param, quoted bool) (fragment, error) {
	if p == nil {
		return fragment{}, shellerr.New(shellerr.KindBadSubstitution, "malformed parameter expansion")
	}
	pv := ex.resolveParam(p)

	if ex.Opt.Unbound && !pv.set && p.Op != wordparser.OpDefault && p.Op != wordparser.OpAssignDefault &&
		p.Op != wordparser.OpAlt && p.Op != wordparser.OpError && p.Op != wordparser.OpLength {
		return fragment{}, shellerr.Newf(shellerr.KindUnboundVariable, "%s: unbound variable", paramDisplayName(p))
	}

	switch p.Op {
	case wordparser.OpNone:
		return ex.fragmentFromValue(pv, quoted)

	case wordparser.OpLength:
		if pv.isArray {
			return fragment{kind: fkSplittable, text: strconv.Itoa(len(pv.array))}, nil
		}
		return fragment{kind: fkSplittable, text: strconv.Itoa(len(pv.scalar))}, nil

	case wordparser.OpDefault:
		if unsetOrNull(pv, p.TestColon) {
			return ex.expandOperandFragment(p.Word)
		}
		return ex.fragmentFromValue(pv, quoted)

	case wordparser.OpAssignDefault:
		if unsetOrNull(pv, p.TestColon) {
			val, err := ex.BasicExpand(p.Word)
			if err != nil {
				return fragment{}, err
			}
			if pv.variable == nil {
				if isAllDigits(p.Name) || p.Name == "@" || p.Name == "*" || p.Name == "#" {
					return fragment{}, shellerr.Newf(shellerr.KindBadSubstitution, "cannot assign to %s", paramDisplayName(p))
				}
				if err := ex.Env.UpdateOrAdd(p.Name, val, false, variables.Anywhere, variables.ScopeGlobal, nil); err != nil {
					return fragment{}, err
				}
			} else if err := ex.Env.Assign(pv.variable, val, false); err != nil {
				return fragment{}, err
			}
			return fragment{kind: fkSplittable, text: val}, nil
		}
		return ex.fragmentFromValue(pv, quoted)

	case wordparser.OpAlt:
		if !unsetOrNull(pv, p.TestColon) {
			return ex.expandOperandFragment(p.Word)
		}
		return fragment{kind: fkSplittable, text: ""}, nil

	case wordparser.OpError:
		if unsetOrNull(pv, p.TestColon) {
			msg := p.Word
			if msg == "" {
				msg = "parameter null or not set"
			} else if expanded, err := ex.BasicExpand(msg); err == nil {
				msg = expanded
			}
			return fragment{}, shellerr.Newf(shellerr.KindParameterNullOrUnset, "%s: %s", paramDisplayName(p), msg)
		}
		return ex.fragmentFromValue(pv, quoted)

	case wordparser.OpRemoveShortestPrefix, wordparser.OpRemoveLongestPrefix,
		wordparser.OpRemoveShortestSuffix, wordparser.OpRemoveLongestSuffix:
		glob, err := ex.BasicExpand(p.Word)
		if err != nil {
			return fragment{}, err
		}
		pat, err := pattern.CompileString(glob, ex.Opt.Pattern)
		if err != nil {
			return fragment{}, err
		}
		var result string
		switch p.Op {
		case wordparser.OpRemoveShortestPrefix:
			result = pattern.RemoveSmallestMatchingPrefix(pv.scalar, pat)
		case wordparser.OpRemoveLongestPrefix:
			result = pattern.RemoveLargestMatchingPrefix(pv.scalar, pat)
		case wordparser.OpRemoveShortestSuffix:
			result = pattern.RemoveSmallestMatchingSuffix(pv.scalar, pat)
		case wordparser.OpRemoveLongestSuffix:
			result = pattern.RemoveLargestMatchingSuffix(pv.scalar, pat)
		}
		return fragment{kind: fkUnsplittable, text: result}, nil

	case wordparser.OpSubstring:
		return ex.expandSubstring(pv, p)

	case wordparser.OpUppercaseFirst, wordparser.OpUppercaseAll,
		wordparser.OpLowercaseFirst, wordparser.OpLowercaseAll:
		upper := p.Op == wordparser.OpUppercaseFirst || p.Op == wordparser.OpUppercaseAll
		all := p.Op == wordparser.OpUppercaseAll || p.Op == wordparser.OpLowercaseAll
		var result string
		if all {
			result = variables.CaseFoldAll(pv.scalar, upper)
		} else {
			result = variables.CaseFoldFirst(pv.scalar, upper)
		}
		return fragment{kind: fkUnsplittable, text: result}, nil

	case wordparser.OpReplaceFirst, wordparser.OpReplaceAll,
		wordparser.OpReplacePrefix, wordparser.OpReplaceSuffix:
		return ex.expandReplace(pv, p)

	case wordparser.OpTransform:
		return ex.expandTransform(pv, p)

	case wordparser.OpIndirection:
		target, ok := ex.Env.Get(pv.scalar, variables.Anywhere)
		if !ok {
			return fragment{kind: fkSplittable, text: ""}, nil
		}
		return fragment{kind: fkSplittable, text: target.Value.Str}, nil

	case wordparser.OpNamePrefixList:
		var names []string
		for _, name := range ex.Env.Names() {
			if strings.HasPrefix(name, p.Name) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		if quoted {
			return fragment{kind: fkUnsplittable, arrayFields: names}, nil
		}
		return fragment{kind: fkSplittable, text: strings.Join(names, " ")}, nil

	case wordparser.OpArrayKeys:
		v, ok := ex.Env.Get(p.Name, variables.Anywhere)
		if !ok {
			return fragment{kind: fkSplittable, text: ""}, nil
		}
		var keys []string
		switch v.Value.Kind {
		case variables.KindIndexedArray:
			for _, i := range v.Value.SortedIndices() {
				keys = append(keys, strconv.Itoa(i))
			}
		case variables.KindAssociativeArray:
			keys = v.Value.SortedAssocKeys()
		}
		if quoted {
			return fragment{kind: fkUnsplittable, arrayFields: keys}, nil
		}
		return fragment{kind: fkSplittable, text: strings.Join(keys, " ")}, nil

	default:
		return fragment{}, shellerr.Newf(shellerr.KindUnimplemented, "unsupported parameter operator %v", p.Op)
	}
}

func paramDisplayName(p *wordparser.Param) string {
	if p.Index != "" {
		return p.Name + "[" + p.Index + "]"
	}
	return p.Name
}

// unsetOrNull implements the ":"-vs-bare test discriminator shared by
// Default/AssignDefault/Alt/Error (spec.md §3): with a colon, unset-or-
// empty triggers; without, only unset triggers.
func unsetOrNull(pv paramValue, testColon bool) bool {
	if !pv.set {
		return true
	}
	return testColon && pv.isEmpty()
}

func (ex *Expander) expandOperandFragment(word string) (fragment, error) {
	val, err := ex.BasicExpand(word)
	if err != nil {
		return fragment{}, err
	}
	return fragment{kind: fkUnsplittable, text: val}, nil
}

func (ex *Expander) fragmentFromValue(pv paramValue, quoted bool) (fragment, error) {
	if pv.isArray {
		if quoted {
			return fragment{kind: fkUnsplittable, arrayFields: pv.array}, nil
		}
		return fragment{kind: fkSplittable, text: strings.Join(pv.array, " ")}, nil
	}
	kind := fkSplittable
	if quoted {
		kind = fkUnsplittable
	}
	return fragment{kind: kind, text: pv.scalar}, nil
}

func (ex *Expander) expandSubstring(pv paramValue, p *wordparser.Param) (fragment, error) {
	offVal, err := arithmetic.Eval(p.Word, ex.arithVars())
	if err != nil {
		return fragment{}, err
	}
	if pv.isArray {
		return ex.substringArray(pv.array, p, offVal)
	}
	s := pv.scalar
	off := int(offVal)
	if off < 0 {
		off += len(s)
		if off < 0 {
			off = 0
		}
	}
	if off > len(s) {
		return fragment{kind: fkUnsplittable, text: ""}, nil
	}
	if !p.HasWord2 {
		return fragment{kind: fkUnsplittable, text: s[off:]}, nil
	}
	lenVal, err := arithmetic.Eval(p.Word2, ex.arithVars())
	if err != nil {
		return fragment{}, err
	}
	length := int(lenVal)
	end := off + length
	if length < 0 {
		end = len(s) + length
	}
	if end > len(s) {
		end = len(s)
	}
	if end < off {
		end = off
	}
	return fragment{kind: fkUnsplittable, text: s[off:end]}, nil
}

func (ex *Expander) substringArray(arr []string, p *wordparser.Param, offVal int64) (fragment, error) {
	off := int(offVal)
	if off < 0 {
		off += len(arr)
	}
	if off < 0 {
		off = 0
	}
	if off > len(arr) {
		return fragment{kind: fkUnsplittable, arrayFields: nil, text: ""}, nil
	}
	end := len(arr)
	if p.HasWord2 {
		lenVal, err := arithmetic.Eval(p.Word2, ex.arithVars())
		if err != nil {
			return fragment{}, err
		}
		end = off + int(lenVal)
		if end > len(arr) {
			end = len(arr)
		}
	}
	if end < off {
		end = off
	}
	return fragment{kind: fkUnsplittable, arrayFields: append([]string{}, arr[off:end]...)}, nil
}

func (ex *Expander) expandReplace(pv paramValue, p *wordparser.Param) (fragment, error) {
	glob, err := ex.BasicExpand(p.Word)
	if err != nil {
		return fragment{}, err
	}
	repl, err := ex.BasicExpand(p.Word2)
	if err != nil {
		return fragment{}, err
	}
	switch p.Op {
	case wordparser.OpReplacePrefix:
		pat, err := pattern.CompileString(glob, ex.Opt.Pattern)
		if err != nil {
			return fragment{}, err
		}
		for i := len(pv.scalar); i >= 0; i-- {
			if pat.MatchString(pv.scalar[:i]) {
				return fragment{kind: fkUnsplittable, text: repl + pv.scalar[i:]}, nil
			}
		}
		return fragment{kind: fkUnsplittable, text: pv.scalar}, nil

	case wordparser.OpReplaceSuffix:
		pat, err := pattern.CompileString(glob, ex.Opt.Pattern)
		if err != nil {
			return fragment{}, err
		}
		for i := 0; i <= len(pv.scalar); i++ {
			if pat.MatchString(pv.scalar[i:]) {
				return fragment{kind: fkUnsplittable, text: pv.scalar[:i] + repl}, nil
			}
		}
		return fragment{kind: fkUnsplittable, text: pv.scalar}, nil

	default:
		re, err := pattern.CompileUnanchored(glob, ex.Opt.Pattern)
		if err != nil {
			return fragment{}, err
		}
		if p.Op == wordparser.OpReplaceAll {
			return fragment{kind: fkUnsplittable, text: re.Regexp().ReplaceAllString(pv.scalar, regexpLiteralReplacement(repl))}, nil
		}
		loc := re.Regexp().FindStringIndex(pv.scalar)
		if loc == nil {
			return fragment{kind: fkUnsplittable, text: pv.scalar}, nil
		}
		return fragment{kind: fkUnsplittable, text: pv.scalar[:loc[0]] + repl + pv.scalar[loc[1]:]}, nil
	}
}

// regexpLiteralReplacement escapes "$" so the replacement text is inserted
// literally rather than interpreted as a regexp.ReplaceAll backreference.
func regexpLiteralReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// expandTransform implements the `${x@op}` transform letters from
// spec.md §3 (`U u L Q E P A K a k`); P (rerun the prompt formatter) is
// delegated to a hook the shell facade installs, since internal/expand has
// no prompt-formatting concern of its own.
func (ex *Expander) expandTransform(pv paramValue, p *wordparser.Param) (fragment, error) {
	switch p.Word {
	case "U":
		return fragment{kind: fkUnsplittable, text: variables.CaseFoldAll(pv.scalar, true)}, nil
	case "u":
		return fragment{kind: fkUnsplittable, text: variables.CaseFoldFirst(pv.scalar, true)}, nil
	case "L":
		return fragment{kind: fkUnsplittable, text: variables.CaseFoldAll(pv.scalar, false)}, nil
	case "Q":
		return fragment{kind: fkUnsplittable, text: shellQuote(pv.scalar)}, nil
	case "E":
		return fragment{kind: fkUnsplittable, text: wordparserUnescapeAnsiC(pv.scalar)}, nil
	case "P":
		if ex.PromptFormatter != nil {
			return fragment{kind: fkUnsplittable, text: ex.PromptFormatter(pv.scalar)}, nil
		}
		return fragment{kind: fkUnsplittable, text: pv.scalar}, nil
	case "A":
		if pv.variable != nil {
			return fragment{kind: fkUnsplittable, text: declareAssignment(p.Name, pv.variable)}, nil
		}
		return fragment{kind: fkUnsplittable, text: ""}, nil
	case "a":
		if pv.variable != nil {
			return fragment{kind: fkUnsplittable, text: pv.variable.Attrs.AttrLetters(pv.variable.Value.Kind)}, nil
		}
		return fragment{kind: fkUnsplittable, text: "-"}, nil
	case "K", "k":
		return fragment{kind: fkUnsplittable, text: pv.scalar}, nil
	default:
		return fragment{}, shellerr.Newf(shellerr.KindBadSubstitution, "unknown transform operator %q", p.Word)
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// wordparserUnescapeAnsiC is a thin re-export so expandTransform's "E" case
// (expand backslash escapes the way $'...' does) can reuse the word
// parser's ANSI-C unescaper without duplicating its switch table.
func wordparserUnescapeAnsiC(s string) string {
	pieces, err := wordparser.Parse("$'"+strings.ReplaceAll(s, "'", `\'`)+"'", wordparser.Options{})
	if err != nil || len(pieces) == 0 {
		return s
	}
	return pieces[0].Text
}

func declareAssignment(name string, v *variables.Variable) string {
	letters := v.Attrs.AttrLetters(v.Value.Kind)
	return "declare -" + letters + " " + name + "=\"" + v.Value.Str + "\""
}
