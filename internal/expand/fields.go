package expand

import (
	"strings"

	"github.com/coreshell/gosh/internal/pattern"
)

// field is one already-split word field: either a single plain string
// (built by joining adjacent splittable/unsplittable fragment text) or, for
// a fragment that arrived pre-split into array elements (quoted "$@" or
// "${!prefix@}"/"${!arr[@]}"), one field per element.
type field struct {
	text string
	// glob marks whether this field's text came from unquoted, splittable
	// material and is therefore eligible for pathname expansion (spec.md
	// §4.5: only unquoted fields reach pathname expansion).
	glob bool
}

func (f field) literal() string { return f.text }

// splitFields implements spec.md §4.5's split_fields: IFS drives where a
// splittable fragment breaks into multiple fields, unsplittable fragments
// (anything that came from quotes) are never split, and a fragment's
// arrayFields (quoted "$@"-shaped material) each become their own field,
// glued to whatever splittable text immediately precedes/follows them in
// the same word.
func (ex *Expander) splitFields(fragments []fragment) []field {
	ifs := ex.Opt.ifsOrDefault()

	var fields []field
	var pending strings.Builder
	pendingGlob := false
	haveContent := false

	flushPending := func() {
		if haveContent {
			fields = append(fields, field{text: pending.String(), glob: pendingGlob})
		}
		pending.Reset()
		pendingGlob = false
		haveContent = false
	}

	for _, f := range fragments {
		if f.arrayFields != nil {
			for i, elem := range f.arrayFields {
				if i == 0 {
					pending.WriteString(elem)
					haveContent = true
					continue
				}
				flushPending()
				pending.WriteString(elem)
				haveContent = true
			}
			continue
		}

		if f.kind == fkUnsplittable || ifs == "" {
			pending.WriteString(f.text)
			haveContent = true
			continue
		}

		parts, leadingSep, trailingSep := splitOnIFS(f.text, ifs)
		if len(parts) == 0 {
			continue
		}
		if leadingSep && haveContent {
			flushPending()
		}
		for i, part := range parts {
			if i > 0 {
				flushPending()
			}
			if part != "" {
				pending.WriteString(part)
				pendingGlob = true
				haveContent = true
			} else if i > 0 || leadingSep {
				haveContent = true
			}
		}
		if trailingSep {
			flushPending()
		}
	}
	flushPending()
	return fields
}

// splitOnIFS splits s on runs of IFS characters, collapsing runs of
// IFS-whitespace characters (space/tab/newline, when they're in ifs) the
// way bash's word splitting does, while treating each occurrence of a
// non-whitespace IFS character as its own, non-collapsing delimiter
// (spec.md §4.5's split_fields rules). Returns the non-delimiter parts plus
// whether s began/ended with a delimiter run (producing an empty leading
// or trailing field).
func splitOnIFS(s, ifs string) (parts []string, leadingSep, trailingSep bool) {
	isIFSWhitespace := func(r rune) bool {
		return strings.ContainsRune(" \t\n", r) && strings.ContainsRune(ifs, r)
	}
	isIFS := func(r rune) bool { return strings.ContainsRune(ifs, r) }

	runes := []rune(s)
	i := 0
	// Skip leading IFS-whitespace without counting it as a field boundary.
	for i < len(runes) && isIFSWhitespace(runes[i]) {
		i++
	}
	if i > 0 {
		leadingSep = true
	}

	var cur strings.Builder
	wroteAny := false
	flush := func() {
		parts = append(parts, cur.String())
		cur.Reset()
		wroteAny = true
	}

	for i < len(runes) {
		r := runes[i]
		switch {
		case isIFSWhitespace(r):
			flush()
			for i < len(runes) && isIFSWhitespace(runes[i]) {
				i++
			}
			continue
		case isIFS(r):
			flush()
			i++
			trailingSep = true
			continue
		default:
			cur.WriteRune(r)
			trailingSep = false
			i++
		}
	}
	if cur.Len() > 0 || !wroteAny {
		flush()
		trailingSep = false
	}
	return parts, leadingSep, trailingSep
}

// expandPathname implements spec.md §4.4's pathname expansion step of
// full_expand_and_split: an unquoted field containing glob metacharacters
// expands against the filesystem; anything else (quoted fields, or fields
// with no metacharacters, or when NoGlob disables it entirely) passes
// through unchanged, except that NullGlob drops a glob field that matches
// nothing instead of leaving the literal pattern.
func (ex *Expander) expandPathname(f field) ([]string, error) {
	if !f.glob || !containsGlobMeta(f.text) {
		return []string{f.text}, nil
	}

	base := "."
	text := f.text
	var components []pattern.Component
	segments := strings.Split(text, "/")
	for i, seg := range segments {
		if i == 0 && seg == "" {
			base = "/"
			continue
		}
		if seg == "" {
			continue
		}
		kind := pattern.ComponentLiteral
		if containsGlobMeta(seg) {
			kind = pattern.ComponentGlob
		}
		components = append(components, pattern.Component{Kind: kind, Text: seg})
	}

	matches, err := pattern.Expand(base, components, ex.Opt.Pattern, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		if ex.Opt.NullGlob {
			return nil, nil
		}
		return []string{f.text}, nil
	}
	// pattern.Expand always roots its output at base ("." or "/"); strip a
	// leading "./" so relative globs read the way the user typed them.
	if base == "." {
		for i, m := range matches {
			matches[i] = strings.TrimPrefix(m, "./")
		}
	}
	return matches, nil
}

func containsGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
