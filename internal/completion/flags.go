package completion

import (
	"strings"

	"github.com/coreshell/gosh/internal/shellerr"
)

// ParseSpecFlags parses the flag grammar shared by the `complete` and
// `compgen` builtins (SUPPLEMENTED FEATURES: action flags -a -b -c -d -e -f
// -g -j -k -s -u -v, option flag -o, -F function, -C command, -G glob, -W
// word-list, -P/-S prefix/suffix, -X filter), returning the assembled Spec
// and whatever non-flag arguments remain.
func ParseSpecFlags(args []string) (*Spec, []string, error) {
	spec := &Spec{}
	var rest []string
	i := 0
	for i < len(args) {
		a := args[i]
		switch a {
		case "-a":
			spec.Actions = append(spec.Actions, ActionAlias)
		case "-b":
			spec.Actions = append(spec.Actions, ActionBuiltin)
		case "-c":
			spec.Actions = append(spec.Actions, ActionCommand)
		case "-d":
			spec.Actions = append(spec.Actions, ActionDirectory)
		case "-e":
			spec.Actions = append(spec.Actions, ActionExportedVariable)
		case "-f":
			spec.Actions = append(spec.Actions, ActionFile)
		case "-k":
			spec.Actions = append(spec.Actions, ActionKeyword)
		case "-v":
			spec.Actions = append(spec.Actions, ActionVariable)
		case "-g", "-j", "-s", "-u":
			// group/job/service/user actions: accepted for CLI compatibility
			// but this interpreter has no process/user database to draw
			// candidates from, so they contribute nothing.
		case "-o":
			i++
			if i >= len(args) {
				return nil, nil, shellerr.New(shellerr.KindSyntax, "-o: option argument required")
			}
			switch args[i] {
			case "nospace":
				spec.Options.NoSpace = true
			case "nosort":
				spec.Options.NoSort = true
			case "filenames":
				spec.Options.Filenames = true
			case "dirnames":
				spec.Options.DirNames = true
			case "plusdirs":
				spec.Options.PlusDirs = true
			}
		case "-F":
			i++
			if i >= len(args) {
				return nil, nil, shellerr.New(shellerr.KindSyntax, "-F: function name required")
			}
			spec.FunctionName = args[i]
		case "-C":
			i++
			if i >= len(args) {
				return nil, nil, shellerr.New(shellerr.KindSyntax, "-C: command required")
			}
			spec.Command = args[i]
		case "-G":
			i++
			if i >= len(args) {
				return nil, nil, shellerr.New(shellerr.KindSyntax, "-G: glob pattern required")
			}
			spec.GlobPattern = args[i]
		case "-W":
			i++
			if i >= len(args) {
				return nil, nil, shellerr.New(shellerr.KindSyntax, "-W: word list required")
			}
			spec.WordList = splitWordList(args[i])
		case "-P":
			i++
			if i >= len(args) {
				return nil, nil, shellerr.New(shellerr.KindSyntax, "-P: prefix required")
			}
			spec.Prefix = args[i]
		case "-S":
			i++
			if i >= len(args) {
				return nil, nil, shellerr.New(shellerr.KindSyntax, "-S: suffix required")
			}
			spec.Suffix = args[i]
		case "-X":
			i++
			if i >= len(args) {
				return nil, nil, shellerr.New(shellerr.KindSyntax, "-X: filter pattern required")
			}
			if strings.HasPrefix(args[i], "!") {
				spec.FilterExcludes = append(spec.FilterExcludes, args[i][1:])
			} else {
				spec.FilterPattern = args[i]
			}
		default:
			rest = append(rest, a)
		}
		i++
	}
	return spec, rest, nil
}

// splitWordList splits a -W argument on IFS-style whitespace (spec.md
// §4.8's "word-list" action: "IFS-split"), ignoring quoting since bash
// itself performs no further quote-processing on an already-expanded -W
// operand.
func splitWordList(s string) []string {
	return strings.Fields(s)
}
