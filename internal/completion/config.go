package completion

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/coreshell/gosh/internal/shellerr"
)

// configSchemaJSON is the JSON-Schema shape a completion-config file must
// satisfy (spec.md §3 "Completion configuration": "Mapping command-name→
// spec, plus optional default, empty-line, initial-word special specs").
// Grounded on the teacher's core/types/validation.go compilation pattern:
// compile once against a fixed schema URL, validate a decoded
// interface{} document before touching the typed form.
const configSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "specs": {
      "type": "object",
      "additionalProperties": {"$ref": "#/$defs/spec"}
    },
    "default": {"$ref": "#/$defs/spec"},
    "emptyLine": {"$ref": "#/$defs/spec"},
    "initialWord": {"$ref": "#/$defs/spec"}
  },
  "$defs": {
    "spec": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "actions": {
          "type": "array",
          "items": {
            "enum": ["alias", "builtin", "command", "directory",
                     "exported-variable", "file", "function", "hostname",
                     "keyword", "shopt-setopt-name", "variable"]
          }
        },
        "globPattern": {"type": "string"},
        "wordList": {"type": "array", "items": {"type": "string"}},
        "functionName": {"type": "string"},
        "command": {"type": "string"},
        "filterPattern": {"type": "string"},
        "filterExcludes": {"type": "array", "items": {"type": "string"}},
        "prefix": {"type": "string"},
        "suffix": {"type": "string"},
        "options": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "noSpace": {"type": "boolean"},
            "noSort": {"type": "boolean"},
            "filenames": {"type": "boolean"},
            "dirNames": {"type": "boolean"},
            "plusDirs": {"type": "boolean"}
          }
        }
      }
    }
  }
}`

const configSchemaURL = "gosh://completion-config.schema.json"

func compileConfigSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(configSchemaURL, strings.NewReader(configSchemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(configSchemaURL)
}

// specDoc is the JSON shape of one Spec entry, decoded separately from
// schema validation so the typed Spec never has to reason about raw
// interface{} documents.
type specDoc struct {
	Actions        []string `json:"actions"`
	GlobPattern    string   `json:"globPattern"`
	WordList       []string `json:"wordList"`
	FunctionName   string   `json:"functionName"`
	Command        string   `json:"command"`
	FilterPattern  string   `json:"filterPattern"`
	FilterExcludes []string `json:"filterExcludes"`
	Prefix         string   `json:"prefix"`
	Suffix         string   `json:"suffix"`
	Options        struct {
		NoSpace   bool `json:"noSpace"`
		NoSort    bool `json:"noSort"`
		Filenames bool `json:"filenames"`
		DirNames  bool `json:"dirNames"`
		PlusDirs  bool `json:"plusDirs"`
	} `json:"options"`
}

func (d specDoc) toSpec() *Spec {
	s := &Spec{
		GlobPattern:    d.GlobPattern,
		WordList:       d.WordList,
		FunctionName:   d.FunctionName,
		Command:        d.Command,
		FilterPattern:  d.FilterPattern,
		FilterExcludes: d.FilterExcludes,
		Prefix:         d.Prefix,
		Suffix:         d.Suffix,
	}
	for _, a := range d.Actions {
		s.Actions = append(s.Actions, Action(a))
	}
	s.Options.NoSpace = d.Options.NoSpace
	s.Options.NoSort = d.Options.NoSort
	s.Options.Filenames = d.Options.Filenames
	s.Options.DirNames = d.Options.DirNames
	s.Options.PlusDirs = d.Options.PlusDirs
	return s
}

type configDoc struct {
	Specs       map[string]specDoc `json:"specs"`
	Default     *specDoc           `json:"default"`
	EmptyLine   *specDoc           `json:"emptyLine"`
	InitialWord *specDoc           `json:"initialWord"`
}

// LoadConfig validates data against the completion-config JSON Schema
// (DOMAIN STACK: "github.com/santhosh-tekuri/jsonschema/v5 ... Validates
// JSON completion-config before installing specs") and builds a Registry
// from it.
func LoadConfig(data []byte) (*Registry, error) {
	schema, err := compileConfigSchema()
	if err != nil {
		return nil, shellerr.Wrap(shellerr.KindSyntax, "completion config: compiling schema", err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, shellerr.Wrap(shellerr.KindSyntax, "completion config: invalid JSON", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, shellerr.Wrap(shellerr.KindSyntax, "completion config: schema validation failed", err)
	}

	var doc configDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, shellerr.Wrap(shellerr.KindSyntax, "completion config: decoding", err)
	}

	r := NewRegistry()
	for name, sd := range doc.Specs {
		r.Register([]string{name}, sd.toSpec())
	}
	if doc.Default != nil {
		r.Default = doc.Default.toSpec()
	}
	if doc.EmptyLine != nil {
		r.EmptyLine = doc.EmptyLine.toSpec()
	}
	if doc.InitialWord != nil {
		r.InitialWord = doc.InitialWord.toSpec()
	}
	return r, nil
}
