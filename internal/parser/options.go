package parser

// Options are the shape/feature-set switches from spec.md §4.2 "Parser
// options (affect only the shape/feature set)".
type Options struct {
	ExtendedGlobbing bool
	PosixMode        bool
	// ShMode disables these non-POSIX constructs in the parser: arithmetic
	// command, arithmetic for, and extended test. It does not affect
	// parameter-expansion ops or array subscripting in parameters.
	ShMode         bool
	TildeExpansion bool
}

// DefaultOptions mirrors bash's interactive defaults: globbing and tilde
// expansion on, POSIX/sh compatibility modes off.
func DefaultOptions() Options {
	return Options{ExtendedGlobbing: true, TildeExpansion: true}
}
