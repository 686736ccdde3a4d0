// Package callstack implements the shell's execution call stack: script,
// function, trap-handler, eval, command-string, and interactive-session
// frames, with O(1) per-kind depth counters (spec.md §3 "Call stack").
//
// Grounded directly on original_source/brush-core/src/callstack.rs (a
// front-pushed deque of Frame values with three saturating depth counters
// updated on push/pop), adapted to the teacher's plain-struct-plus-slice
// style rather than Rust's VecDeque, and to this module's Position type
// instead of brush's SourcePosition/SourceInfo pair.
package callstack

import "github.com/coreshell/gosh/internal/token"

// ScriptCallType distinguishes a sourced script from an executed one.
type ScriptCallType int

const (
	Source ScriptCallType = iota
	Run
)

// FrameKind enumerates the Frame.Type values from spec.md §3.
type FrameKind int

const (
	FrameScript FrameKind = iota
	FrameFunction
	FrameTrapHandler
	FrameEval
	FrameCommandString
	FrameInteractiveSession
)

// Frame is one entry in the call stack (spec.md §3 "Call stack").
type Frame struct {
	Kind FrameKind

	// ScriptCallType is meaningful only when Kind == FrameScript.
	ScriptCallType ScriptCallType
	// Name is the script path or function name.
	Name string

	SourceInfo string // script path, function's defining source, or a tag like "environment"/"main"

	Entry   *token.Position // entry point into this frame, if known
	Current *token.Position // current execution position within this frame

	Args             []string // positional parameters, not including $0
	CurrentLineOffset int
}

func (f Frame) displayName() string {
	switch f.Kind {
	case FrameScript:
		if f.ScriptCallType == Source {
			return "source(" + f.SourceInfo + ")"
		}
		return "script(" + f.SourceInfo + ")"
	case FrameFunction:
		return "func(" + f.Name + ")"
	case FrameTrapHandler:
		return "trap"
	case FrameEval:
		return "eval"
	case FrameCommandString:
		return "-c"
	case FrameInteractiveSession:
		return "interactive"
	default:
		return "?"
	}
}

func (f Frame) String() string { return f.displayName() }

// CallStack is a front-pushed stack of Frames with O(1) depth counters per
// frame kind that matters for introspection (function/sourced-script/
// trap-handler), mirroring brush's CallStack.
type CallStack struct {
	frames []Frame // frames[0] is the topmost (current) frame

	funcDepth   int
	scriptDepth int // sourced scripts only, per brush's script_source_depth
	trapDepth   int
}

// New returns an empty call stack.
func New() *CallStack { return &CallStack{} }

func (cs *CallStack) push(f Frame) {
	cs.frames = append([]Frame{f}, cs.frames...)
	switch {
	case f.Kind == FrameFunction:
		cs.funcDepth++
	case f.Kind == FrameScript && f.ScriptCallType == Source:
		cs.scriptDepth++
	case f.Kind == FrameTrapHandler:
		cs.trapDepth++
	}
}

// Pop removes and returns the topmost frame, or false if the stack is empty.
func (cs *CallStack) Pop() (Frame, bool) {
	if len(cs.frames) == 0 {
		return Frame{}, false
	}
	f := cs.frames[0]
	cs.frames = cs.frames[1:]
	switch {
	case f.Kind == FrameFunction:
		cs.funcDepth--
	case f.Kind == FrameScript && f.ScriptCallType == Source:
		cs.scriptDepth--
	case f.Kind == FrameTrapHandler:
		cs.trapDepth--
	}
	return f, true
}

// Current returns the topmost frame, or false if the stack is empty.
func (cs *CallStack) Current() (*Frame, bool) {
	if len(cs.frames) == 0 {
		return nil, false
	}
	return &cs.frames[0], true
}

// SetCurrentPosition updates the topmost frame's current execution
// position (used to keep LINENO/BASH_COMMAND accurate as the interpreter
// walks the AST).
func (cs *CallStack) SetCurrentPosition(pos token.Position) {
	if len(cs.frames) == 0 {
		return
	}
	cs.frames[0].Current = &pos
}

// IncrementCurrentLineOffset adjusts the topmost frame's line offset, used
// when a construct (e.g. eval of a multi-line string) needs its reported
// line numbers shifted.
func (cs *CallStack) IncrementCurrentLineOffset(delta int) {
	if len(cs.frames) == 0 {
		return
	}
	cs.frames[0].CurrentLineOffset += delta
}

// PushScript pushes a script call frame (source-info is the script path,
// or a descriptive tag for the top-level/-c invocations).
func (cs *CallStack) PushScript(callType ScriptCallType, sourceInfo string, args []string) {
	cs.push(Frame{Kind: FrameScript, ScriptCallType: callType, Name: sourceInfo, SourceInfo: sourceInfo, Args: args})
}

// PushFunction pushes a function-call frame.
func (cs *CallStack) PushFunction(name, sourceInfo string, entry *token.Position, args []string) {
	cs.push(Frame{Kind: FrameFunction, Name: name, SourceInfo: sourceInfo, Entry: entry, Args: args})
}

// PushTrapHandler pushes a trap-handler frame.
func (cs *CallStack) PushTrapHandler(sourceInfo string) {
	cs.push(Frame{Kind: FrameTrapHandler, SourceInfo: sourceInfo})
}

// PushEval pushes an eval-string frame.
func (cs *CallStack) PushEval() {
	cs.push(Frame{Kind: FrameEval, SourceInfo: "eval"})
}

// PushCommandString pushes a `-c <string>` invocation frame.
func (cs *CallStack) PushCommandString() {
	cs.push(Frame{Kind: FrameCommandString, SourceInfo: "environment"})
}

// PushInteractiveSession pushes the top-level interactive-session frame.
func (cs *CallStack) PushInteractiveSession() {
	cs.push(Frame{Kind: FrameInteractiveSession, SourceInfo: "main"})
}

// InSourcedScript reports whether the current (topmost) script frame, if
// any, was entered via `.`/`source` rather than direct execution.
func (cs *CallStack) InSourcedScript() bool {
	for _, f := range cs.frames {
		if f.Kind == FrameScript {
			return f.ScriptCallType == Source
		}
	}
	return false
}

// InFunction reports whether any function call frame is on the stack.
func (cs *CallStack) InFunction() bool { return cs.funcDepth > 0 }

// FunctionCallDepth, ScriptCallDepth, TrapHandlerDepth are the O(1)
// per-kind counters spec.md §3 requires.
func (cs *CallStack) FunctionCallDepth() int { return cs.funcDepth }
func (cs *CallStack) ScriptCallDepth() int   { return cs.scriptDepth }
func (cs *CallStack) TrapHandlerDepth() int  { return cs.trapDepth }

// Depth returns the total number of frames.
func (cs *CallStack) Depth() int { return len(cs.frames) }

// IsEmpty reports whether the stack has no frames.
func (cs *CallStack) IsEmpty() bool { return len(cs.frames) == 0 }

// Frames returns the frames from most-recent to oldest (read-only view).
func (cs *CallStack) Frames() []Frame { return cs.frames }

// FunctionNames returns the FUNCNAME array: names of every active function
// frame, most recent first (spec.md §4.7 "set FUNCNAME/BASH_SOURCE arrays
// from the stack").
func (cs *CallStack) FunctionNames() []string {
	var out []string
	for _, f := range cs.frames {
		if f.Kind == FrameFunction {
			out = append(out, f.Name)
		}
	}
	return out
}

// BashSourcePaths returns the BASH_SOURCE array: the source-info string of
// every active function or script frame, most recent first.
func (cs *CallStack) BashSourcePaths() []string {
	var out []string
	for _, f := range cs.frames {
		if f.Kind == FrameFunction || f.Kind == FrameScript {
			out = append(out, f.SourceInfo)
		}
	}
	return out
}
