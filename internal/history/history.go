// Package history implements the shell's command-history list and its
// on-disk persistence (spec.md §6 "External interfaces" / "On-disk state":
// "HISTFILE ... one line per entry, optionally preceded by
// #<unix-timestamp> lines when HISTTIMEFORMAT is set").
//
// Grounded on the teacher's core/sdk/secret/idfactory.go and
// runtime/streamscrub/{placeholder.go,opal_placeholder.go} for the
// blake2b-keyed content-hash pattern, repurposed here from secret-
// placeholder hashing to a history-entry dedup key (HISTCONTROL=erasedups).
package history

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Entry is one recorded command (spec.md §6 "On-disk state").
type Entry struct {
	Timestamp int64 // unix seconds; 0 if the file has no #<timestamp> line for it
	Command   string
}

// Control mirrors the HISTCONTROL env var's colon-separated value set:
// ignorespace (don't record lines starting with a space), ignoredups
// (don't record a line identical to the immediately preceding one), and
// erasedups (drop every prior occurrence of a line being re-recorded).
type Control struct {
	IgnoreSpace bool
	IgnoreDups  bool
	EraseDups   bool
}

// ParseControl parses a HISTCONTROL value ("ignoreboth", "erasedups:ignorespace", ...).
func ParseControl(v string) Control {
	var c Control
	for _, part := range strings.Split(v, ":") {
		switch strings.TrimSpace(part) {
		case "ignorespace":
			c.IgnoreSpace = true
		case "ignoredups":
			c.IgnoreDups = true
		case "ignoreboth":
			c.IgnoreSpace = true
			c.IgnoreDups = true
		case "erasedups":
			c.EraseDups = true
		}
	}
	return c
}

// History is one shell session's in-memory command list plus the rules
// (Control) governing what gets recorded, and a content-hash index
// (blake2b-keyed) for HISTCONTROL=erasedups.
type History struct {
	entries  []Entry
	Control  Control
	MaxSize  int // HISTSIZE: 0 means unbounded
	hashSeen map[[32]byte]int // content hash -> index in entries, for erasedups
}

// New returns an empty History governed by ctrl, keeping at most maxSize
// entries in memory (0 for unbounded, matching HISTSIZE unset).
func New(ctrl Control, maxSize int) *History {
	return &History{Control: ctrl, MaxSize: maxSize, hashSeen: map[[32]byte]int{}}
}

// contentHash computes the blake2b-256 digest of cmd, used as an erasedups
// dedup key rather than storing/comparing full command strings.
func contentHash(cmd string) [32]byte {
	return blake2b.Sum256([]byte(cmd))
}

// Add records cmd at timestamp ts (unix seconds; pass 0 if HISTTIMEFORMAT
// is unset), applying HISTCONTROL's ignorespace/ignoredups/erasedups rules
// (spec.md §6).
func (h *History) Add(cmd string, ts int64) {
	if cmd == "" {
		return
	}
	if h.Control.IgnoreSpace && strings.HasPrefix(cmd, " ") {
		return
	}
	if h.Control.IgnoreDups && len(h.entries) > 0 && h.entries[len(h.entries)-1].Command == cmd {
		return
	}
	if h.Control.EraseDups {
		key := contentHash(cmd)
		if idx, ok := h.hashSeen[key]; ok {
			h.entries = append(h.entries[:idx], h.entries[idx+1:]...)
			h.reindexFrom(idx)
		}
		h.hashSeen[key] = len(h.entries)
	}
	h.entries = append(h.entries, Entry{Timestamp: ts, Command: cmd})
	if h.MaxSize > 0 && len(h.entries) > h.MaxSize {
		drop := len(h.entries) - h.MaxSize
		h.entries = h.entries[drop:]
		h.reindexFrom(0)
	}
}

// reindexFrom rebuilds hashSeen's indices after entries has been spliced,
// since every index at or after the splice point shifted.
func (h *History) reindexFrom(from int) {
	for k, idx := range h.hashSeen {
		if idx >= from {
			delete(h.hashSeen, k)
		}
	}
	for i := from; i < len(h.entries); i++ {
		h.hashSeen[contentHash(h.entries[i].Command)] = i
	}
}

// Entries returns every recorded entry in recording order.
func (h *History) Entries() []Entry { return append([]Entry(nil), h.entries...) }

// Len reports the number of entries currently recorded.
func (h *History) Len() int { return len(h.entries) }

// At returns the 1-indexed history entry (as `fc`/`history -s` and `!N`
// expansion address them), or false if n is out of range.
func (h *History) At(n int) (Entry, bool) {
	if n < 1 || n > len(h.entries) {
		return Entry{}, false
	}
	return h.entries[n-1], true
}

// Delete removes the 1-indexed entry n (`history -d n`), if in range.
func (h *History) Delete(n int) {
	if n < 1 || n > len(h.entries) {
		return
	}
	idx := n - 1
	h.entries = append(h.entries[:idx], h.entries[idx+1:]...)
	h.reindexFrom(idx)
}

// Load reads a HISTFILE's contents (spec.md §6): one command per line,
// optionally preceded by a "#<unix-timestamp>" line recording when it ran.
func (h *History) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var pendingTS int64
	for scanner.Scan() {
		line := scanner.Text()
		if ts, ok := parseTimestampLine(line); ok {
			pendingTS = ts
			continue
		}
		h.Add(line, pendingTS)
		pendingTS = 0
	}
	return scanner.Err()
}

func parseTimestampLine(line string) (int64, bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, false
	}
	digits := line[1:]
	if digits == "" {
		return 0, false
	}
	ts, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// Save writes every entry to w in HISTFILE format. withTimestamps emits a
// "#<unix-timestamp>" line ahead of each entry that has one (HISTTIMEFORMAT
// set), matching Load's expectations.
func (h *History) Save(w io.Writer, withTimestamps bool) error {
	bw := bufio.NewWriter(w)
	for _, e := range h.entries {
		if withTimestamps && e.Timestamp != 0 {
			if _, err := fmt.Fprintf(bw, "#%d\n", e.Timestamp); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(bw, e.Command); err != nil {
			return err
		}
	}
	return bw.Flush()
}
