package shell

import (
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"
)

// formatPromptString expands bash-style backslash escapes in a PS1/PS2/
// PS3/PS4 template (spec.md §6 "PS1…PS4 | Prompt strings"; also the target
// of the "${x@P}" transform, spec.md §4.5). Installed onto interp.Interp as
// PromptHook by New, so "${x@P}" and the Shell's own prompt rendering share
// one implementation.
func (s *Shell) formatPromptString(tmpl string) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '\\' || i == len(tmpl)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch tmpl[i] {
		case 'u':
			b.WriteString(currentUsername())
		case 'h', 'H':
			host, _ := os.Hostname()
			if tmpl[i] == 'h' {
				if idx := strings.IndexByte(host, '.'); idx >= 0 {
					host = host[:idx]
				}
			}
			b.WriteString(host)
		case 'w':
			b.WriteString(abbreviateHome(s.it.Dir))
		case 'W':
			dir := abbreviateHome(s.it.Dir)
			if idx := strings.LastIndexByte(dir, '/'); idx >= 0 && dir != "/" {
				dir = dir[idx+1:]
			}
			b.WriteString(dir)
		case '$':
			if os.Geteuid() == 0 {
				b.WriteByte('#')
			} else {
				b.WriteByte('$')
			}
		case 'd':
			b.WriteString(time.Now().Format("Mon Jan 02"))
		case 't':
			b.WriteString(time.Now().Format("15:04:05"))
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'e':
			b.WriteByte(0x1b)
		case 'a':
			b.WriteByte(0x07)
		case '\\':
			b.WriteByte('\\')
		case 's':
			b.WriteString("gosh")
		case 'v', 'V':
			b.WriteString("5.2")
		case '[', ']':
			// Non-printing sequence markers for line editors; gosh has no
			// line editor (spec.md §1 Non-goals), so drop the marker itself.
		default:
			b.WriteByte('\\')
			b.WriteByte(tmpl[i])
		}
	}
	return b.String()
}

func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return fmt.Sprintf("uid%d", os.Getuid())
}

func abbreviateHome(dir string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return dir
	}
	if dir == home {
		return "~"
	}
	if strings.HasPrefix(dir, home+"/") {
		return "~" + dir[len(home):]
	}
	return dir
}
