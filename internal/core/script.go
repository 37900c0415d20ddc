package core

import (
	"fmt"
	"os"
	"strings"
)

// DefaultJITDirective enables artifact caching when it appears, trimmed, as a
// line of a script.
const DefaultJITDirective = "#jit"

const directiveMarker = '#'

// ScriptSource is a script split into program text and directive lines.
// Both slices keep the order the lines had in the file.
type ScriptSource struct {
	// ProgramLines are all lines not starting with '#'.
	ProgramLines []string

	// DirectiveLines are the lines starting with '#', including the
	// interpreter line.
	DirectiveLines []string
}

// ParseScript splits script content into program and directive lines. Line
// terminators are not part of the lines.
func ParseScript(content string) ScriptSource {
	var src ScriptSource
	if content == "" {
		return src
	}
	content = strings.TrimSuffix(content, "\n")
	for _, line := range strings.Split(content, "\n") {
		if len(line) > 0 && line[0] == directiveMarker {
			src.DirectiveLines = append(src.DirectiveLines, line)
			continue
		}
		src.ProgramLines = append(src.ProgramLines, line)
	}
	return src
}

// ReadScript reads and splits the script at path.
func ReadScript(path string) (ScriptSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScriptSource{}, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(string(data)), nil
}

// ProgramText joins the program lines, each terminated by a newline.
func (s ScriptSource) ProgramText() string {
	if len(s.ProgramLines) == 0 {
		return ""
	}
	return strings.Join(s.ProgramLines, "\n") + "\n"
}

// HasDirective reports whether any directive line equals token once
// surrounding whitespace is removed.
func (s ScriptSource) HasDirective(token string) bool {
	for _, line := range s.DirectiveLines {
		if strings.TrimSpace(line) == token {
			return true
		}
	}
	return false
}
