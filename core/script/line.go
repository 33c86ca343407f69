package script

import (
	"bufio"
	"strings"
)

// Kind classifies a single line of a script.
type Kind int

const (
	// Blank lines are skipped.
	Blank Kind = iota
	// Comment lines start with '#' and are skipped.
	Comment
	// Directive lines ("cd <path>") move the execution cursor without
	// starting a process.
	Directive
	// Passthrough lines are handed verbatim to the shell backend.
	Passthrough
)

const directivePrefix = "cd "

// Line is a trimmed, classified script line.
type Line struct {
	Kind Kind
	// Text is the trimmed line.
	Text string
	// Target is the path argument of a Directive.
	Target string
}

// Classify trims raw and decides how it's executed.
func Classify(raw string) Line {
	text := strings.TrimSpace(raw)
	switch {
	case text == "":
		return Line{Kind: Blank}
	case strings.HasPrefix(text, "#"):
		return Line{Kind: Comment, Text: text}
	case strings.HasPrefix(text, directivePrefix):
		return Line{
			Kind:   Directive,
			Text:   text,
			Target: strings.TrimSpace(strings.TrimPrefix(text, directivePrefix)),
		}
	default:
		return Line{Kind: Passthrough, Text: text}
	}
}

// newLineScanner splits contents into lines, dropping the "\r" of CRLF
// endings. A single line may be as long as the whole script.
func newLineScanner(contents string) *bufio.Scanner {
	scanner := bufio.NewScanner(strings.NewReader(contents))
	scanner.Buffer(make([]byte, 0, 4096), len(contents)+1)
	return scanner
}
