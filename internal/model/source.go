package model

// Path represents a file system path.
type Path string

// Position is a zero-based line/column location in a source file.
type Position struct {
	Line int
	Col  int
}

// SourceRange spans from Start (inclusive) to End (exclusive) in a source
// file. A zero-width range marks a synthesized location.
type SourceRange struct {
	Start Position
	End   Position
}

// RangeAt returns a zero-width range at the given position.
func RangeAt(p Position) SourceRange {
	return SourceRange{Start: p, End: p}
}

// Empty reports whether the range spans no characters.
func (r SourceRange) Empty() bool {
	return r.Start == r.End
}

// SourceMap wraps the raw bytes of one source file and answers the position
// queries frontends need when decorating a tree.
type SourceMap struct {
	content []byte
	lines   []int // byte offset of each line start
}

// NewSourceMap indexes content for line/column lookups.
func NewSourceMap(content []byte) *SourceMap {
	lines := []int{0}
	for i, b := range content {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}

	return &SourceMap{content: content, lines: lines}
}

// Content returns the raw source bytes.
func (s *SourceMap) Content() []byte { return s.content }

func (s *SourceMap) offset(p Position) int {
	if p.Line < 0 || p.Line >= len(s.lines) {
		return len(s.content)
	}

	off := s.lines[p.Line] + p.Col
	if off > len(s.content) {
		off = len(s.content)
	}

	return off
}

func (s *SourceMap) position(off int) Position {
	line := 0
	for line+1 < len(s.lines) && s.lines[line+1] <= off {
		line++
	}

	return Position{Line: line, Col: off - s.lines[line]}
}

// SkipToContentStart returns the position immediately following any
// whitespace and comments after the given position. Frontends use it to
// place explicit-empty markers just past an introducing token.
func (s *SourceMap) SkipToContentStart(after Position) Position {
	off := s.offset(after)

	for off < len(s.content) {
		switch {
		case s.content[off] == ' ' || s.content[off] == '\t' ||
			s.content[off] == '\n' || s.content[off] == '\r' ||
			s.content[off] == ';':
			off++
		case s.content[off] == '#':
			for off < len(s.content) && s.content[off] != '\n' {
				off++
			}
		default:
			return s.position(off)
		}
	}

	return s.position(off)
}
