package leave

import "unicode"

// scanner walks text rune by rune. Position is an exported-in-package field
// so the parser can mark and restore it for backtracking.
type scanner struct {
	src []rune
	pos int
}

func newScanner(text string) *scanner { return &scanner{src: []rune(text)} }

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) next() rune {
	r := s.src[s.pos]
	s.pos++
	return r
}

// accept consumes r if it is the next rune.
func (s *scanner) accept(r rune) bool {
	if !s.eof() && s.peek() == r {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) slice(from, to int) string { return string(s.src[from:to]) }

func (s *scanner) skipSpaces() {
	for !s.eof() && unicode.IsSpace(s.peek()) {
		s.pos++
	}
}

// skipSeparators skips whitespace and the punctuation separating groups.
func (s *scanner) skipSeparators() {
	for !s.eof() {
		r := s.peek()
		if !unicode.IsSpace(r) && r != ',' && r != ';' {
			return
		}
		s.pos++
	}
}

// upperWord consumes a run of uppercase letters.
func (s *scanner) upperWord() string {
	start := s.pos
	for !s.eof() && unicode.IsUpper(s.peek()) {
		s.pos++
	}
	return s.slice(start, s.pos)
}

// letters consumes a run of letters regardless of case.
func (s *scanner) letters() string {
	start := s.pos
	for !s.eof() && unicode.IsLetter(s.peek()) {
		s.pos++
	}
	return s.slice(start, s.pos)
}

// number consumes a run of digits and dots. Validation is the caller's job;
// an empty return means no numeric text was present at all.
func (s *scanner) number() string {
	start := s.pos
	for !s.eof() {
		r := s.peek()
		if !unicode.IsDigit(r) && r != '.' {
			break
		}
		s.pos++
	}
	return s.slice(start, s.pos)
}

// balanced consumes text up to the parenthesis matching an already consumed
// '(' and reports whether that close was found. On EOF the text so far is
// returned with closed=false; callers decide whether the implicit close is
// tolerable at their grammar level.
func (s *scanner) balanced() (string, bool) {
	start := s.pos
	depth := 1
	for !s.eof() {
		switch s.next() {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s.slice(start, s.pos-1), true
			}
		}
	}
	return s.slice(start, s.pos), false
}

// trailing consumes text up to the next separator at parenthesis depth zero,
// leaving the separator itself unconsumed.
func (s *scanner) trailing() string {
	start := s.pos
	depth := 0
	for !s.eof() {
		r := s.peek()
		if depth == 0 && (r == ',' || r == ';') {
			break
		}
		if r == '(' {
			depth++
		}
		if r == ')' && depth > 0 {
			depth--
		}
		s.pos++
	}
	return s.slice(start, s.pos)
}

// resync advances past the next separator at parenthesis depth zero and
// returns the end position of the skipped text, separator excluded. Used to
// recover after a failed group so the remainder of the body still parses.
func (s *scanner) resync() int {
	depth := 0
	for !s.eof() {
		r := s.peek()
		if depth == 0 && (r == ',' || r == ';') {
			end := s.pos
			s.pos++
			return end
		}
		if r == '(' {
			depth++
		}
		if r == ')' && depth > 0 {
			depth--
		}
		s.pos++
	}
	return s.pos
}
