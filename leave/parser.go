/*
parser.go - Recursive-descent parser for leave-details text

PURPOSE:
  Extracts leave clauses from one employee's free-text leave field. The text
  comes from an upstream HR system and is noisy: stray punctuation, prose
  between clauses, unterminated parentheses. The parser recovers at each
  grammar level instead of rejecting the row.

GRAMMAR:
  details   := { clause | <any rune> }
  clause    := TYPE ws NUM ws "days" ws "(" body [")"]
  body      := { group | sep } until the balancing ")" or end of text
  group     := DATE ws "-" ws DATE [ws authority] [trailing]
  authority := "(" balanced ")" [ws trailing]
  sep       := "," | ";" | whitespace

  TYPE = two or more uppercase letters, NUM = digits and dots,
  DATE = date characters followed by a session marker (see halfday.TokenFormat).

RECOVERY POLICY:
  - clause level: an uppercase word that does not open a clause is skipped;
    a miss is recorded only when a numeric token followed the word (a real
    candidate), so prose capitals stay silent.
  - group level: a failed group is skipped up to the next separator outside
    parentheses; the remaining groups in the body still parse.
  - token level: a date token that fails calendar validation fails its group.
  An authority parenthesis opened but never closed fails its group; a clause
  body that reaches end of text without its balancing parenthesis is closed
  implicitly.

SEE ALSO:
  - scanner.go: the rune-level primitives
  - engine.go: decodes, splits and assembles the parsed clauses
*/
package leave

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/halfday"
)

const daysKeyword = "days"

type parser struct {
	format    halfday.TokenFormat
	markers   [2]string // longest first
	dateRunes map[rune]bool
	misses    []Miss
}

// ParseDetails extracts every clause from text. Absent or empty text yields
// no clauses and no misses; the misses it does return reduce the row's
// output without failing it. Most callers want Engine.ProcessRow, which
// also decodes, splits and assembles segments.
func ParseDetails(text string, format halfday.TokenFormat) ([]Clause, []Miss) {
	p := &parser{format: format, dateRunes: dateRuneSet(format.DateLayout)}
	p.markers = [2]string{format.Forenoon, format.Afternoon}
	if len(p.markers[1]) > len(p.markers[0]) {
		p.markers[0], p.markers[1] = p.markers[1], p.markers[0]
	}

	var clauses []Clause
	s := newScanner(text)
	for !s.eof() {
		if !unicode.IsUpper(s.peek()) {
			s.pos++
			continue
		}
		start := s.pos
		if cl, ok := p.clause(s); ok {
			clauses = append(clauses, cl)
			continue
		}
		// Not a clause here: rescan from the word boundary and move past it.
		s.pos = start
		s.upperWord()
	}
	return clauses, p.misses
}

// dateRuneSet collects the non-letter punctuation a date under this layout
// can contain. Digits are always date runes.
func dateRuneSet(layout string) map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range layout {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			set[r] = true
		}
	}
	return set
}

func (p *parser) isDateRune(r rune) bool { return unicode.IsDigit(r) || p.dateRunes[r] }

func (p *parser) miss(stage MissStage, input string, err error) {
	p.misses = append(p.misses, Miss{Stage: stage, Input: strings.TrimSpace(input), Err: err})
}

// clause parses one clause at the current position. On failure the scanner
// may be mid-clause; the caller restores position and skips the word.
func (p *parser) clause(s *scanner) (Clause, bool) {
	start := s.pos
	typ := s.upperWord()
	if len(typ) < 2 {
		return Clause{}, false // single capitals are prose, not type codes
	}
	s.skipSpaces()
	numText := s.number()
	if numText == "" {
		return Clause{}, false // no claimed count: not a clause head
	}
	claimed, err := decimal.NewFromString(numText)
	if err != nil {
		p.miss(MissClause, s.slice(start, s.pos),
			fmt.Errorf("%w: claimed days %q is not numeric", ErrUnparsableClause, numText))
		return Clause{}, false
	}
	s.skipSpaces()
	if kw := s.letters(); kw != daysKeyword {
		p.miss(MissClause, s.slice(start, s.pos),
			fmt.Errorf("%w: expected %q after the day count, found %q", ErrUnparsableClause, daysKeyword, kw))
		return Clause{}, false
	}
	s.skipSpaces()
	if !s.accept('(') {
		p.miss(MissClause, s.slice(start, s.pos),
			fmt.Errorf("%w: expected '(' opening the date list", ErrUnparsableClause))
		return Clause{}, false
	}

	body, _ := s.balanced() // end of text closes the body implicitly
	return Clause{Type: typ, ClaimedDays: claimed, Groups: p.groups(body)}, true
}

// groups parses every date-range group in a clause body, resyncing past
// failed ones.
func (p *parser) groups(body string) []Group {
	var groups []Group
	s := newScanner(body)
	for {
		s.skipSeparators()
		if s.eof() {
			return groups
		}
		start := s.pos
		g, err := p.group(s)
		if err != nil {
			s.pos = start
			end := s.resync()
			p.miss(MissGroup, s.slice(start, end), err)
			continue
		}
		groups = append(groups, g)
	}
}

// group parses one `DATE-DATE (authority)` unit.
func (p *parser) group(s *scanner) (Group, error) {
	from, err := p.dateToken(s)
	if err != nil {
		return Group{}, err
	}
	s.skipSpaces()
	if !s.accept('-') {
		return Group{}, fmt.Errorf("%w: expected '-' between date tokens", ErrUnparsableGroup)
	}
	s.skipSpaces()
	to, err := p.dateToken(s)
	if err != nil {
		return Group{}, err
	}

	g := Group{From: from, To: to}
	s.skipSpaces()
	if s.accept('(') {
		inner, closed := s.balanced()
		if !closed {
			return Group{}, fmt.Errorf("%w: unterminated authority parenthesis", ErrUnparsableGroup)
		}
		s.skipSpaces()
		if name := strings.TrimSpace(s.trailing()); name != "" {
			g.Authority = "(" + inner + ") " + name
		} else {
			g.Authority = "(" + inner + ")"
		}
	} else {
		// Free text after the range belongs to this group; tolerated, ignored.
		s.trailing()
	}
	return g, nil
}

// dateToken scans a date-character run, requires a session marker right
// after it, and decodes the combined token.
func (p *parser) dateToken(s *scanner) (halfday.Value, error) {
	start := s.pos
	for !s.eof() && p.isDateRune(s.peek()) {
		s.pos++
	}
	if s.pos == start {
		return 0, fmt.Errorf("%w: expected a date token", ErrUnparsableGroup)
	}
	rest := string(s.src[s.pos:])
	for _, m := range p.markers {
		if m != "" && strings.HasPrefix(rest, m) {
			s.pos += len([]rune(m))
			v, err := p.format.Parse(s.slice(start, s.pos))
			if err != nil {
				return 0, fmt.Errorf("%w: %w", ErrUnparsableGroup, err)
			}
			return v, nil
		}
	}
	s.pos = start
	return 0, fmt.Errorf("%w: date token without a session marker", ErrUnparsableGroup)
}
