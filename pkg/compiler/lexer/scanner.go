package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnexpectedChar     = errors.New("lexer: unexpected character")
	ErrUnterminatedString = errors.New("lexer: unterminated string")
	ErrBadEscape          = errors.New("lexer: invalid escape sequence")
)

// Error reports where scanning halted. The token stream produced up to
// that point is still returned alongside it.
type Error struct {
	Line int
	Char rune
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %v %q", e.Line, e.Err, e.Char)
}

func (e *Error) Unwrap() error { return e.Err }

// operators is the prefix table. Longer entries win over shorter ones
// sharing a prefix.
var operators = map[string]Kind{
	"=":  KindAssign,
	"==": KindEq,
	"!=": KindNotEq,
	"<>": KindNotEq,
	":":  KindColon,
	",":  KindComma,
	".":  KindDot,
	"+":  KindPlus,
	"-":  KindMinus,
	"*":  KindStar,
	"**": KindPower,
	"/":  KindSlash,
	"%":  KindPercent,
	"<":  KindLess,
	"<=": KindLessEq,
	"<<": KindShiftLeft,
	">":  KindGreater,
	">=": KindGreaterEq,
	">>": KindShiftRight,
	"&":  KindBitAnd,
	"|":  KindBitOr,
	"^":  KindBitXor,
	"(":  KindLParen,
	")":  KindRParen,
	"[":  KindLBracket,
	"]":  KindRBracket,
	"{":  KindLBrace,
	"}":  KindRBrace,
}

const maxOperatorLen = 2

// Scanner performs lexical analysis on script source.
type Scanner struct {
	source  string
	cursor  int
	line    int
	started bool
	done    bool
	pending []Token
	err     error
}

// NewScanner creates a new scanner for the given source.
func NewScanner(source string) *Scanner {
	return &Scanner{
		source: source,
		line:   1,
	}
}

// Reset re-initializes the scanner with new source.
func (s *Scanner) Reset(source string) {
	s.source = source
	s.cursor = 0
	s.line = 1
	s.started = false
	s.done = false
	s.pending = s.pending[:0]
	s.err = nil
}

// Err returns the reason scanning halted early, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Tokenize converts source text into a flat token stream that always ends
// with an end-of-statement marker. When an unrecognized character is met the
// stream is cut there and a *Error is returned with it.
func Tokenize(source string) ([]Token, error) {
	s := NewScanner(source)
	tokens := make([]Token, 0, len(source)/3+2)
	for {
		tok, ok := s.Next()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, s.Err()
}

// Next returns the next token. The boolean is false once the terminal
// end-of-statement marker has already been delivered.
func (s *Scanner) Next() (Token, bool) {
	if !s.started {
		s.started = true
		return s.scanIndent(), true
	}
	if len(s.pending) > 0 {
		tok := s.pending[0]
		s.pending = s.pending[1:]
		return tok, true
	}
	if s.done {
		return Token{}, false
	}

	s.skipWhitespace()
	if s.cursor >= len(s.source) {
		return s.finish(), true
	}

	ch := s.source[s.cursor]

	if tok, ok := s.scanOperator(); ok {
		return tok, true
	}
	if isDigit(ch) {
		return s.scanNumber(), true
	}
	if isAlpha(ch) {
		return s.scanIdentifier(), true
	}
	if ch == '"' || ch == '\'' {
		tok, err := s.scanString()
		if err != nil {
			s.err = err
			return s.finish(), true
		}
		return tok, true
	}
	if ch == '\n' {
		s.cursor++
		s.line++
		eos := Token{Kind: KindEOS, Line: s.line - 1}
		s.pending = append(s.pending, s.scanIndent())
		return eos, true
	}

	s.err = &Error{Line: s.line, Char: rune(ch), Err: ErrUnexpectedChar}
	return s.finish(), true
}

func (s *Scanner) finish() Token {
	s.done = true
	return Token{Kind: KindEOS, Line: s.line}
}

// scanIndent counts indentation units at the cursor: a tab or a run of four
// spaces is one unit.
func (s *Scanner) scanIndent() Token {
	units, spaces := 0, 0
	for s.cursor < len(s.source) {
		switch s.source[s.cursor] {
		case '\t':
			units++
			spaces = 0
		case ' ':
			spaces++
			if spaces == 4 {
				units++
				spaces = 0
			}
		default:
			return Token{Kind: KindIndent, Value: strconv.Itoa(units), Line: s.line}
		}
		s.cursor++
	}
	return Token{Kind: KindIndent, Value: strconv.Itoa(units), Line: s.line}
}

func (s *Scanner) skipWhitespace() {
	for s.cursor < len(s.source) {
		switch s.source[s.cursor] {
		case ' ', '\t', '\r':
			s.cursor++
		case '#':
			for s.cursor < len(s.source) && s.source[s.cursor] != '\n' {
				s.cursor++
			}
		default:
			return
		}
	}
}

func (s *Scanner) scanOperator() (Token, bool) {
	for n := maxOperatorLen; n > 0; n-- {
		if s.cursor+n > len(s.source) {
			continue
		}
		if kind, ok := operators[s.source[s.cursor:s.cursor+n]]; ok {
			s.cursor += n
			return Token{Kind: kind, Line: s.line}, true
		}
	}
	return Token{}, false
}

func (s *Scanner) scanNumber() Token {
	start := s.cursor
	seenPoint := false
	for s.cursor < len(s.source) {
		ch := s.source[s.cursor]
		if ch == '.' && !seenPoint {
			seenPoint = true
		} else if !isDigit(ch) {
			break
		}
		s.cursor++
	}
	return Token{Kind: KindNumber, Value: s.source[start:s.cursor], Line: s.line}
}

func (s *Scanner) scanIdentifier() Token {
	start := s.cursor
	for s.cursor < len(s.source) && (isAlpha(s.source[s.cursor]) || isDigit(s.source[s.cursor])) {
		s.cursor++
	}

	literal := s.source[start:s.cursor]
	if kind, ok := keywords[strings.ToLower(literal)]; ok {
		return Token{Kind: kind, Value: literal, Line: s.line}
	}
	return Token{Kind: KindName, Value: literal, Line: s.line}
}

// scanString re-emits the literal as a double-quoted Go string and decodes
// it, so escapes behave the same for both quote styles.
func (s *Scanner) scanString() (Token, error) {
	quote := s.source[s.cursor]
	line := s.line
	s.cursor++ // opening quote

	var b strings.Builder
	b.WriteByte('"')
	for {
		if s.cursor >= len(s.source) {
			return Token{}, &Error{Line: line, Char: rune(quote), Err: ErrUnterminatedString}
		}
		ch := s.source[s.cursor]
		switch {
		case ch == '\\':
			if s.cursor+1 >= len(s.source) {
				return Token{}, &Error{Line: line, Char: rune(quote), Err: ErrUnterminatedString}
			}
			next := s.source[s.cursor+1]
			switch next {
			case '\'':
				b.WriteByte('\'')
			case '\n':
				// line continuation inside a literal
				s.line++
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			s.cursor += 2
			continue
		case ch == quote:
			s.cursor++
			b.WriteByte('"')
			text, err := strconv.Unquote(b.String())
			if err != nil {
				return Token{}, &Error{Line: line, Char: rune(quote), Err: ErrBadEscape}
			}
			return Token{Kind: KindString, Value: text, Line: line}, nil
		case ch == '"':
			b.WriteString(`\"`)
		case ch == '\n':
			b.WriteString(`\n`)
			s.line++
		default:
			b.WriteByte(ch)
		}
		s.cursor++
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}
