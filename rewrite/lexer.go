package rewrite

import (
	"fmt"
	"strings"
)

// TokenType defines the type of a template token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLiteral
	TokenHole
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLiteral:
		return "Literal"
	case TokenHole:
		return "Hole"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token of a replacement template
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// Lex performs lexical analysis on a replacement template
// and returns a sequence of tokens.
//
// A hole is written `:[ref]` where ref is either a group number
// or an identifier naming a group. Any character preceded by '\'
// is taken literally.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	var currentLiteral strings.Builder

	line, col := 1, 1
	litLine, litCol := 1, 1
	i := 0

	flushLiteral := func() {
		if currentLiteral.Len() > 0 {
			tokens = append(tokens, Token{
				Type:  TokenLiteral,
				Value: currentLiteral.String(),
				Line:  litLine,
				Col:   litCol,
			})
			currentLiteral.Reset()
		}
	}

	advance := func(c byte) {
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i++
	}

	for i < len(input) {
		c := input[i]

		if currentLiteral.Len() == 0 {
			litLine, litCol = line, col
		}

		// escape sequence (e.g., "\:")
		if c == '\\' {
			if i+1 >= len(input) {
				return nil, fmt.Errorf("%w: line %d col %d: '\\' escape is at the end of input", ErrTemplate, line, col)
			}
			advance(c)
			next := input[i]
			currentLiteral.WriteByte(next)
			advance(next)
			continue
		}

		// start of hole ":["
		if c == ':' && i+1 < len(input) && input[i+1] == '[' {
			flushLiteral()
			startLine, startCol := line, col
			advance(c)
			advance('[')

			skipSpace := func() {
				for i < len(input) && isWhitespace(input[i]) {
					advance(input[i])
				}
			}

			skipSpace()
			if i >= len(input) {
				return nil, fmt.Errorf("%w: line %d col %d: hole is not terminated", ErrTemplate, startLine, startCol)
			}

			var ref strings.Builder
			switch {
			case isDigit(input[i]):
				for i < len(input) && isDigit(input[i]) {
					ref.WriteByte(input[i])
					advance(input[i])
				}
			case isIdentifierStart(input[i]):
				for i < len(input) && isIdentifierChar(input[i]) {
					ref.WriteByte(input[i])
					advance(input[i])
				}
			default:
				return nil, fmt.Errorf("%w: line %d col %d: hole must reference a group number or name", ErrTemplate, line, col)
			}

			skipSpace()
			if i >= len(input) || input[i] != ']' {
				return nil, fmt.Errorf("%w: line %d col %d: hole termination ']' is missing", ErrTemplate, line, col)
			}
			advance(']')

			tokens = append(tokens, Token{
				Type:  TokenHole,
				Value: ref.String(),
				Line:  startLine,
				Col:   startCol,
			})
			continue
		}

		currentLiteral.WriteByte(c)
		advance(c)
	}

	flushLiteral()

	tokens = append(tokens, Token{
		Type: TokenEOF,
		Line: line,
		Col:  col,
	})

	return tokens, nil
}

// Group names in RE2 are ASCII word characters, so holes are ASCII only.
func isIdentifierStart(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isIdentifierChar(c byte) bool {
	return isIdentifierStart(c) || isDigit(c)
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
