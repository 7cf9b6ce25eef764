package rewrite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Node represents a parsed template element that can be either a literal or a hole
type Node interface {
	String() string
}

// LiteralNode represents literal text in the template
type LiteralNode struct {
	Value string
}

// String returns a string representation of the LiteralNode
func (l LiteralNode) String() string {
	return fmt.Sprintf("Literal(%q)", l.Value)
}

// HoleNode references a capture group, either by position or by name.
// Name is empty for positional holes.
type HoleNode struct {
	Index int
	Name  string
}

// String returns a string representation of the HoleNode
func (h HoleNode) String() string {
	if h.Name != "" {
		return fmt.Sprintf("Hole(%q)", h.Name)
	}
	return fmt.Sprintf("Hole(%d)", h.Index)
}

// Parse converts a sequence of tokens into a slice of Nodes.
func Parse(tokens []Token) ([]Node, error) {
	var nodes []Node
	for _, token := range tokens {
		if token.Type == TokenEOF {
			break
		}
		switch token.Type {
		case TokenLiteral:
			nodes = append(nodes, LiteralNode{Value: token.Value})
		case TokenHole:
			if isDigit(token.Value[0]) {
				idx, err := strconv.Atoi(token.Value)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d col %d: bad group number %q", ErrTemplate, token.Line, token.Col, token.Value)
				}
				nodes = append(nodes, HoleNode{Index: idx})
				continue
			}
			nodes = append(nodes, HoleNode{Index: -1, Name: token.Value})
		default:
			return nil, fmt.Errorf("unexpected token type: %v", token.Type)
		}
	}
	return nodes, nil
}

// template is a replacement template whose holes are bound to the
// group indexes of one compiled pattern.
type template struct {
	nodes []Node
}

// compileTemplate lexes and parses src, then resolves every hole against re.
func compileTemplate(src string, re *regexp.Regexp) (template, error) {
	tokens, err := Lex(src)
	if err != nil {
		return template{}, err
	}
	nodes, err := Parse(tokens)
	if err != nil {
		return template{}, err
	}

	for i, n := range nodes {
		hole, ok := n.(HoleNode)
		if !ok {
			continue
		}
		if hole.Name != "" {
			idx := re.SubexpIndex(hole.Name)
			if idx < 0 {
				return template{}, fmt.Errorf("%w: unknown group name %q", ErrTemplate, hole.Name)
			}
			hole.Index = idx
			nodes[i] = hole
			continue
		}
		if hole.Index > re.NumSubexp() {
			return template{}, fmt.Errorf("%w: group %d out of range, pattern has %d groups", ErrTemplate, hole.Index, re.NumSubexp())
		}
	}

	return template{nodes: nodes}, nil
}

// expand renders the template for one match. loc holds the submatch
// offsets as returned by FindAllStringSubmatchIndex.
// Groups that did not participate in the match render as empty text.
func (t template) expand(sb *strings.Builder, subject string, loc []int) {
	for _, n := range t.nodes {
		switch v := n.(type) {
		case LiteralNode:
			sb.WriteString(v.Value)
		case HoleNode:
			start, end := loc[2*v.Index], loc[2*v.Index+1]
			if start >= 0 {
				sb.WriteString(subject[start:end])
			}
		}
	}
}
