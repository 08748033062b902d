package formula

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokString
	tokOperator
	tokCompare
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
)

type token struct {
	kind tokenKind
	text string
	pos  int
	num  float64
}

// lex splits src into tokens. The returned slice always ends with tokEOF.
func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start})
		case c == '"' || c == '\'':
			start := i
			end := strings.IndexByte(src[i+1:], c)
			if end < 0 {
				return nil, &SyntaxError{Formula: src, Pos: start, Msg: "unterminated string literal"}
			}
			i += end + 2
			tokens = append(tokens, token{kind: tokString, text: src[start+1 : i-1], pos: start})
		default:
			tok, next, err := lexPunct(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(src)}), nil
}

func lexNumber(src string, start int) (token, int, error) {
	i := start
	digits := func() {
		for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
			i++
		}
	}
	digits()
	if i < len(src) && src[i] == '.' {
		i++
		digits()
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			i = j
			digits()
		}
	}
	text := src[start:i]
	if strings.HasSuffix(text, "_") || strings.Contains(text, "__") || strings.Contains(text, "_.") || strings.Contains(text, "._") {
		return token{}, 0, &SyntaxError{Formula: src, Pos: start, Msg: "invalid numeric literal " + text}
	}
	if i < len(src) && isIdentStart(src[i]) {
		return token{}, 0, &SyntaxError{Formula: src, Pos: start, Msg: "invalid numeric literal " + src[start:i+1]}
	}
	num, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return token{}, 0, &SyntaxError{Formula: src, Pos: start, Msg: "invalid numeric literal " + text}
	}
	return token{kind: tokNumber, text: text, pos: start, num: num}, i, nil
}

func lexPunct(src string, i int) (token, int, error) {
	two := ""
	if i+1 < len(src) {
		two = src[i : i+2]
	}
	switch two {
	case "**", "//":
		return token{kind: tokOperator, text: two, pos: i}, i + 2, nil
	case "<=", ">=", "==", "!=":
		return token{kind: tokCompare, text: two, pos: i}, i + 2, nil
	}

	c := src[i]
	kinds := map[byte]tokenKind{
		'+': tokOperator, '-': tokOperator, '*': tokOperator, '/': tokOperator, '%': tokOperator,
		'<': tokCompare, '>': tokCompare,
		'(': tokLParen, ')': tokRParen, '[': tokLBracket, ']': tokRBracket,
		',': tokComma, '.': tokDot,
	}
	kind, ok := kinds[c]
	if !ok {
		return token{}, 0, &SyntaxError{Formula: src, Pos: i, Msg: "unexpected character " + strconv.QuoteRune(rune(c))}
	}
	return token{kind: kind, text: string(c), pos: i}, i + 1, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
