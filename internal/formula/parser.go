package formula

import (
	"math"
	"regexp"
	"strings"
)

const legacyCategoryPrefix = "category_total:"

var categoryNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// keywordKinds maps reserved words to the construct they introduce.
var keywordKinds = map[string]string{
	"True":   "boolean literal",
	"False":  "boolean literal",
	"true":   "boolean literal",
	"false":  "boolean literal",
	"None":   "null literal",
	"null":   "null literal",
	"and":    "boolean operator",
	"or":     "boolean operator",
	"not":    "boolean operator",
	"if":     "conditional expression",
	"else":   "conditional expression",
	"lambda": "lambda",
	"in":     "comparison",
	"is":     "comparison",
}

type node interface {
	eval(e *evaluator) (float64, error)
}

type numberLit struct {
	value float64
}

type ref struct {
	name   string
	offset int
}

type unaryExpr struct {
	op string
	x  node
}

type binaryExpr struct {
	op   string
	x, y node
}

type categoryTotal struct {
	category string
}

// Formula is a parsed formula. It is immutable and safe for concurrent use.
type Formula struct {
	src  string
	root node
}

// String returns the source text the formula was parsed from.
func (f *Formula) String() string {
	return f.src
}

// Parse parses src into a Formula.
func Parse(src string) (*Formula, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, &SyntaxError{Formula: src, Pos: 0, Msg: "empty formula"}
	}

	if strings.HasPrefix(trimmed, legacyCategoryPrefix) {
		category := strings.TrimSpace(strings.TrimPrefix(trimmed, legacyCategoryPrefix))
		if !categoryNamePattern.MatchString(category) {
			return nil, &SyntaxError{Formula: src, Pos: len(legacyCategoryPrefix), Msg: "invalid category name in category_total:" + category}
		}
		return &Formula{src: src, root: &categoryTotal{category: category}}, nil
	}

	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.unexpected(tok)
	}
	return &Formula{src: src, root: root}, nil
}

type parser struct {
	src    string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) syntaxErr(pos int, msg string) error {
	return &SyntaxError{Formula: p.src, Pos: pos, Msg: msg}
}

func (p *parser) unsupported(pos int, kind string) error {
	return &UnsupportedError{Formula: p.src, Pos: pos, Kind: kind}
}

// unexpected classifies a token that cannot continue the expression.
func (p *parser) unexpected(tok token) error {
	switch tok.kind {
	case tokEOF:
		return p.syntaxErr(tok.pos, "unexpected end of formula")
	case tokCompare:
		return p.unsupported(tok.pos, "comparison")
	case tokIdent:
		if kind, ok := keywordKinds[tok.text]; ok {
			return p.unsupported(tok.pos, kind)
		}
	case tokDot:
		return p.unsupported(tok.pos, "attribute access")
	case tokLParen:
		return p.unsupported(tok.pos, "call")
	case tokLBracket:
		return p.unsupported(tok.pos, "subscript")
	}
	return p.syntaxErr(tok.pos, "unexpected "+describe(tok))
}

func describe(tok token) string {
	switch tok.kind {
	case tokNumber:
		return "number " + tok.text
	case tokIdent:
		return "name " + tok.text
	case tokString:
		return "string literal"
	default:
		return "token " + tok.text
	}
}

func (p *parser) parseExpr() (node, error) {
	x, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind == tokCompare {
		return nil, p.unsupported(tok.pos, "comparison")
	}
	return x, nil
}

func (p *parser) parseAdditive() (node, error) {
	x, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokOperator || (tok.text != "+" && tok.text != "-") {
			return x, nil
		}
		p.next()
		y, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		x = &binaryExpr{op: tok.text, x: x, y: y}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokOperator {
			return x, nil
		}
		switch tok.text {
		case "*", "/", "//", "%":
		default:
			return x, nil
		}
		p.next()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &binaryExpr{op: tok.text, x: x, y: y}
	}
}

func (p *parser) parseUnary() (node, error) {
	tok := p.peek()
	if tok.kind == tokOperator && (tok.text == "+" || tok.text == "-") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: tok.text, x: x}, nil
	}
	if tok.kind == tokIdent && tok.text == "not" {
		return nil, p.unsupported(tok.pos, "boolean operator")
	}
	return p.parsePower()
}

// parsePower binds tighter than a unary operator on its left and is right
// associative, so -2**2 is -4 and 2**-1 is 0.5.
func (p *parser) parsePower() (node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind == tokOperator && tok.text == "**" {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &binaryExpr{op: "**", x: base, y: exp}, nil
	}
	return base, nil
}

func (p *parser) parseAtom() (node, error) {
	tok := p.next()
	var x node
	switch tok.kind {
	case tokNumber:
		x = &numberLit{value: tok.num}
	case tokString:
		return nil, p.unsupported(tok.pos, "string literal")
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			if closing.kind == tokEOF {
				return nil, p.syntaxErr(closing.pos, "missing closing parenthesis")
			}
			return nil, p.unexpected(closing)
		}
		x = inner
	case tokIdent:
		if kind, ok := keywordKinds[tok.text]; ok {
			return nil, p.unsupported(tok.pos, kind)
		}
		var err error
		x, err = p.parseName(tok)
		if err != nil {
			return nil, err
		}
	default:
		return nil, p.unexpected(tok)
	}

	// Anything postfix that parseName did not consume is unsupported.
	switch next := p.peek(); next.kind {
	case tokLParen:
		return nil, p.unsupported(next.pos, "call")
	case tokLBracket:
		return nil, p.unsupported(next.pos, "subscript")
	case tokDot:
		return nil, p.unsupported(next.pos, "attribute access")
	}
	return x, nil
}

func (p *parser) parseName(name token) (node, error) {
	switch next := p.peek(); next.kind {
	case tokLParen:
		if name.text != "category_total" {
			return nil, p.unsupported(name.pos, "call")
		}
		return p.parseCategoryTotal()
	case tokLBracket:
		p.next()
		return p.parseOffset(name)
	case tokDot:
		return nil, p.unsupported(next.pos, "attribute access")
	}
	return &ref{name: name.text}, nil
}

func (p *parser) parseCategoryTotal() (node, error) {
	open := p.next()
	arg := p.next()
	if arg.kind != tokString {
		if arg.kind == tokRParen {
			return nil, p.syntaxErr(arg.pos, "category_total expects exactly one argument")
		}
		return nil, p.syntaxErr(arg.pos, "category_total expects a quoted category name")
	}
	closing := p.next()
	if closing.kind == tokComma {
		return nil, p.syntaxErr(closing.pos, "category_total expects exactly one argument")
	}
	if closing.kind != tokRParen {
		return nil, p.syntaxErr(open.pos, "missing closing parenthesis in category_total")
	}
	if !categoryNamePattern.MatchString(arg.text) {
		return nil, p.syntaxErr(arg.pos, "invalid category name "+arg.text)
	}
	return &categoryTotal{category: arg.text}, nil
}

// parseOffset parses the `[-k]` suffix after name; the opening bracket has
// been consumed.
func (p *parser) parseOffset(name token) (node, error) {
	sign := p.next()
	if sign.kind == tokNumber {
		return nil, p.syntaxErr(sign.pos, "year offset for "+name.text+" must be negative, e.g. "+name.text+"[-1]")
	}
	if sign.kind != tokOperator || sign.text != "-" {
		return nil, p.unsupported(sign.pos, "subscript")
	}
	k := p.next()
	if k.kind != tokNumber {
		return nil, p.unsupported(k.pos, "subscript")
	}
	if k.num != math.Trunc(k.num) || strings.ContainsAny(k.text, ".eE") {
		return nil, p.syntaxErr(k.pos, "year offset must be an integer")
	}
	if k.num > math.MaxInt32 {
		return nil, p.syntaxErr(k.pos, "year offset "+k.text+" is out of range")
	}
	if k.num == 0 {
		return nil, p.syntaxErr(k.pos, "year offset for "+name.text+" must be negative, e.g. "+name.text+"[-1]")
	}
	if closing := p.next(); closing.kind != tokRBracket {
		return nil, p.syntaxErr(closing.pos, "missing closing bracket")
	}
	return &ref{name: name.text, offset: -int(k.num)}, nil
}
