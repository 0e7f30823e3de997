package template

import "strings"

// Parse lexes and parses a model's raw SQL body into a Template ready for
// Render. Expression bodies ({{ ... }}) and statement bodies ({% ... %})
// are parsed eagerly so a malformed template fails at load time rather
// than mid-render.
func Parse(src string) (*Template, error) {
	tags, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &tplParser{tags: tags}

	nodes, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}

	if p.pos != len(p.tags) {
		return nil, &ParseError{Pos: p.tags[p.pos].pos, Msg: "unexpected block terminator"}
	}

	return &Template{Nodes: nodes}, nil
}

type tplParser struct {
	tags []rawTag
	pos  int
}

// parseNodes consumes nodes until EOF or until a stmt tag whose first
// word is one of stopWords (used to let a caller that opened a block
// recognize its own elif/else/endif/endfor/endmacro terminator without
// consuming it).
func (p *tplParser) parseNodes(stopWords []string) ([]Node, error) {
	var nodes []Node

	for p.pos < len(p.tags) {
		tag := p.tags[p.pos]

		if tag.kind == tagStmt && matchesAny(firstWord(tag.text), stopWords) {
			return nodes, nil
		}

		switch tag.kind {
		case tagText:
			p.pos++

			nodes = append(nodes, TextNode{Text: tag.text})
		case tagExpr:
			p.pos++

			expr, err := parseExprSrc(tag.text, tag.pos.Line, tag.pos.Column)
			if err != nil {
				return nil, err
			}

			nodes = append(nodes, ExprNode{Expr: expr, Pos: tag.pos})
		case tagStmt:
			node, err := p.parseStmt(tag)
			if err != nil {
				return nil, err
			}

			nodes = append(nodes, node)
		}
	}

	return nodes, nil
}

func (p *tplParser) parseStmt(tag rawTag) (Node, error) {
	word := firstWord(tag.text)
	rest := strings.TrimSpace(strings.TrimPrefix(tag.text, word))

	switch word {
	case "if":
		return p.parseIf(tag, rest)
	case "for":
		return p.parseFor(tag, rest)
	case "macro":
		return p.parseMacro(tag, rest)
	default:
		return nil, &ParseError{Pos: tag.pos, Msg: "unexpected tag {% " + word + " %}"}
	}
}

func (p *tplParser) parseIf(tag rawTag, cond string) (Node, error) {
	p.pos++ // consume `if`

	var node IfNode
	node.Pos = tag.pos

	condExpr, err := parseExprSrc(cond, tag.pos.Line, tag.pos.Column)
	if err != nil {
		return nil, err
	}

	body, err := p.parseNodes([]string{"elif", "else", "endif"})
	if err != nil {
		return nil, err
	}

	node.Branches = append(node.Branches, IfBranch{Cond: condExpr, Body: body})

	for {
		term := p.tags[p.pos]
		word := firstWord(term.text)

		switch word {
		case "elif":
			rest := strings.TrimSpace(strings.TrimPrefix(term.text, word))
			p.pos++

			condExpr, err := parseExprSrc(rest, term.pos.Line, term.pos.Column)
			if err != nil {
				return nil, err
			}

			body, err := p.parseNodes([]string{"elif", "else", "endif"})
			if err != nil {
				return nil, err
			}

			node.Branches = append(node.Branches, IfBranch{Cond: condExpr, Body: body})
		case "else":
			p.pos++

			body, err := p.parseNodes([]string{"endif"})
			if err != nil {
				return nil, err
			}

			node.Else = body
		case "endif":
			p.pos++

			return node, nil
		default:
			return nil, &ParseError{Pos: term.pos, Msg: "expected {% endif %}"}
		}
	}
}

func (p *tplParser) parseFor(tag rawTag, clause string) (Node, error) {
	p.pos++ // consume `for`

	varName, iterSrc, ok := strings.Cut(clause, " in ")
	if !ok {
		return nil, &ParseError{Pos: tag.pos, Msg: "expected `for x in expr`"}
	}

	varName = strings.TrimSpace(varName)

	iterExpr, err := parseExprSrc(strings.TrimSpace(iterSrc), tag.pos.Line, tag.pos.Column)
	if err != nil {
		return nil, err
	}

	body, err := p.parseNodes([]string{"endfor"})
	if err != nil {
		return nil, err
	}

	if p.pos >= len(p.tags) || firstWord(p.tags[p.pos].text) != "endfor" {
		return nil, &ParseError{Pos: tag.pos, Msg: "expected {% endfor %}"}
	}

	p.pos++

	return ForNode{Var: varName, Iterable: iterExpr, Body: body, Pos: tag.pos}, nil
}

func (p *tplParser) parseMacro(tag rawTag, sig string) (Node, error) {
	p.pos++ // consume `macro`

	name, params, err := parseMacroSignature(sig)
	if err != nil {
		return nil, &ParseError{Pos: tag.pos, Msg: err.Error()}
	}

	body, err := p.parseNodes([]string{"endmacro"})
	if err != nil {
		return nil, err
	}

	if p.pos >= len(p.tags) || firstWord(p.tags[p.pos].text) != "endmacro" {
		return nil, &ParseError{Pos: tag.pos, Msg: "expected {% endmacro %}"}
	}

	p.pos++

	return MacroDef{Name: name, Params: params, Body: body, Pos: tag.pos}, nil
}

func parseMacroSignature(sig string) (string, []string, error) {
	open := strings.Index(sig, "(")
	close := strings.LastIndex(sig, ")")

	if open < 0 || close < open {
		return strings.TrimSpace(sig), nil, nil
	}

	name := strings.TrimSpace(sig[:open])

	var params []string

	for _, p := range strings.Split(sig[open+1:close], ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			params = append(params, p)
		}
	}

	return name, params, nil
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return s[:i]
	}

	return s
}

func matchesAny(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}

	return false
}
