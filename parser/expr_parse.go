package parser

import (
	"strings"

	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// Operator precedence, lowest to highest. Matches standard SQL precedence:
// OR < AND < NOT < comparison/IS/IN/LIKE/BETWEEN < additive < multiplicative.
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precComparison
	precAdditive
	precMultiplicative
	precUnary
)

func infixPrecedence(tok tokenizer.Token) int {
	if tok.Type == tokenizer.KEYWORD {
		switch strings.ToUpper(tok.Value) {
		case "OR":
			return precOr
		case "AND":
			return precAnd
		case "IS", "IN", "LIKE", "BETWEEN":
			return precComparison
		}
		return precLowest
	}
	switch tok.Type {
	case tokenizer.EQUAL, tokenizer.NOT_EQUAL, tokenizer.LESS_THAN, tokenizer.GREATER_THAN, tokenizer.LESS_EQUAL, tokenizer.GREATER_EQUAL:
		return precComparison
	case tokenizer.PLUS, tokenizer.MINUS:
		return precAdditive
	case tokenizer.MULTIPLY, tokenizer.DIVIDE:
		return precMultiplicative
	}
	return precLowest
}

// parseExpr is a standard Pratt (precedence-climbing) parser: minPrec is the
// lowest-precedence operator this call is allowed to consume.
func (p *parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.cur()
		prec := infixPrecedence(tok)
		if tok.Type == tokenizer.KEYWORD && strings.EqualFold(tok.Value, "NOT") {
			switch strings.ToUpper(p.peekAt(1).Value) {
			case "IN", "LIKE", "BETWEEN":
				// "NOT IN" / "NOT LIKE" / "NOT BETWEEN" are handled as a single
				// infix operator so the AST carries one BinaryExpr, not a NOT
				// wrapping an IN.
				prec = precComparison
			}
		}
		if prec == precLowest || prec < minPrec {
			break
		}

		op, err := p.consumeInfixOperator()
		if err != nil {
			return nil, err
		}

		switch strings.ToUpper(op) {
		case "BETWEEN", "NOT BETWEEN":
			lowHigh, err := p.parseBetweenRange(minPrec)
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: op, Left: left, Right: lowHigh}
			continue
		case "IS":
			right, err := p.parseIsPredicate()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: "IS", Left: left, Right: right}
			continue
		case "IN", "NOT IN":
			right, err := p.parseInList()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: op, Left: left, Right: right}
			continue
		}

		nextMinPrec := prec + 1
		right, err := p.parseExpr(nextMinPrec)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) consumeInfixOperator() (string, error) {
	tok := p.advance()
	if tok.Type == tokenizer.KEYWORD && strings.EqualFold(tok.Value, "NOT") {
		next := p.advance()
		return "NOT " + strings.ToUpper(next.Value), nil
	}
	if tok.Type == tokenizer.KEYWORD {
		return strings.ToUpper(tok.Value), nil
	}
	return tok.Value, nil
}

// parseBetweenRange parses "low AND high" and packages it as a BinaryExpr so
// BETWEEN's right operand is still a single Expr.
func (p *parser) parseBetweenRange(minPrec int) (Expr, error) {
	low, err := p.parseExpr(precAdditive)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AND"); err != nil {
		return nil, err
	}
	high, err := p.parseExpr(precAdditive)
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Op: "AND", Left: low, Right: high}, nil
}

func (p *parser) parseIsPredicate() (Expr, error) {
	negate := p.eatKeyword("NOT")
	if !p.eatKeyword("NULL") {
		return nil, p.errorf("expected NULL after IS [NOT]")
	}
	lit := &Literal{Kind: tokenizer.KEYWORD, Value: "NULL"}
	if negate {
		return &UnaryExpr{Op: "NOT", Operand: lit}, nil
	}
	return lit, nil
}

func (p *parser) parseInList() (Expr, error) {
	if p.cur().Type != tokenizer.OPENED_PARENS {
		return nil, p.errorf("expected ( after IN")
	}
	p.advance()
	if p.isKeyword("SELECT") {
		inner, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if p.cur().Type != tokenizer.CLOSED_PARENS {
			return nil, p.errorf("expected ) to close IN subquery")
		}
		p.advance()
		return &ScalarSubquery{Query: inner}, nil
	}

	var items []Expr
	for p.cur().Type != tokenizer.CLOSED_PARENS {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
		if p.cur().Type == tokenizer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if p.cur().Type != tokenizer.CLOSED_PARENS {
		return nil, p.errorf("expected ) to close IN list")
	}
	p.advance()
	return &FunctionCall{Name: "__in_list", Args: items}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	tok := p.cur()
	if tok.Type == tokenizer.MINUS || tok.Type == tokenizer.PLUS || (tok.Type == tokenizer.KEYWORD && strings.EqualFold(tok.Value, "NOT")) {
		p.advance()
		prec := precUnary
		if tok.Type == tokenizer.KEYWORD {
			prec = precNot
		}
		operand, err := p.parseExpr(prec)
		if err != nil {
			return nil, err
		}
		op := tok.Value
		if tok.Type == tokenizer.KEYWORD {
			op = "NOT"
		}
		return &UnaryExpr{exprBase: exprBase{pos: tok.Position}, Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case tokenizer.NUMBER, tokenizer.STRING:
		p.advance()
		return &Literal{exprBase: exprBase{pos: tok.Position}, Kind: tok.Type, Value: tok.Value}, nil
	case tokenizer.KEYWORD:
		switch strings.ToUpper(tok.Value) {
		case "NULL", "TRUE", "FALSE":
			p.advance()
			return &Literal{exprBase: exprBase{pos: tok.Position}, Kind: tokenizer.KEYWORD, Value: strings.ToUpper(tok.Value)}, nil
		case "CASE":
			return p.parseCase()
		case "EXISTS":
			p.advance()
			if p.cur().Type != tokenizer.OPENED_PARENS {
				return nil, p.errorf("expected ( after EXISTS")
			}
			p.advance()
			inner, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if p.cur().Type != tokenizer.CLOSED_PARENS {
				return nil, p.errorf("expected ) to close EXISTS subquery")
			}
			p.advance()
			return &FunctionCall{exprBase: exprBase{pos: tok.Position}, Name: "EXISTS", Args: []Expr{&ScalarSubquery{Query: inner}}}, nil
		}
		return nil, p.errorf("unexpected keyword %q in expression", tok.Value)
	case tokenizer.OPENED_PARENS:
		p.advance()
		if p.isKeyword("SELECT") {
			inner, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if p.cur().Type != tokenizer.CLOSED_PARENS {
				return nil, p.errorf("expected ) to close scalar subquery")
			}
			p.advance()
			return &ScalarSubquery{exprBase: exprBase{pos: tok.Position}, Query: inner}, nil
		}
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.cur().Type != tokenizer.CLOSED_PARENS {
			return nil, p.errorf("expected )")
		}
		p.advance()
		return inner, nil
	case tokenizer.IDENTIFIER:
		return p.parseIdentifierExpr()
	}
	return nil, p.errorf("unexpected token in expression")
}

func (p *parser) parseIdentifierExpr() (Expr, error) {
	tok := p.advance()
	name := tok.Value

	// TRUE/FALSE are not in the tokenizer's reserved-keyword switch, so they
	// arrive here as plain identifiers; fold them into literals by name.
	switch strings.ToUpper(name) {
	case "TRUE", "FALSE":
		if p.cur().Type != tokenizer.OPENED_PARENS && p.cur().Type != tokenizer.DOT {
			return &Literal{exprBase: exprBase{pos: tok.Position}, Kind: tokenizer.KEYWORD, Value: strings.ToUpper(name)}, nil
		}
	}

	if p.cur().Type == tokenizer.OPENED_PARENS {
		return p.parseFunctionCall(tok.Position, name)
	}

	if p.cur().Type == tokenizer.DOT {
		p.advance()
		next := p.advance()
		if next.Type == tokenizer.MULTIPLY {
			return &Star{exprBase: exprBase{pos: tok.Position}, Table: name}, nil
		}
		col := &ColumnRef{exprBase: exprBase{pos: tok.Position}, Table: name, Column: next.Value}
		return col, nil
	}
	return &ColumnRef{exprBase: exprBase{pos: tok.Position}, Column: name}, nil
}

func (p *parser) parseFunctionCall(pos tokenizer.Position, name string) (Expr, error) {
	p.advance() // (
	call := &FunctionCall{exprBase: exprBase{pos: pos}, Name: name}

	if p.cur().Type == tokenizer.MULTIPLY && strings.EqualFold(name, "COUNT") {
		p.advance()
		call.Args = []Expr{&Star{}}
	} else {
		call.Distinct = p.eatKeyword("DISTINCT")
		for p.cur().Type != tokenizer.CLOSED_PARENS {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, e)
			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().Type != tokenizer.CLOSED_PARENS {
		return nil, p.errorf("expected ) to close call to %s", name)
	}
	p.advance()

	if p.eatKeyword("OVER") {
		spec, err := p.parseWindowSpec()
		if err != nil {
			return nil, err
		}
		call.Over = spec
	}
	return call, nil
}

func (p *parser) parseWindowSpec() (*WindowSpec, error) {
	if p.cur().Type != tokenizer.OPENED_PARENS {
		return nil, p.errorf("expected ( after OVER")
	}
	p.advance()
	spec := &WindowSpec{}
	if p.eatKeyword("PARTITION") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(precAdditive)
			if err != nil {
				return nil, err
			}
			spec.PartitionBy = append(spec.PartitionBy, e)
			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if p.eatKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(precAdditive)
			if err != nil {
				return nil, err
			}
			item := OrderItem{Expr: e}
			if p.eatKeyword("DESC") {
				item.Desc = true
			} else {
				p.eatKeyword("ASC")
			}
			spec.OrderBy = append(spec.OrderBy, item)
			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	// Frame clauses (ROWS/RANGE BETWEEN ...) are lexically skipped: the
	// planner does not need frame bounds to type a window function's result.
	for p.cur().Type != tokenizer.CLOSED_PARENS && !p.atEOF() {
		p.advance()
	}
	if p.cur().Type != tokenizer.CLOSED_PARENS {
		return nil, p.errorf("expected ) to close OVER(...)")
	}
	p.advance()
	return spec, nil
}

func (p *parser) parseCase() (Expr, error) {
	pos := p.cur().Position
	p.advance() // CASE
	ce := &CaseExpr{exprBase: exprBase{pos: pos}}
	if !p.isKeyword("WHEN") {
		operand, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		ce.Operand = operand
	}
	for p.eatKeyword("WHEN") {
		cond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, WhenClause{Condition: cond, Result: result})
	}
	if p.eatKeyword("ELSE") {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		ce.Else = e
	}
	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return ce, nil
}
