package parser

import (
	"fmt"
	"strings"

	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// Statement is the result of parsing a rendered SQL body: the first
// statement's AST, plus the raw leading keyword of a statement found after
// it (so the caller can still surface S003 for "SELECT 1; DROP TABLE x").
type Statement struct {
	Select       *SelectStatement
	Kind         string // uppercased leading token of the first statement, e.g. "SELECT", "DROP"
	TrailingKind string // non-empty => more statements followed; holds the first disallowed leading keyword among them, else the second statement's
}

// Parse converts a dialect-rendered SQL string into a Statement. It never
// inspects semantics (dependency names, schema shape); it only builds the
// syntax tree. Disallowed constructs (CTEs, derived tables, non-SELECT
// statements) are still parsed where syntactically possible and left for
// Validate to reject with the appropriate S0xx code, mirroring how real SQL
// front ends separate parsing from semantic/structural checks.
func Parse(sql string, dialect tokenizer.SqlDialect) (*Statement, error) {
	tz := tokenizer.NewSqlTokenizer(sql, dialect)
	all, err := tz.AllTokens()
	if err != nil {
		return nil, err
	}

	toks := significant(all)
	if len(toks) == 0 {
		return nil, ErrEmptyStatement
	}

	p := &parser{toks: toks}

	stmts := p.splitStatements()
	if len(stmts) == 0 {
		return nil, ErrEmptyStatement
	}

	first := &parser{toks: stmts[0]}
	kind := strings.ToUpper(stmts[0][0].Value)
	sel, err := first.parseTopLevel()
	if err != nil {
		return nil, err
	}

	result := &Statement{Select: sel, Kind: kind}
	for i, s := range stmts[1:] {
		if len(s) == 0 {
			continue
		}
		k := strings.ToUpper(s[0].Value)
		if i == 0 || (disallowedLeadingKeywords[k] && !disallowedLeadingKeywords[result.TrailingKind]) {
			result.TrailingKind = k
		}
	}
	return result, nil
}

// significant drops whitespace and comments: they carry no AST meaning once
// template rendering has already happened upstream.
func significant(toks []tokenizer.Token) []tokenizer.Token {
	out := make([]tokenizer.Token, 0, len(toks))
	for _, t := range toks {
		switch t.Type {
		case tokenizer.WHITESPACE, tokenizer.LINE_COMMENT, tokenizer.BLOCK_COMMENT, tokenizer.EOF:
			continue
		}
		out = append(out, t)
	}
	return out
}

type parser struct {
	toks []tokenizer.Token
	pos  int
}

func (p *parser) cur() tokenizer.Token {
	if p.pos >= len(p.toks) {
		return tokenizer.Token{Type: tokenizer.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) tokenizer.Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return tokenizer.Token{Type: tokenizer.EOF}
	}
	return p.toks[i]
}

func (p *parser) advance() tokenizer.Token {
	t := p.cur()
	p.pos++
	return t
}

func (p *parser) atEOF() bool { return p.pos >= len(p.toks) }

func (p *parser) isKeyword(word string) bool {
	t := p.cur()
	return t.Type == tokenizer.KEYWORD && strings.EqualFold(t.Value, word)
}

func (p *parser) eatKeyword(word string) bool {
	if p.isKeyword(word) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectKeyword(word string) error {
	if !p.eatKeyword(word) {
		return p.errorf("expected %s", word)
	}
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	t := p.cur()
	if t.Type == tokenizer.EOF {
		return fmt.Errorf("%w: %s", ErrUnexpectedEOF, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("%w at %d:%d (%q): %s", ErrUnexpectedToken, t.Position.Line, t.Position.Column, t.Value, fmt.Sprintf(format, args...))
}

// splitStatements breaks the token stream on top-level SEMICOLON tokens,
// dropping empty trailing fragments (a trailing ";" with nothing after it).
func (p *parser) splitStatements() [][]tokenizer.Token {
	var stmts [][]tokenizer.Token
	depth := 0
	start := 0
	for i, t := range p.toks {
		switch t.Type {
		case tokenizer.OPENED_PARENS:
			depth++
		case tokenizer.CLOSED_PARENS:
			depth--
		case tokenizer.SEMICOLON:
			if depth == 0 {
				stmts = append(stmts, p.toks[start:i])
				start = i + 1
			}
		}
	}
	if start < len(p.toks) {
		stmts = append(stmts, p.toks[start:])
	}
	var nonEmpty [][]tokenizer.Token
	for _, s := range stmts {
		if len(s) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return nonEmpty
}

// parseTopLevel parses one statement body. Any leading DML/DDL keyword is
// still recognized structurally (so the caller can report S003 with the
// offending keyword) rather than failing as a generic parse error.
func (p *parser) parseTopLevel() (*SelectStatement, error) {
	var with *WithClause
	if p.isKeyword("WITH") {
		w, err := p.parseWithClause()
		if err != nil {
			return nil, err
		}
		with = w
	}

	if !p.isKeyword("SELECT") {
		// Not a SELECT: still build a bare marker statement so callers one
		// level up (the wrapper that enforces S003) can see what it was.
		return &SelectStatement{With: with, pos: p.cur().Position}, nil
	}

	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	sel.With = with
	return sel, nil
}

func (p *parser) parseWithClause() (*WithClause, error) {
	pos := p.cur().Position
	p.advance() // WITH
	recursive := p.eatKeyword("RECURSIVE")

	var ctes []CTEDefinition
	for {
		name := p.advance()
		if name.Type != tokenizer.IDENTIFIER {
			return nil, p.errorf("expected CTE name")
		}
		if err := p.expectKeyword("AS"); err != nil {
			return nil, err
		}
		if p.cur().Type != tokenizer.OPENED_PARENS {
			return nil, p.errorf("expected ( after AS in CTE")
		}
		p.advance()
		inner, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		if p.cur().Type != tokenizer.CLOSED_PARENS {
			return nil, p.errorf("expected ) to close CTE body")
		}
		p.advance()
		ctes = append(ctes, CTEDefinition{Name: name.Value, Query: inner})
		if p.cur().Type == tokenizer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return &WithClause{Recursive: recursive, CTEs: ctes, pos: pos}, nil
}

func (p *parser) parseSelect() (*SelectStatement, error) {
	pos := p.cur().Position
	p.advance() // SELECT

	sel := &SelectStatement{pos: pos}
	if p.eatKeyword("DISTINCT") {
		sel.Distinct = true
	} else {
		p.eatKeyword("ALL")
	}

	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	sel.Items = items

	if p.eatKeyword("FROM") {
		from, err := p.parseFromList()
		if err != nil {
			return nil, err
		}
		sel.From = from
	}

	if p.eatKeyword("WHERE") {
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		sel.Where = expr
	}

	if p.eatKeyword("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, e)
			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}
			break
		}
	}

	if p.eatKeyword("HAVING") {
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		sel.Having = expr
	}

	if p.eatKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			item := OrderItem{Expr: e}
			if p.eatKeyword("DESC") {
				item.Desc = true
			} else {
				p.eatKeyword("ASC")
			}
			sel.OrderBy = append(sel.OrderBy, item)
			if p.cur().Type == tokenizer.COMMA {
				p.advance()
				continue
			}
			break
		}
	}

	if p.eatKeyword("LIMIT") {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		sel.Limit = e
	}
	if p.eatKeyword("OFFSET") {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		sel.Offset = e
	}

	// A trailing UNION [ALL] <select> folds the tail into this node's Items
	// being irrelevant here: set expansion is the planner's job (it receives
	// the raw statement list via a dedicated Union wrapper built by the
	// caller). Featherflow's single-statement-per-model model means UNION
	// is parsed as a binary join of two SelectStatements at the ir/planner
	// layer, not here; this parser only needs to not choke on it, so any
	// leftover UNION keyword is left for the caller (ir) by returning early.
	return sel, nil
}

func (p *parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.cur().Type == tokenizer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *parser) parseSelectItem() (SelectItem, error) {
	if p.cur().Type == tokenizer.MULTIPLY {
		p.advance()
		return SelectItem{Star: true, Expr: &Star{exprBase: exprBase{pos: p.cur().Position}}}, nil
	}
	if p.cur().Type == tokenizer.IDENTIFIER && p.peekAt(1).Type == tokenizer.DOT && p.peekAt(2).Type == tokenizer.MULTIPLY {
		table := p.advance().Value
		p.advance() // dot
		p.advance() // *
		return SelectItem{Star: true, Expr: &Star{Table: table}}, nil
	}

	e, err := p.parseExpr(0)
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: e}
	if p.eatKeyword("AS") {
		id := p.advance()
		item.Alias = id.Value
	} else if p.cur().Type == tokenizer.IDENTIFIER && !p.isClauseBoundary() {
		item.Alias = p.advance().Value
	}
	return item, nil
}

// isClauseBoundary reports whether the current identifier-looking token is
// actually a keyword that starts the next clause, so a bare-word alias isn't
// accidentally swallowed (e.g. "SELECT a FROM t" must not read FROM as an
// alias of a).
func (p *parser) isClauseBoundary() bool {
	switch strings.ToUpper(p.cur().Value) {
	case "FROM", "WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET", "UNION", "EXCEPT", "INTERSECT":
		return true
	}
	return false
}

func (p *parser) parseFromList() ([]TableRef, error) {
	var refs []TableRef
	for {
		ref, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
		if p.cur().Type == tokenizer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return refs, nil
}

var joinKeywords = map[string]JoinKind{
	"JOIN":  JoinInner,
	"INNER": JoinInner,
	"LEFT":  JoinLeft,
	"RIGHT": JoinRight,
	"FULL":  JoinFull,
	"CROSS": JoinCross,
}

func (p *parser) parseTableRef() (TableRef, error) {
	left, err := p.parseTableFactor()
	if err != nil {
		return TableRef{}, err
	}

	for {
		word := strings.ToUpper(p.cur().Value)
		kind, ok := joinKeywords[word]
		if !ok || p.cur().Type != tokenizer.KEYWORD {
			break
		}
		p.advance()
		if word != "JOIN" {
			p.eatKeyword("OUTER")
			if err := p.expectKeyword("JOIN"); err != nil {
				return TableRef{}, err
			}
		}
		right, err := p.parseTableFactor()
		if err != nil {
			return TableRef{}, err
		}
		var on Expr
		if p.eatKeyword("ON") {
			on, err = p.parseExpr(0)
			if err != nil {
				return TableRef{}, err
			}
		} else if p.eatKeyword("USING") {
			if p.cur().Type != tokenizer.OPENED_PARENS {
				return TableRef{}, p.errorf("expected ( after USING")
			}
			p.advance()
			for p.cur().Type != tokenizer.CLOSED_PARENS {
				p.advance()
			}
			p.advance()
		}
		left = TableRef{Join: &JoinRef{Kind: kind, Left: left, Right: right, On: on}}
	}
	return left, nil
}

func (p *parser) parseTableFactor() (TableRef, error) {
	pos := p.cur().Position
	if p.cur().Type == tokenizer.OPENED_PARENS && p.peekAt(1).Type == tokenizer.KEYWORD && strings.EqualFold(p.peekAt(1).Value, "SELECT") {
		p.advance()
		inner, err := p.parseSelect()
		if err != nil {
			return TableRef{}, err
		}
		if p.cur().Type != tokenizer.CLOSED_PARENS {
			return TableRef{}, p.errorf("expected ) to close derived table")
		}
		p.advance()
		alias := p.maybeAlias()
		return TableRef{Subquery: inner, Alias: alias, pos: pos}, nil
	}

	first := p.advance()
	if first.Type != tokenizer.IDENTIFIER {
		return TableRef{}, p.errorf("expected table name")
	}
	ref := TableRef{Table: first.Value, pos: pos}
	if p.cur().Type == tokenizer.DOT {
		p.advance()
		name := p.advance()
		ref.Schema = first.Value
		ref.Table = name.Value
	}
	ref.Alias = p.maybeAlias()
	return ref, nil
}

func (p *parser) maybeAlias() string {
	if p.eatKeyword("AS") {
		return p.advance().Value
	}
	if p.cur().Type == tokenizer.IDENTIFIER {
		return p.advance().Value
	}
	return ""
}
