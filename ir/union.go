package ir

import (
	"strings"

	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// UnionBranch is one SELECT joined into a model's top-level UNION chain.
type UnionBranch struct {
	Statement *parser.Statement
	All       bool // true when this branch was introduced by UNION ALL
}

// SplitUnionBranches tokenizes sql looking for a top-level (paren-depth 0)
// UNION [ALL] keyword the SQL Parser deliberately leaves unconsumed (§4.10
// treats UNION as a planning-time concern, not a parse-time one — a single
// parser.Statement only ever holds one SELECT). Each branch's substring is
// parsed independently; the first branch's All is always false.
func SplitUnionBranches(sql string, dialect tokenizer.SqlDialect) ([]UnionBranch, error) {
	tz := tokenizer.NewSqlTokenizer(sql, dialect)
	toks, err := tz.AllTokens()
	if err != nil {
		return nil, err
	}

	type boundary struct {
		start int // byte offset where this branch's SELECT begins
		all   bool
	}
	bounds := []boundary{{start: 0}}

	depth := 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case tokenizer.WHITESPACE, tokenizer.LINE_COMMENT, tokenizer.BLOCK_COMMENT, tokenizer.EOF:
			continue
		case tokenizer.OPENED_PARENS:
			depth++
		case tokenizer.CLOSED_PARENS:
			depth--
		case tokenizer.KEYWORD:
			if depth != 0 || !strings.EqualFold(t.Value, "UNION") {
				continue
			}

			all := false
			j := i + 1
			for j < len(toks) && toks[j].Type == tokenizer.WHITESPACE {
				j++
			}
			if j < len(toks) && toks[j].Type == tokenizer.KEYWORD && strings.EqualFold(toks[j].Value, "ALL") {
				all = true
				j++
			}
			for j < len(toks) && toks[j].Type == tokenizer.WHITESPACE {
				j++
			}
			if j < len(toks) {
				bounds = append(bounds, boundary{start: toks[j].Position.Offset, all: all})
			}
			i = j - 1
		}
	}

	if len(bounds) == 1 {
		stmt, err := parser.Parse(sql, dialect)
		if err != nil {
			return nil, err
		}
		return []UnionBranch{{Statement: stmt}}, nil
	}

	branches := make([]UnionBranch, 0, len(bounds))
	for i, b := range bounds {
		end := len(sql)
		// find where this branch's text ends: the offset of the next
		// boundary's UNION keyword, which sits strictly before its SELECT.
		if i+1 < len(bounds) {
			end = findUnionKeywordBefore(sql, bounds[i+1].start)
		}

		branchSQL := sql[b.start:end]
		stmt, err := parser.Parse(branchSQL, dialect)
		if err != nil {
			return nil, err
		}
		branches = append(branches, UnionBranch{Statement: stmt, All: b.all})
	}

	return branches, nil
}

// findUnionKeywordBefore returns the offset of the last occurrence of the
// word UNION in sql[:limit], used to trim a branch's text so it doesn't
// swallow the next branch's UNION [ALL] separator.
func findUnionKeywordBefore(sql string, limit int) int {
	idx := strings.LastIndex(strings.ToUpper(sql[:limit]), "UNION")
	if idx < 0 {
		return limit
	}
	return idx
}
