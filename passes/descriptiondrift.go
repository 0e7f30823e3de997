package passes

import (
	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
)

// descriptionDriftPass implements the Description drift check (§4.12
// A050-A052): a column that documents itself against another node's
// column via ref should stay in sync with, or at least acknowledge, that
// column's own description.
type descriptionDriftPass struct{}

func (descriptionDriftPass) Name() string { return "description-drift" }

func (p descriptionDriftPass) RunModel(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic {
	var out []featherflow.Diagnostic
	for _, col := range node.DeclaredSchema.Columns {
		if col.RefNode == "" {
			continue
		}

		refRel, ok := cat.Lookup(col.RefNode)
		if !ok {
			// A051: the column documents itself against a node/column
			// that no longer resolves in the catalog — a stale ref.
			out = append(out, diag(cfg, "A051", node.Name,
				"column %q refs unknown node %q", col.Name, col.RefNode))
			continue
		}

		refColumnName := col.RefColumn
		if refColumnName == "" {
			refColumnName = col.Name
		}
		refCol, ok := refRel.Lookup(refColumnName)
		if !ok {
			out = append(out, diag(cfg, "A051", node.Name,
				"column %q refs %s.%s, which does not exist", col.Name, col.RefNode, refColumnName))
			continue
		}

		switch {
		case col.Description == "" && refCol.Description != "":
			// A052: the upstream column is documented but this one isn't;
			// the easy fix is to copy the description forward.
			out = append(out, diag(cfg, "A052", node.Name,
				"column %q has no description; %s.%s does: %q", col.Name, col.RefNode, refColumnName, refCol.Description))
		case col.Description != "" && refCol.Description != "" && col.Description != refCol.Description:
			// A050: both sides are documented but disagree.
			out = append(out, diag(cfg, "A050", node.Name,
				"column %q's description diverges from %s.%s's", col.Name, col.RefNode, refColumnName))
		}
	}
	return out
}
