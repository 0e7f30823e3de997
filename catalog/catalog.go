// Package catalog implements the Schema Catalog Builder phase (§4.9): a
// name -> RelSchema lookup the IR lowerer's table provider and the Schema
// Propagator both consult and, for the latter, update in place as each
// model's inferred schema supersedes its declared one.
package catalog

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// Catalog is the name -> RelSchema registry built before planning begins
// and fed forward by the Schema Propagator (§4.11).
type Catalog struct {
	rels map[string]featherflow.RelSchema
}

// Build registers the declared schema of every model, source, and seed
// node, plus an empty RelSchema for every declared external table so the
// planner can resolve a FROM reference to *something* without crashing
// (§4.9 "External tables are registered with empty schemas").
func Build(nodes map[string]*featherflow.Node, externalTables []string) *Catalog {
	c := &Catalog{rels: make(map[string]featherflow.RelSchema, len(nodes)+len(externalTables))}

	for name, n := range nodes {
		switch n.Kind {
		case featherflow.KindModel, featherflow.KindSource, featherflow.KindSeed:
			c.rels[lastComponent(name)] = n.DeclaredSchema
		}
	}

	for _, t := range externalTables {
		key := lastComponent(t)
		if _, exists := c.rels[key]; !exists {
			c.rels[key] = featherflow.RelSchema{}
		}
	}

	return c
}

// Lookup resolves a table reference to its RelSchema, matching case-
// insensitively on the last dot-separated component (§3 "Dependency
// reference").
func (c *Catalog) Lookup(name string) (featherflow.RelSchema, bool) {
	rel, ok := c.rels[lastComponent(name)]
	return rel, ok
}

// Update overwrites name's catalog entry, used by the Schema Propagator to
// feed a model's just-inferred schema forward to its consumers (§4.11).
func (c *Catalog) Update(name string, schema featherflow.RelSchema) {
	c.rels[lastComponent(name)] = schema
}

// Names returns every registered name (model/source/seed/external), for
// callers that need to enumerate the catalog (diagnostics, tests).
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.rels))
	for name := range c.rels {
		names = append(names, name)
	}
	return names
}

func lastComponent(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}
