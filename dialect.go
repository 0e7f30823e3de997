package featherflow

import "github.com/datastx/Feather-Flow-sub001/tokenizer"

// Dialect names one of the SQL dialects the tokenizer knows the lexical
// grammar for. A single project only ever compiles against one (base spec
// §1 Non-goals), but the type stays shared across packages the way the
// teacher shares Dialect across its own generators.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// SqlDialect resolves c.Dialect to the tokenizer.SqlDialect every
// dialect-aware phase (SQL Parser, Function Resolver, Emitter) tokenizes
// and quotes against. Unrecognized or empty values fall back to Postgres,
// the same default LoadConfig applies when dialect is omitted from YAML.
func (c *Config) SqlDialect() tokenizer.SqlDialect {
	switch Dialect(c.Dialect) {
	case DialectMySQL:
		return tokenizer.NewMySQLDialect()
	case DialectSQLite:
		return tokenizer.NewSQLiteDialect()
	default:
		return tokenizer.NewPostgresDialect()
	}
}
