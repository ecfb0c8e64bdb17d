// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/tasmiapp/tasmi/core"
)

// executor picks the optional override (eg. an open transaction) over the pool.
func executor(db *sqlx.DB, exec ...core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return db
}

// orderBy renders an ORDER BY clause, falling back to the default when no
// ordering is requested.
func orderBy(ordering []core.DBOrdering, dflt string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + dflt
	}
	clauses := make([]string, len(ordering))
	for i, ord := range ordering {
		clauses[i] = ord.String()
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}
