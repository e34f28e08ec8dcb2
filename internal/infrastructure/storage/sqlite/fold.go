package sqlite

import (
	"database/sql/driver"
	"strings"

	moderncsqlite "modernc.org/sqlite"
)

// foldFunc lower-cases with Go's Unicode tables; SQLite's lower() folds ASCII only.
const foldFunc = "go_lower"

func init() {
	moderncsqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, func(_ *moderncsqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}
