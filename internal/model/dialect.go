package model

import (
	"fmt"
	"strings"
)

// Dialect is the declared source database engine of a batch
type Dialect string

const (
	DialectOracle     Dialect = "ORA"
	DialectMySQL      Dialect = "MY"
	DialectMariaDB    Dialect = "MDB"
	DialectPostgreSQL Dialect = "PG"
	DialectSQLServer  Dialect = "SS"
	DialectAltibase   Dialect = "ALT"
	DialectDB2        Dialect = "DB2"
)

// SupportedDialects lists every dialect in canonical order.
var SupportedDialects = []Dialect{
	DialectOracle,
	DialectMySQL,
	DialectMariaDB,
	DialectPostgreSQL,
	DialectSQLServer,
	DialectAltibase,
	DialectDB2,
}

var dialectAliases = map[string]Dialect{
	"ORA":        DialectOracle,
	"ORACLE":     DialectOracle,
	"MY":         DialectMySQL,
	"MYSQL":      DialectMySQL,
	"MDB":        DialectMariaDB,
	"MARIADB":    DialectMariaDB,
	"PG":         DialectPostgreSQL,
	"POSTGRESQL": DialectPostgreSQL,
	"POSTGRES":   DialectPostgreSQL,
	"SS":         DialectSQLServer,
	"SQLSERVER":  DialectSQLServer,
	"MSSQL":      DialectSQLServer,
	"ALT":        DialectAltibase,
	"ALTIBASE":   DialectAltibase,
	"DB2":        DialectDB2,
	"IBM DB2":    DialectDB2,
}

// UnknownDialectError is returned when a declared dialect is not supported.
type UnknownDialectError struct {
	Dialect string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown dialect %q (supported: %s)", e.Dialect, supportedList())
}

// ParseDialect normalizes a dialect tag or alias, case-insensitively.
func ParseDialect(s string) (Dialect, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if d, ok := dialectAliases[key]; ok {
		return d, nil
	}
	return "", &UnknownDialectError{Dialect: s}
}

// Valid reports whether d is one of the supported canonical tags.
func (d Dialect) Valid() bool {
	for _, s := range SupportedDialects {
		if s == d {
			return true
		}
	}
	return false
}

func (d Dialect) String() string { return string(d) }

// BackslashEscapes reports whether the engine treats a backslash inside a
// string literal as escaping the next character.
func (d Dialect) BackslashEscapes() bool {
	return d == DialectMySQL || d == DialectMariaDB
}

// DisplayName returns the engine's human readable name.
func (d Dialect) DisplayName() string {
	switch d {
	case DialectOracle:
		return "Oracle"
	case DialectMySQL:
		return "MySQL"
	case DialectMariaDB:
		return "MariaDB"
	case DialectPostgreSQL:
		return "PostgreSQL"
	case DialectSQLServer:
		return "SQL Server"
	case DialectAltibase:
		return "Altibase"
	case DialectDB2:
		return "IBM DB2"
	default:
		return string(d)
	}
}

func supportedList() string {
	tags := make([]string, len(SupportedDialects))
	for i, d := range SupportedDialects {
		tags[i] = string(d)
	}
	return strings.Join(tags, ", ")
}
