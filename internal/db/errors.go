package db

import (
	"errors"

	mysqlerr "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Kind groups driver errors into the cases services care about.
type Kind int

const (
	KindOther Kind = iota
	KindUnique
	KindForeignKey
	KindCheck
	KindSerialization
	KindNotNull
)

func (k Kind) String() string {
	switch k {
	case KindUnique:
		return "unique"
	case KindForeignKey:
		return "foreign_key"
	case KindCheck:
		return "check"
	case KindSerialization:
		return "serialization"
	case KindNotNull:
		return "not_null"
	default:
		return "other"
	}
}

// Postgres SQLSTATE codes
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgNotNullViolation     = "23502"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// MySQL error numbers
const (
	myDuplicateEntry  = 1062
	myNoReferencedRow = 1452
	myRowIsReferenced = 1451
	myCheckViolated   = 3819
	myBadNull         = 1048
	myDeadlock        = 1213
	myLockWaitTimeout = 1205
)

// Classify maps a database error to a Kind. It understands the GORM
// translated sentinels and the raw Postgres, MySQL and SQLite errors.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindUnique
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return KindForeignKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return KindUnique
		case pgForeignKeyViolation:
			return KindForeignKey
		case pgCheckViolation:
			return KindCheck
		case pgNotNullViolation:
			return KindNotNull
		case pgSerializationFailure, pgDeadlockDetected:
			return KindSerialization
		}
		return KindOther
	}

	var myErr *mysqlerr.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myDuplicateEntry:
			return KindUnique
		case myNoReferencedRow, myRowIsReferenced:
			return KindForeignKey
		case myCheckViolated:
			return KindCheck
		case myBadNull:
			return KindNotNull
		case myDeadlock, myLockWaitTimeout:
			return KindSerialization
		}
		return KindOther
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return KindUnique
		case sqlite3.ErrConstraintForeignKey:
			return KindForeignKey
		case sqlite3.ErrConstraintCheck:
			return KindCheck
		case sqlite3.ErrConstraintNotNull:
			return KindNotNull
		}
		if liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked {
			return KindSerialization
		}
	}
	return KindOther
}

func IsUnique(err error) bool     { return Classify(err) == KindUnique }
func IsForeignKey(err error) bool { return Classify(err) == KindForeignKey }
func IsCheck(err error) bool      { return Classify(err) == KindCheck }

// IsNotFound reports gorm's record-not-found error.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
