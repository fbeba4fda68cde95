package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/machinetrade/pos-api/pkg/apperror"
)

const uniqueViolation = "23505"

// TranslateError maps driver errors onto the application taxonomy.
// Unique violations become conflicts naming the offending column.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field := constraintField(pgErr.TableName, pgErr.ConstraintName)
		return apperror.Wrap(apperror.NewConflictError(field, field+" already exists"), err)
	}
	return err
}

// constraintField turns gorm's idx_<table>_<column> index names into <column>
func constraintField(table, constraint string) string {
	name := strings.TrimPrefix(constraint, "idx_")
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	}
	name = strings.TrimSuffix(name, "_key")
	if name == "" {
		return "record"
	}
	return name
}
