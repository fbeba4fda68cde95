package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
)

func TestTranslateErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", TableName: "customers", ConstraintName: "idx_customers_phone"}
	err := TranslateError(fmt.Errorf("insert: %w", pgErr))

	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, "phone", appErr.Errors[0].Field)
	assert.ErrorIs(t, err, pgErr)
}

func TestTranslateErrorPassesOthersThrough(t *testing.T) {
	assert.NoError(t, TranslateError(nil))

	plain := errors.New("connection reset")
	assert.Same(t, plain, TranslateError(plain))

	fk := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(fk), TranslateError(fk))
}

func TestConstraintField(t *testing.T) {
	assert.Equal(t, "national_id", constraintField("customers", "idx_customers_national_id"))
	assert.Equal(t, "code", constraintField("machines", "machines_code_key"))
	assert.Equal(t, "record", constraintField("machines", ""))
}
