package database

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestConnString(t *testing.T) {
	opts := Options{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "Passw0rd",
		Database: "demo",
	}
	assert.Equal(t, "host=localhost port=5432 user=postgres dbname=demo sslmode=disable password=Passw0rd", opts.ConnString())

	opts.Password = ""
	opts.SSLMode = "require"
	assert.Equal(t, "host=localhost port=5432 user=postgres dbname=demo sslmode=require", opts.ConnString())
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"postgres unique violation", &pgconn.PgError{Code: UniqueViolation}, true},
		{"wrapped unique violation", errors.Wrap(&pgconn.PgError{Code: UniqueViolation}, "insert"), true},
		{"fmt wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: UniqueViolation}), true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite unique violation", errors.New("UNIQUE constraint failed: products.product_id"), true},
		{"other error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUniqueViolation(tt.err))
		})
	}
}
