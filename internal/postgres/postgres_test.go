package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSNEscapesCredentials(t *testing.T) {
	got := DSN("rail", "p@ss:word", "db", 5432, "tixrail", "disable")
	assert.Equal(t, "postgres://rail:p%40ss%3Aword@db:5432/tixrail?sslmode=disable", got)
}

func TestNewRejectsBadDSN(t *testing.T) {
	_, err := New(context.Background(), Config{DSN: ":://bad"})
	assert.Error(t, err)
}
