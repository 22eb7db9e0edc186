package service

import (
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/database"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupTestGateway(t *testing.T) *database.Gateway {
	t.Helper()
	opts := database.Options{Driver: database.DialectSQLite, Path: fmt.Sprintf("file:%s?mode=memory", uuid.NewString())}
	gw, err := database.Open(opts)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gw, opts))
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
