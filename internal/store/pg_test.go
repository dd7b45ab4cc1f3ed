package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/testutil"
)

var (
	testDB *gorm.DB
	testPG *testutil.Postgres
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	var err error
	testPG, err = testutil.StartPostgres(ctx)
	if err != nil {
		fmt.Printf("Failed to start test database: %v\n", err)
		os.Exit(1)
	}
	testDB = testPG.DB

	code := m.Run()

	testPG.Terminate(ctx)
	os.Exit(code)
}

// initPGTestDB returns a store bound to a transaction that is rolled back when the test ends
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NotNil(t, tx)
	require.NoError(t, tx.Error)

	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}
