package statestore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/internal/statestore"
)

const (
	testDatabaseFileNameConstant    = "state.db"
	testMigrationIdentifierConstant = "project-to-public"
	testFirstRevisionConstant       = "aaaa1111"
	testSecondRevisionConstant      = "bbbb2222"
)

func openTestStore(testInstance *testing.T) *statestore.Store {
	testInstance.Helper()
	store, openError := statestore.Open(filepath.Join(testInstance.TempDir(), testDatabaseFileNameConstant))
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, store.Close())
	})
	return store
}

func TestLookupWithoutMarkReturnsEmpty(testInstance *testing.T) {
	store := openTestStore(testInstance)

	lastMigrated, lookupError := store.Lookup(context.Background(), testMigrationIdentifierConstant)
	require.NoError(testInstance, lookupError)
	require.Empty(testInstance, lastMigrated)
}

func TestRecordThenLookupRoundTrip(testInstance *testing.T) {
	store := openTestStore(testInstance)

	require.NoError(testInstance, store.Record(context.Background(), testMigrationIdentifierConstant, testFirstRevisionConstant))

	lastMigrated, lookupError := store.Lookup(context.Background(), testMigrationIdentifierConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, testFirstRevisionConstant, lastMigrated)
}

func TestRecordReplacesPreviousMark(testInstance *testing.T) {
	store := openTestStore(testInstance)

	require.NoError(testInstance, store.Record(context.Background(), testMigrationIdentifierConstant, testFirstRevisionConstant))
	require.NoError(testInstance, store.Record(context.Background(), testMigrationIdentifierConstant, testSecondRevisionConstant))

	lastMigrated, lookupError := store.Lookup(context.Background(), testMigrationIdentifierConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, testSecondRevisionConstant, lastMigrated)
}

func TestMarksAreScopedByMigrationIdentifier(testInstance *testing.T) {
	store := openTestStore(testInstance)

	require.NoError(testInstance, store.Record(context.Background(), testMigrationIdentifierConstant, testFirstRevisionConstant))

	otherMigrated, lookupError := store.Lookup(context.Background(), "another-migration")
	require.NoError(testInstance, lookupError)
	require.Empty(testInstance, otherMigrated)
}
