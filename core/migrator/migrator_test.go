package migrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swisspipe/swisspipe/core/testutil"
	"github.com/swisspipe/swisspipe/storage"
)

func TestMigrationsRunOnce(t *testing.T) {
	db := testutil.TestMustDB()
	t.Cleanup(func() {
		_ = storage.Destroy(db.(*storage.BadgerStorage))
	})

	runs := 0
	m := NewMigrator(db, nil, []Migration{
		{
			Name: "test-count-runs",
			Function: func(db storage.Storage) (int, error) {
				runs++
				return 1, nil
			},
		},
	}, testutil.GetLogger())

	assert.NoError(t, m.Run())
	assert.Equal(t, 1, runs)

	// second run is a no-op, the marker exists
	assert.NoError(t, m.Run())
	assert.Equal(t, 1, runs)

	exists, err := db.Exist([]byte("migration:test-count-runs"))
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestFailedMigrationIsNotMarked(t *testing.T) {
	db := testutil.TestMustDB()
	t.Cleanup(func() {
		_ = storage.Destroy(db.(*storage.BadgerStorage))
	})

	m := NewMigrator(db, nil, nil, testutil.GetLogger())
	m.Register("test-failing", func(db storage.Storage) (int, error) {
		return 0, assert.AnError
	})

	assert.Error(t, m.Run())

	exists, err := db.Exist([]byte("migration:test-failing"))
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestMigrationsRunInOrder(t *testing.T) {
	db := testutil.TestMustDB()
	t.Cleanup(func() {
		_ = storage.Destroy(db.(*storage.BadgerStorage))
	})

	var order []string
	m := NewMigrator(db, nil, nil, testutil.GetLogger())
	m.Register("first", func(db storage.Storage) (int, error) {
		order = append(order, "first")
		return 0, nil
	})
	m.Register("second", func(db storage.Storage) (int, error) {
		order = append(order, "second")
		return 0, nil
	})

	assert.NoError(t, m.Run())
	assert.Equal(t, []string{"first", "second"}, order)
}
