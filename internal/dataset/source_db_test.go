package dataset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdash/internal/database"
	"studentdash/internal/dataset"
	"studentdash/internal/model"
)

func TestLoadFromDB(t *testing.T) {
	db, err := database.OpenDSN("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)

	students := []model.Student{
		{StudentID: 3, Name: "Amy", Class: "A", Marks: 90, Attendance: 95},
		{StudentID: 1, Name: "Ann", Class: "A", Marks: 80, Attendance: 90},
		{StudentID: 1, Name: "Ann Duplicate", Class: "B", Marks: 70, Attendance: 85},
	}
	// Insert out of position order; the load must follow position.
	for _, i := range []int{2, 0, 1} {
		row := model.NewStudentRow(i, students[i])
		require.NoError(t, db.Create(&row).Error)
	}

	data, err := dataset.LoadFromDB(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, students, data.Records())
}

func TestLoadFromDBEmptyTable(t *testing.T) {
	db, err := database.OpenDSN("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)

	data, err := dataset.LoadFromDB(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 0, data.Len())
}

func TestLoadFromDBCancelled(t *testing.T) {
	db, err := database.OpenDSN("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = dataset.LoadFromDB(ctx, db)
	require.Error(t, err)

	var le *dataset.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, dataset.SourceDatabase, le.Source)
}
