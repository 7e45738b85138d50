package dataset

import (
	"context"

	"gorm.io/gorm"

	"studentdash/internal/model"
)

// SourceDatabase is the LoadError source used for database loads.
const SourceDatabase = "database"

// LoadFromDB reads the students table in stored file order. The table is
// only read; it is populated by ImportService.
func LoadFromDB(ctx context.Context, db *gorm.DB) (Dataset, error) {
	var rows []model.StudentRow
	if err := db.WithContext(ctx).Order("position asc").Order("id asc").Find(&rows).Error; err != nil {
		return Dataset{}, &LoadError{Source: SourceDatabase, Reason: "query students", Err: err}
	}

	records := make([]model.Student, len(rows))
	for i, row := range rows {
		records[i] = row.Student()
	}
	return Dataset{records: records}, nil
}
