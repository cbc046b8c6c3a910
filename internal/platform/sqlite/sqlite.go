package sqlite

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a gorm handle on the SQLite file at path. Use ":memory:" in tests.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// ":memory:" databases exist per connection.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// UniqueViolation reports the violated column when err is a SQLite unique
// constraint failure ("UNIQUE constraint failed: table.column").
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	_, detail, found := strings.Cut(err.Error(), "UNIQUE constraint failed: ")
	if !found {
		return "", false
	}
	column := strings.Fields(detail)
	if len(column) == 0 {
		return "", true
	}
	_, col, ok := strings.Cut(strings.TrimSuffix(column[0], ","), ".")
	if !ok {
		return column[0], true
	}
	return col, true
}
