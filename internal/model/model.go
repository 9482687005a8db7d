package model

import (
	"gorm.io/gorm"
)

// AutoMigrate migrates the table behind key
// AutoMigrate 按 key 迁移对应的表
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Note":
		return db.AutoMigrate(&Note{})
	case "Preference":
		return db.AutoMigrate(&Preference{})
	}
	return nil
}

// AutoMigrateAll migrates every table
func AutoMigrateAll(db *gorm.DB) error {
	for _, key := range []string{"Note", "Preference"} {
		if err := AutoMigrate(db, key); err != nil {
			return err
		}
	}
	return nil
}
