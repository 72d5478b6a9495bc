// Package database is the gorm/sqlite adapter for the destination
// blog store. It implements importer.Store; the importer itself never
// sees gorm.
package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pressgang/wpmigrate/internal/entities"
	"github.com/pressgang/wpmigrate/internal/importer"
)

type Database struct {
	DB *gorm.DB
}

func New(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Blog{},
		&entities.Category{},
		&entities.Tag{},
		&entities.Asset{},
		&entities.Post{},
		&entities.Comment{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureBlog returns the destination blog, creating one with the given
// title when the database has none yet. Imports always target the
// first blog.
func (d *Database) EnsureBlog(title string) (*entities.Blog, error) {
	var blog entities.Blog
	err := d.DB.First(&blog).Error
	if err == nil {
		return &blog, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("find blog", err)
	}

	blog = entities.Blog{Title: title}
	if err := d.DB.Create(&blog).Error; err != nil {
		return nil, storeErr("create blog", err)
	}
	log.Printf("Created blog %q", blog.Title)
	return &blog, nil
}

// FirstBlog returns the destination blog, or nil when the database
// has none yet.
func (d *Database) FirstBlog() (*entities.Blog, error) {
	var blog entities.Blog
	err := d.DB.First(&blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find blog", err)
	}
	return &blog, nil
}

// storeErr wraps a gorm error, marking connection-level failures with
// the importer's store-unavailable sentinel so a run aborts instead of
// producing a diagnostic per item.
func storeErr(op string, err error) error {
	if errors.Is(err, gorm.ErrInvalidDB) {
		return fmt.Errorf("%s: %w: %v", op, importer.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
