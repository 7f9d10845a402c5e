package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/classroom-api/internal/models"
)

// Options tweaks how the GORM connection is opened.
type Options struct {
	// Verbose enables warning-level SQL logging.
	Verbose bool
}

// Connect opens a GORM connection for the given driver name.
func Connect(driver, dsn string, opts Options) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn must not be empty", driver)
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if opts.Verbose {
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	return db, nil
}

// Migrate creates or updates every table used by the service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Course{},
		&models.Student{},
		&models.CourseStudent{},
		&models.Assignment{},
		&models.Submission{},
		&models.StudentImport{},
	)
}
