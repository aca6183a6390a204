package database

import (
	"fmt"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var C *gorm.DB

func NewGorm() error {
	var dialector gorm.Dialector
	switch viper.GetString("database.driver") {
	case "sqlite":
		dialector = sqlite.Open(viper.GetString("database.dsn"))
	case "postgres", "":
		dialector = postgres.Open(viper.GetString("database.dsn"))
	default:
		return fmt.Errorf("unsupported database driver: %s", viper.GetString("database.driver"))
	}

	var err error
	C, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})

	return err
}
