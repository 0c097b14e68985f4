package config

import (
	"fmt"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Restaurant is the single-tenant identity, injected at startup.
type Restaurant struct {
	Name     string
	Location *time.Location
}

// LoadRestaurant reads the restaurant identity from the environment.
func LoadRestaurant() Restaurant {
	name := os.Getenv("RESTAURANT_NAME")
	if name == "" {
		name = "Restaurant"
	}

	loc := time.Local
	if tz := os.Getenv("RESTAURANT_TIMEZONE"); tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		}
	}

	return Restaurant{Name: name, Location: loc}
}

// InitDB opens the database connection. DB_DRIVER selects mysql for
// production or sqlite for local development (the default).
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")

	switch driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "reservations.db"
		}
		return gorm.Open(sqlite.Open(path), &gorm.Config{})
	}
}
