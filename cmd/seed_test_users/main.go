// Seeds a small set of development users with a known password.
package main

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/logger"
	"github.com/foodgram/backend/internal/models"
)

const devPassword = "testpassword123"

var devUsers = []models.User{
	{Username: "johndoe", Email: "john.doe@example.com", FirstName: "John", LastName: "Doe"},
	{Username: "janesmith", Email: "jane.smith@example.com", FirstName: "Jane", LastName: "Smith"},
	{Username: "chefalex", Email: "alex@example.com", FirstName: "Alex", LastName: "Kim"},
}

func main() {
	env := config.GetEnvironment()
	log := logger.New(env == config.Production)
	if env == config.Production {
		log.Fatal("refusing to seed test users in production")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	db, err := database.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(devPassword), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}

	for _, user := range devUsers {
		user := user
		user.PasswordHash = string(hashed)
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
		if result.Error != nil {
			log.WithError(result.Error).WithField("username", user.Username).Fatal("failed to create user")
		}
		if result.RowsAffected > 0 {
			log.WithField("username", user.Username).Info("created user")
		}
	}
}
