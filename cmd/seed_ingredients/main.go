// Seeds the ingredient and tag reference data. Ingredients come from a JSON
// file of {"name": ..., "measurement_unit": ...} objects; existing rows are
// left untouched.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/logger"
	"github.com/foodgram/backend/internal/models"
)

type ingredientSeed struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

var defaultTags = []models.Tag{
	{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
	{Name: "Lunch", Color: "#49B64E", Slug: "lunch"},
	{Name: "Dinner", Color: "#8775D2", Slug: "dinner"},
}

func main() {
	file := flag.String("file", "data/ingredients.json", "path to the ingredients JSON file")
	withTags := flag.Bool("tags", true, "also seed the default tag set")
	flag.Parse()

	env := config.GetEnvironment()
	log := logger.New(env == config.Production)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	db, err := database.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.WithError(err).WithField("file", *file).Fatal("failed to read ingredients file")
	}
	var seeds []ingredientSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		log.WithError(err).Fatal("failed to parse ingredients file")
	}

	inserted := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, seed := range seeds {
			if seed.Name == "" || seed.MeasurementUnit == "" {
				continue
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Ingredient{Name: seed.Name, MeasurementUnit: seed.MeasurementUnit})
			if result.Error != nil {
				return result.Error
			}
			inserted += int(result.RowsAffected)
		}
		if *withTags {
			for _, tag := range defaultTags {
				tag := tag
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Fatal("seeding failed")
	}

	log.WithFields(logrus.Fields{
		"ingredients": inserted,
		"total":       len(seeds),
	}).Info("seeding complete")
}
