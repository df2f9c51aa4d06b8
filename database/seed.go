package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/utils/auth"
)

// RunSeeds populates baseline data: the default categories and, when the
// ADMIN_* environment variables are set, an initial admin account.
// Seeding is idempotent; existing rows are left alone.
func RunSeeds(db *gorm.DB) error {
	if err := seedCategories(db); err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}

	if err := seedAdminUser(db); err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}

	return nil
}

func seedCategories(db *gorm.DB) error {
	categories := []model.Category{
		{Name: "Fiction", Description: "Novels, short stories and literary fiction"},
		{Name: "Non-Fiction", Description: "Biography, history and general non-fiction"},
		{Name: "Science", Description: "Natural sciences and mathematics"},
		{Name: "Technology", Description: "Computing, engineering and applied sciences"},
		{Name: "Reference", Description: "Encyclopedias, dictionaries and atlases"},
	}

	for _, category := range categories {
		var existing model.Category
		err := db.Where("name = ?", category.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&category).Error; err != nil {
			return err
		}
		log.Printf("Seeded category: %s", category.Name)
	}

	return nil
}

func seedAdminUser(db *gorm.DB) error {
	username := os.Getenv("ADMIN_USERNAME")
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || email == "" || password == "" {
		log.Println("ADMIN_USERNAME, ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing model.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Library",
		LastName:     "Admin",
		Role:         model.RoleAdmin,
		Status:       model.StatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user: %s", username)
	return nil
}
