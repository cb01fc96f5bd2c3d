package database

import (
	"fmt"
	"log"

	config "github.com/courtsidehq/padel_community/configs"
	"github.com/courtsidehq/padel_community/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Needed so unique-constraint violations surface as gorm.ErrDuplicatedKey.
		TranslateError:                           true,
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Community{},
		&models.SubCommunity{},
		&models.CommunityMember{},
		&models.SessionTemplate{},
		&models.Session{},
		&models.Booking{},
		&models.Payment{},
		&models.Receipt{},
		&models.Friendship{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedSuperAdmin() {
	adminEmail := config.Config("SUPERADMIN_EMAIL")
	adminPassword := config.Config("SUPERADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for super admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Super admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash super admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("SUPERADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "superadmin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed super admin user: %v", err)
		return
	}

	log.Println("✅ Super admin user seeded successfully")
}
