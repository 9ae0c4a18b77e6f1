package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedPassword string

type seedUser struct {
	Email      string
	Name       string
	Department string
	// TokenRole is written to users.role and ends up in the token's
	// app_metadata. TableRole is written to user_roles.
	TokenRole string
	TableRole string
}

var seedUsers = []seedUser{
	{Email: "admin@hr-portal.local", Name: "Portal Admin", Department: "IT", TokenRole: "admin"},
	{Email: "hr@hr-portal.local", Name: "Hana Rahma", Department: "People", TokenRole: "HR_MANAGER"},
	{Email: "manager@hr-portal.local", Name: "Made Wirawan", Department: "Engineering", TableRole: "MANAGER"},
	{Email: "employee@hr-portal.local", Name: "Eko Saputra", Department: "Engineering", TableRole: "employee"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with one user per portal role for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(seedPassword) < 8 {
			log.Fatal("--password is required and must be at least 8 characters")
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if cfg.Database.Source == "" {
			log.Fatal("database.source is required")
		}

		db, sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		cost := cfg.Security.BCryptCost
		if cost < bcrypt.MinCost {
			cost = bcrypt.DefaultCost
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		if clearData {
			if err := clearSeedData(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared seeded users and their attendance")
		}

		for _, u := range seedUsers {
			id, err := ensureSeedUser(db, u, string(hash))
			if err != nil {
				log.Fatalf("failed to seed %s: %v", u.Email, err)
			}
			if u.TableRole == "" {
				continue
			}
			if err := db.Exec(
				"INSERT INTO user_roles (user_id, role, created_at, updated_at) VALUES (?, ?, now(), now()) "+
					"ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()",
				id, u.TableRole).Error; err != nil {
				log.Fatalf("failed to assign role to %s: %v", u.Email, err)
			}
			fmt.Printf("Assigned role %s to %s\n", u.TableRole, u.Email)
		}

		fmt.Println("Seed data created successfully")
	},
}

func ensureSeedUser(db *gorm.DB, u seedUser, hash string) (int64, error) {
	var id int64
	err := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row().Scan(&id)
	if err == nil {
		fmt.Println("user already exists:", u.Email)
		return id, nil
	}

	var tokenRole *string
	if u.TokenRole != "" {
		tokenRole = &u.TokenRole
	}
	err = db.Raw(
		"INSERT INTO users (email, name, department, password_hash, role, is_active, created_at, updated_at) "+
			"VALUES (?, ?, ?, ?, ?, true, now(), now()) RETURNING id",
		u.Email, u.Name, u.Department, hash, tokenRole).Row().Scan(&id)
	if err != nil {
		return 0, err
	}
	fmt.Println("Seeded user:", u.Email)
	return id, nil
}

func clearSeedData(db *gorm.DB) error {
	emails := make([]string, len(seedUsers))
	for i, u := range seedUsers {
		emails[i] = u.Email
	}

	return db.Transaction(func(tx *gorm.DB) error {
		ids := tx.Table("users").Select("id").Where("email IN ?", emails)
		if err := tx.Exec("DELETE FROM attendance_records WHERE user_id IN (?)", ids).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE user_id IN (?)", ids).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM users WHERE email IN ?", emails).Error
	})
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "", "password given to every seeded user")
}
