package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bazaar-market/apiserver/config"
	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/internal/db"
	"github.com/bazaar-market/apiserver/internal/store"
	"github.com/bazaar-market/apiserver/types"
)

var seedCategories = []string{"Electronics", "Books", "Clothing"}
var seedContactTypes = []string{"Email", "Instagram", "Phone"}

// seedCmd populates the lookup tables and creates the initial admin account.
// It is idempotent: rows that already exist are left alone.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed lookup tables and the initial admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		defer dbConn.Close()

		if err := seedCatalog(ctx, store.NewCatalogRepository(dbConn)); err != nil {
			return err
		}
		return seedAdmin(ctx, store.NewUserRepository(dbConn), cfg)
	},
}

func seedCatalog(ctx context.Context, repo *store.CatalogRepository) error {
	existing, err := repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories failed: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, category := range existing {
		have[category.Name] = true
	}
	for _, name := range seedCategories {
		if have[name] {
			continue
		}
		if _, err := repo.CreateCategory(ctx, name); err != nil {
			return fmt.Errorf("create category %q failed: %w", name, err)
		}
	}

	existingTypes, err := repo.ListContactTypes(ctx)
	if err != nil {
		return fmt.Errorf("list contact types failed: %w", err)
	}
	haveTypes := make(map[string]bool, len(existingTypes))
	for _, contactType := range existingTypes {
		haveTypes[contactType.Name] = true
	}
	for _, name := range seedContactTypes {
		if haveTypes[name] {
			continue
		}
		if _, err := repo.CreateContactType(ctx, name); err != nil {
			return fmt.Errorf("create contact type %q failed: %w", name, err)
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, repo *store.UserRepository, cfg config.Config) error {
	username := getenvDefault("ADMIN_USERNAME", "admin")
	email := getenvDefault("ADMIN_EMAIL", "admin@localhost")
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		// No password, no admin. Seeding a well-known credential is worse
		// than seeding nothing.
		return nil
	}

	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check admin failed: %w", err)
	}

	policy := auth.NewPasswordPolicy(cfg.Auth.BcryptCost)
	if reasons := policy.Validate(password); len(reasons) > 0 {
		return fmt.Errorf("admin password rejected: %v", reasons)
	}
	hash, err := policy.Hash(password)
	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		IsAdmin:      true,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create admin failed: %w", err)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
