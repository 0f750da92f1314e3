package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"campus-management/app/config"
	"campus-management/app/database"
	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/routes/users"

	"github.com/google/uuid"
)

// Creates a login, typically the first super admin of a fresh install.
func main() {
	name := flag.String("name", "", "full name")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "initial password (min 8 characters)")
	role := flag.String("role", models.RoleSuperAdmin, "role of the new user")
	branch := flag.String("branch", "", "branch id (required unless role is super_admin)")
	flag.Parse()

	if err := run(*name, *email, *password, *role, *branch); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}
}

func run(name, email, password, role, branch string) error {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return fmt.Errorf("-name and -email are required")
	}
	if len(password) < 8 {
		return fmt.Errorf("-password must be at least 8 characters")
	}
	if !models.ValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	if role != models.RoleSuperAdmin && branch == "" {
		return fmt.Errorf("-branch is required for role %s", role)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u := &models.User{
		ID:       uuid.NewString(),
		BranchID: nil,
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
		Status:   models.StatusActive,
	}
	if role != models.RoleSuperAdmin {
		u.BranchID = &branch
	}
	if err := users.CreateUser(ctx, db, u); err != nil {
		return err
	}

	fmt.Printf("User created successfully: %s (%s, %s)\n", u.Name, u.Email, u.Role)
	return nil
}
