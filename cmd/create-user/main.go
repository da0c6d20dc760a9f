package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"servicehours-backend-go/internal/db"
	"servicehours-backend-go/internal/migrations"
	"servicehours-backend-go/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	username := flag.String("username", "", "login name (stored lowercased)")
	password := flag.String("password", "", "initial password")
	role := flag.String("role", services.RoleStudent, "one of "+strings.Join(services.Roles, ", "))
	studentID := flag.Int64("student", 0, "student id to link (Student role only)")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "database url, defaults to $DATABASE_URL")
	flag.Parse()

	if *dbURL == "" {
		*dbURL = "sqlite://data/extension.db"
	}
	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dbURL, services.UserInput{
		Username:  *username,
		Password:  *password,
		Role:      *role,
		StudentID: optionalID(*studentID),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "create-user: %v\n", err)
		os.Exit(1)
	}
}

func run(dbURL string, input services.UserInput) error {
	database, err := db.Open(dbURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := migrations.Apply(database); err != nil {
		return err
	}
	ctx := context.Background()
	ids := services.NewIDAllocator(database)
	if err := ids.Init(ctx); err != nil {
		return err
	}
	store := services.NewStore(database, ids)
	user, err := store.CreateUser(ctx, "cli", input)
	if err != nil {
		return err
	}
	fmt.Printf("User created: %s (%s, id %d)\n", user.Username, user.Role, user.ID)
	return nil
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
