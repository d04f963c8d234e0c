package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/rakhaaa/todo-breeze-blade/internal/utils"
)

// CreateTables creates all required tables in the database
func CreateTables() {
	createUsersTable()
	createTodosTable()
	seedAdminUser()
}

// createUsersTable creates the users table
func createUsersTable() {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		role VARCHAR(10) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := DB.Exec(query)
	if err != nil {
		log.Fatal("Failed to create users table:", err)
	}

	ensureUsersSchema()
	fmt.Println("Users table created successfully")
}

func createTodosTable() {
	query := `
	CREATE TABLE IF NOT EXISTS todos (
		id SERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := DB.Exec(query)
	if err != nil {
		log.Fatal("Failed to create todos table:", err)
	}

	ensureTodosSchema()
	fmt.Println("Todos table created successfully")
}

func ensureUsersSchema() {
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS users_role_idx ON users(role)`); err != nil {
		log.Fatal("Failed to ensure users role index:", err)
	}
}

func ensureTodosSchema() {
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS todos_owner_recency_idx ON todos(user_id, id DESC)`); err != nil {
		log.Fatal("Failed to ensure todos owner/recency index:", err)
	}
}

// seedAdminUser inserts an initial admin account when no admin exists,
// so a fresh install always has a way in.
func seedAdminUser() {
	var existingID int
	err := DB.QueryRow(`SELECT id FROM users WHERE role = 'admin' ORDER BY id ASC LIMIT 1`).Scan(&existingID)
	if err == nil {
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Fatal("Failed to look up admin user:", err)
	}

	email := getEnvOrDefault("ADMIN_EMAIL", "admin@example.com")
	password := getEnvOrDefault("ADMIN_PASSWORD", "password")

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Fatal("Failed to hash admin password:", err)
	}

	_, err = DB.Exec(
		`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, 'admin')`,
		"Administrator",
		email,
		hashed,
	)
	if err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}

	log.Printf("Seeded initial admin user email=%s", email)
}
