package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/rakhaaa/todo-breeze-blade/internal/database"
	"github.com/rakhaaa/todo-breeze-blade/internal/models"
	"github.com/rakhaaa/todo-breeze-blade/internal/utils"
	"github.com/rakhaaa/todo-breeze-blade/internal/validation"
)

// All user-management handlers sit behind the admin-only coarse gate;
// non-admins are redirected away by the middleware before these run.

type userCreateRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`
}

type userUpdateRequest struct {
	Name                 *string `json:"name"`
	Email                *string `json:"email"`
	Password             *string `json:"password"`
	PasswordConfirmation *string `json:"password_confirmation"`
	Role                 *string `json:"role"`
}

// input keeps absent fields absent: on update, a field that was not
// supplied at all means "leave unchanged".
func (req userUpdateRequest) input() validation.Input {
	in := validation.Input{}
	if req.Name != nil {
		in["name"] = *req.Name
	}
	if req.Email != nil {
		in["email"] = *req.Email
	}
	if req.Password != nil {
		in["password"] = *req.Password
	}
	if req.PasswordConfirmation != nil {
		in["password_confirmation"] = *req.PasswordConfirmation
	}
	if req.Role != nil {
		in["role"] = *req.Role
	}
	return validation.Normalize(in)
}

// emailTaken is the read-only existence check behind the uniqueness
// rule. The unique constraint on users.email stays the authority; this
// is an optimistic pre-check.
func emailTaken(db *sql.DB) validation.EmailLookup {
	return func(email string, ignoreID int) (bool, error) {
		var exists bool
		err := db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
			email,
			ignoreID,
		).Scan(&exists)
		return exists, err
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ListUsers lists every account newest-first. Password hashes never
// leave the handler.
func ListUsers(c *gin.Context) {
	db := database.DB

	rows, err := db.Query(
		`SELECT id, name, email, role, created_at, updated_at FROM users ORDER BY id DESC`,
	)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing users"})
		return
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			log.Printf("Error scanning user row: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing users"})
			return
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating user rows: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":  users,
		"status": consumeFlash(c),
	})
}

// CreateUser creates an account with the supplied role.
func CreateUser(c *gin.Context) {
	var req userCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	db := database.DB

	in := validation.Normalize(validation.Input{
		"name":                  req.Name,
		"email":                 req.Email,
		"password":              req.Password,
		"password_confirmation": req.PasswordConfirmation,
		"role":                  req.Role,
	})
	errs, err := validation.Validate(in, validation.UserCreateRules(emailTaken(db)))
	if err != nil {
		log.Printf("Error validating user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}
	if errs.Any() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	hashedPassword, err := utils.HashPassword(in["password"])
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	var userID int
	err = db.QueryRow(
		`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		in["name"],
		in["email"],
		hashedPassword,
		in["role"],
	).Scan(&userID)
	if err != nil {
		// The pre-check can lose a race; the constraint is authoritative.
		if isUniqueViolation(err) {
			errs := validation.Errors{}
			errs.Add("email", validation.EmailTakenMessage("email"))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
			return
		}
		log.Printf("Error inserting user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	redirectWithStatus(c, "/users", "User created successfully")
}

// UpdateUser applies any subset of name/email/password/role to an
// account. Absent fields keep their stored values.
func UpdateUser(c *gin.Context) {
	user, ok := findUserOr404(c)
	if !ok {
		return
	}

	var req userUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	db := database.DB

	in := req.input()
	errs, err := validation.Validate(in, validation.UserUpdateRules(emailTaken(db), user.ID))
	if err != nil {
		log.Printf("Error validating user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating user"})
		return
	}
	if errs.Any() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	name := user.Name
	if value, ok := in["name"]; ok && value != "" {
		name = value
	}

	email := user.Email
	if value, ok := in["email"]; ok && value != "" {
		email = value
	}

	role := user.Role
	if value, ok := in["role"]; ok && value != "" {
		parsed, valid := models.ParseRole(value)
		if !valid {
			// Unreachable past validation, kept as a guard.
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"role": []string{"The selected role is invalid."}}})
			return
		}
		role = parsed
	}

	password := user.Password
	if value, ok := in["password"]; ok && value != "" {
		hashed, err := utils.HashPassword(value)
		if err != nil {
			log.Printf("Error hashing password: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating user"})
			return
		}
		password = hashed
	}

	_, err = db.Exec(
		`UPDATE users SET name = $1, email = $2, password = $3, role = $4, updated_at = CURRENT_TIMESTAMP WHERE id = $5`,
		name,
		email,
		password,
		role,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			errs := validation.Errors{}
			errs.Add("email", validation.EmailTakenMessage("email"))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
			return
		}
		log.Printf("Error updating user id=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating user"})
		return
	}

	redirectWithStatus(c, "/users", "User update successfully")
}

// DeleteUser removes an account and, in the same transaction, every
// todo it owns.
func DeleteUser(c *gin.Context) {
	user, ok := findUserOr404(c)
	if !ok {
		return
	}

	deletedTodos, err := deleteUserWithTodos(database.DB, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("Error deleting user id=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting user"})
		return
	}

	log.Printf("Deleted user id=%d with %d owned todos", user.ID, deletedTodos)
	redirectWithStatus(c, "/users", "User delete successfully")
}

// deleteUserWithTodos removes the user's todos and then the user inside
// one transaction, so a failure leaves no partial state. It returns the
// number of todos that went with the account.
func deleteUserWithTodos(db *sql.DB, userID int) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var existingUserID int
	if err := tx.QueryRow(`SELECT id FROM users WHERE id = $1`, userID).Scan(&existingUserID); err != nil {
		return 0, err
	}

	result, err := tx.Exec(`DELETE FROM todos WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	deletedTodos, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	result, err = tx.Exec(`DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rowsAffected == 0 {
		return 0, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return deletedTodos, nil
}

func findUserOr404(c *gin.Context) (models.User, bool) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return models.User{}, false
	}

	var user models.User
	err = database.DB.QueryRow(
		`SELECT id, name, email, password, role, created_at, updated_at FROM users WHERE id = $1`,
		userID,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return models.User{}, false
		}
		log.Printf("Error finding user id=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error finding user"})
		return models.User{}, false
	}

	return user, true
}
