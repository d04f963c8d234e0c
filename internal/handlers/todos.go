package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rakhaaa/todo-breeze-blade/internal/database"
	"github.com/rakhaaa/todo-breeze-blade/internal/models"
	"github.com/rakhaaa/todo-breeze-blade/internal/policy"
	"github.com/rakhaaa/todo-breeze-blade/internal/validation"
)

type todoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (req todoRequest) input() validation.Input {
	return validation.Normalize(validation.Input{
		"title":       req.Title,
		"description": req.Description,
	})
}

// ListTodos lists todos newest-first: every todo for admins, only the
// actor's own todos otherwise. The scoping happens at the query level,
// not as a post-hoc check.
func ListTodos(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	db := database.DB

	var (
		rows *sql.Rows
		err  error
	)
	if actor.Role == models.RoleAdmin {
		rows, err = db.Query(
			`SELECT id, title, description, user_id, created_at, updated_at
			 FROM todos
			 ORDER BY id DESC`,
		)
	} else {
		rows, err = db.Query(
			`SELECT id, title, description, user_id, created_at, updated_at
			 FROM todos
			 WHERE user_id = $1
			 ORDER BY id DESC`,
			actor.ID,
		)
	}
	if err != nil {
		log.Printf("Error listing todos for user_id=%d: %v", actor.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing todos"})
		return
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		var todo models.Todo
		if err := rows.Scan(
			&todo.ID,
			&todo.Title,
			&todo.Description,
			&todo.UserID,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		); err != nil {
			log.Printf("Error scanning todo row: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing todos"})
			return
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating todo rows: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing todos"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"todos":  todos,
		"status": consumeFlash(c),
	})
}

// CreateTodo creates a todo owned by the actor.
func CreateTodo(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	in := req.input()
	errs, err := validation.Validate(in, validation.TodoRules())
	if err != nil {
		log.Printf("Error validating todo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating todo"})
		return
	}
	if errs.Any() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	db := database.DB
	var todoID int
	err = db.QueryRow(
		`INSERT INTO todos (title, description, user_id) VALUES ($1, $2, $3) RETURNING id`,
		in["title"],
		in["description"],
		actor.ID,
	).Scan(&todoID)
	if err != nil {
		log.Printf("Error inserting todo for user_id=%d: %v", actor.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating todo"})
		return
	}

	redirectWithStatus(c, "/todos", "Todo create successfully")
}

// UpdateTodo updates a todo the actor is allowed to modify.
func UpdateTodo(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	todo, ok := findTodoOr404(c)
	if !ok {
		return
	}

	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	in := req.input()
	errs, err := validation.Validate(in, validation.TodoRules())
	if err != nil {
		log.Printf("Error validating todo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating todo"})
		return
	}
	if errs.Any() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	if !policy.CanUpdateTodo(actor, todo) {
		forbidden(c)
		return
	}

	// The owner column is never part of the update.
	_, err = database.DB.Exec(
		`UPDATE todos SET title = $1, description = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		in["title"],
		in["description"],
		todo.ID,
	)
	if err != nil {
		log.Printf("Error updating todo id=%d: %v", todo.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating todo"})
		return
	}

	redirectWithStatus(c, "/todos", "Todo update successfully")
}

// DeleteTodo permanently deletes a todo the actor is allowed to modify.
func DeleteTodo(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	todo, ok := findTodoOr404(c)
	if !ok {
		return
	}

	if !policy.CanDeleteTodo(actor, todo) {
		forbidden(c)
		return
	}

	_, err := database.DB.Exec(`DELETE FROM todos WHERE id = $1`, todo.ID)
	if err != nil {
		log.Printf("Error deleting todo id=%d: %v", todo.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting todo"})
		return
	}

	redirectWithStatus(c, "/todos", "Todo delete successfully")
}

// findTodoOr404 resolves the :id route parameter to a stored todo. It
// answers the request itself on a bad ID or a missing row, mirroring
// route-model binding: not-found fires before any handler logic.
func findTodoOr404(c *gin.Context) (models.Todo, bool) {
	todoID, err := strconv.Atoi(c.Param("id"))
	if err != nil || todoID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid todo ID"})
		return models.Todo{}, false
	}

	var todo models.Todo
	err = database.DB.QueryRow(
		`SELECT id, title, description, user_id, created_at, updated_at FROM todos WHERE id = $1`,
		todoID,
	).Scan(
		&todo.ID,
		&todo.Title,
		&todo.Description,
		&todo.UserID,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return models.Todo{}, false
		}
		log.Printf("Error finding todo id=%d: %v", todoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error finding todo"})
		return models.Todo{}, false
	}

	return todo, true
}

// forbidden is the terminal denial outcome: no mutation happened, and
// nothing beyond the generic signal leaks about the resource.
func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "This action is unauthorized."})
}
