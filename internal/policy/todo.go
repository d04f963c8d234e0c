// Package policy holds the authorization predicates. Handlers branch on
// these and never inline the ownership checks themselves.
package policy

import (
	"github.com/rakhaaa/todo-breeze-blade/internal/models"
)

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID   int
	Role models.Role
}

// CanUpdateTodo reports whether the actor may update the todo.
func CanUpdateTodo(actor Actor, todo models.Todo) bool {
	return allowsTodo(actor, todo.UserID)
}

// CanDeleteTodo reports whether the actor may delete the todo.
func CanDeleteTodo(actor Actor, todo models.Todo) bool {
	return allowsTodo(actor, todo.UserID)
}

func allowsTodo(actor Actor, ownerID int) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return actor.ID == ownerID
	default:
		// Unknown roles get nothing.
		return false
	}
}
