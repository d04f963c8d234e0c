package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/rakhaaa/todo-breeze-blade/internal/middleware"
	"github.com/rakhaaa/todo-breeze-blade/internal/models"
)

func userColumns() []string {
	return []string{"id", "name", "email", "password", "role", "created_at", "updated_at"}
}

func TestNonAdminRedirectedFromUserList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.GET("/users", withTestActor(7, models.RoleUser), middleware.RequireAdmin(), ListUsers)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusSeeOther)
	if got := resp.Header().Get("Location"); got != "/todos" {
		t.Fatalf("expected redirect to /todos, got %q", got)
	}

	// The list must never be computed for a non-admin.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestListUsersOmitsPasswordHashes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, role, created_at, updated_at FROM users ORDER BY id DESC`)).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at", "updated_at"}).
				AddRow(2, "Test User", "test@example.com", "user", now, now).
				AddRow(1, "Administrator", "admin@example.com", "admin", now, now),
		)

	router := gin.New()
	router.GET("/users", withTestActor(1, models.RoleAdmin), middleware.RequireAdmin(), ListUsers)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusOK)

	var out struct {
		Users []models.User `json:"users"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if len(out.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(out.Users))
	}
	if out.Users[0].ID != 2 {
		t.Fatalf("expected newest-first ordering, got %#v", out.Users)
	}
	if strings.Contains(resp.Body.String(), "password") {
		t.Fatalf("password material leaked into the user list")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateUserSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`)).
		WithArgs("test@example.com", 0).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.
		ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("Test User", "test@example.com", sqlmock.AnyArg(), "user").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	router := gin.New()
	router.POST("/users", withTestActor(1, models.RoleAdmin), middleware.RequireAdmin(), CreateUser)

	resp := postJSON(t, router, http.MethodPost, "/users", map[string]string{
		"name":                  "Test User",
		"email":                 "test@example.com",
		"password":              "password",
		"password_confirmation": "password",
		"role":                  "user",
	})

	expectRedirect(t, resp.Result(), "/users", "User created successfully")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`)).
		WithArgs("taken@example.com", 0).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	router := gin.New()
	router.POST("/users", withTestActor(1, models.RoleAdmin), middleware.RequireAdmin(), CreateUser)

	resp := postJSON(t, router, http.MethodPost, "/users", map[string]string{
		"name":                  "Test User",
		"email":                 "taken@example.com",
		"password":              "password",
		"password_confirmation": "password",
		"role":                  "user",
	})

	mustStatus(t, resp.Code, http.StatusUnprocessableEntity)

	var out struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if len(out.Errors["email"]) != 1 || out.Errors["email"][0] != "The email has already been taken." {
		t.Fatalf("unexpected email errors: %#v", out.Errors)
	}

	// The insert must never run when validation fails.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateUserUniquenessRaceSurfacesAsValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	// The pre-check passes, then a concurrent create wins the insert.
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`)).
		WithArgs("raced@example.com", 0).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.
		ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("Test User", "raced@example.com", sqlmock.AnyArg(), "user").
		WillReturnError(&pq.Error{Code: "23505"})

	router := gin.New()
	router.POST("/users", withTestActor(1, models.RoleAdmin), middleware.RequireAdmin(), CreateUser)

	resp := postJSON(t, router, http.MethodPost, "/users", map[string]string{
		"name":                  "Test User",
		"email":                 "raced@example.com",
		"password":              "password",
		"password_confirmation": "password",
		"role":                  "user",
	})

	mustStatus(t, resp.Code, http.StatusUnprocessableEntity)

	var out struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if len(out.Errors["email"]) != 1 {
		t.Fatalf("expected the race to surface as an email error, got %#v", out.Errors)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdateUserKeepingOwnEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, role, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(9, "Old Name", "me@example.com", "hashed-password", "user", now, now))
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`)).
		WithArgs("me@example.com", 9).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.
		ExpectExec(regexp.QuoteMeta(`UPDATE users SET name = $1, email = $2, password = $3, role = $4, updated_at = CURRENT_TIMESTAMP WHERE id = $5`)).
		WithArgs("Updated Name", "me@example.com", "hashed-password", "user", 9).
		WillReturnResult(sqlmock.NewResult(0, 1))

	router := gin.New()
	router.PUT("/users/:id", withTestActor(1, models.RoleAdmin), middleware.RequireAdmin(), UpdateUser)

	resp := postJSON(t, router, http.MethodPut, "/users/9", map[string]string{
		"name":  "Updated Name",
		"email": "me@example.com",
	})

	expectRedirect(t, resp.Result(), "/users", "User update successfully")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdateUserEmailTakenByAnother(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, role, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(9, "Old Name", "me@example.com", "hashed-password", "user", now, now))
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`)).
		WithArgs("other@example.com", 9).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	router := gin.New()
	router.PUT("/users/:id", withTestActor(1, models.RoleAdmin), middleware.RequireAdmin(), UpdateUser)

	resp := postJSON(t, router, http.MethodPut, "/users/9", map[string]string{
		"email": "other@example.com",
	})

	mustStatus(t, resp.Code, http.StatusUnprocessableEntity)

	// No mutation on a validation failure.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeleteUserCascadesOwnedTodos(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, role, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(9, "Doomed User", "doomed@example.com", "hashed-password", "user", now, now))
	mock.ExpectBegin()
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id FROM users WHERE id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.
		ExpectExec(regexp.QuoteMeta(`DELETE FROM todos WHERE user_id = $1`)).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.
		ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.DELETE("/users/:id", withTestActor(1, models.RoleAdmin), middleware.RequireAdmin(), DeleteUser)

	req := httptest.NewRequest(http.MethodDelete, "/users/9", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	expectRedirect(t, resp.Result(), "/users", "User delete successfully")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, role, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	router := gin.New()
	router.DELETE("/users/:id", withTestActor(1, models.RoleAdmin), middleware.RequireAdmin(), DeleteUser)

	req := httptest.NewRequest(http.MethodDelete, "/users/99", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
