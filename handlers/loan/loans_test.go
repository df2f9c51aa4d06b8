package loan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Author{},
		&model.Book{},
		&model.Loan{},
		&model.Fine{},
	))

	return db
}

func seedLoanFixtures(t *testing.T, db *gorm.DB, copies int) (*model.User, *model.Book) {
	t.Helper()

	user := &model.User{
		Username:     "member",
		Email:        "member@example.com",
		PasswordHash: "x",
		Role:         model.RoleMember,
		Status:       model.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)

	category := &model.Category{Name: "Fiction"}
	require.NoError(t, db.Create(category).Error)

	book := &model.Book{
		Title:       "The Travels",
		ISBN:        "9780140440577",
		CategoryID:  category.ID,
		TotalCopies: copies,
	}
	require.NoError(t, db.Create(book).Error)

	return user, book
}

func newLoanApp(db *gorm.DB) *fiber.App {
	handler := NewLoanHandler(db)

	app := fiber.New()
	app.Post("/api/loans", handler.Checkout)
	app.Post("/api/loans/:id/return", handler.Return)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestCheckout_DecrementsAvailableCopies(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user, book := seedLoanFixtures(t, db, 2)
	app := newLoanApp(db)

	resp := postJSON(t, app, "/api/loans", map[string]uint{
		"userId": user.ID,
		"bookId": book.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reloaded model.Book
	require.NoError(t, db.First(&reloaded, book.ID).Error)
	assert.Equal(t, 1, reloaded.AvailableCopies)

	var loan model.Loan
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&loan).Error)
	assert.Equal(t, model.LoanActive, loan.Status)
	assert.True(t, loan.DueDate.After(loan.LoanDate))
}

func TestCheckout_FailsWhenNoCopiesLeft(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user, book := seedLoanFixtures(t, db, 1)
	app := newLoanApp(db)

	resp := postJSON(t, app, "/api/loans", map[string]uint{
		"userId": user.ID,
		"bookId": book.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/loans", map[string]uint{
		"userId": user.ID,
		"bookId": book.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&model.Loan{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReturn_RestoresAvailability(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user, book := seedLoanFixtures(t, db, 1)
	app := newLoanApp(db)

	resp := postJSON(t, app, "/api/loans", map[string]uint{
		"userId": user.ID,
		"bookId": book.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var loan model.Loan
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&loan).Error)

	resp = postJSON(t, app, fmt.Sprintf("/api/loans/%d/return", loan.ID), map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reloaded model.Book
	require.NoError(t, db.First(&reloaded, book.ID).Error)
	assert.Equal(t, 1, reloaded.AvailableCopies)

	require.NoError(t, db.First(&loan, loan.ID).Error)
	assert.Equal(t, model.LoanReturned, loan.Status)
	assert.NotNil(t, loan.ReturnDate)

	// Returning twice is rejected
	resp = postJSON(t, app, fmt.Sprintf("/api/loans/%d/return", loan.ID), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
