package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/fintrack/backend/internal/services"
)

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	return r.WithContext(context.WithValue(r.Context(), "userID", userID))
}

func TestDebtHandler_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewDebtHandler(services.NewDebtService(db))

	t.Run("creates a debt and returns 201", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO debts").
			WillReturnResult(sqlmock.NewResult(1, 1))

		body, _ := json.Marshal(map[string]any{
			"title":       "Car loan",
			"totalAmount": "5000",
			"creditor":    "Bank",
			"startDate":   time.Now().Format(time.RFC3339),
		})
		w := httptest.NewRecorder()

		handler.Create(w, authedRequest("POST", "/debts", body, "user1"))

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]any
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, "Car loan", resp["title"])
		assert.Equal(t, false, resp["isPaid"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing title fails validation", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"totalAmount": "5000",
			"startDate":   time.Now().Format(time.RFC3339),
		})
		w := httptest.NewRecorder()

		handler.Create(w, authedRequest("POST", "/debts", body, "user1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		body := []byte(`{"title":"Car loan","totalAmount":"5000","startDate":"2024-06-01T00:00:00Z","surprise":true}`)
		w := httptest.NewRecorder()

		handler.Create(w, authedRequest("POST", "/debts", body, "user1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no user in context is unauthorized", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"title": "Car loan"})
		r := httptest.NewRequest("POST", "/debts", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Create(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-positive total maps to 400", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"title":       "Car loan",
			"totalAmount": "0",
			"startDate":   time.Now().Format(time.RFC3339),
		})
		w := httptest.NewRecorder()

		handler.Create(w, authedRequest("POST", "/debts", body, "user1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDebtHandler_ApplyPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewDebtHandler(services.NewDebtService(db))

	t.Run("returns the payment and the updated debt together", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("debt1").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "title", "total_amount", "remaining",
				"creditor", "start_date", "due_date", "is_paid", "created_at",
			}).AddRow("debt1", "user1", "Car loan", "5000", "5000", "Bank", time.Now(), nil, false, time.Now()))
		mock.ExpectExec("INSERT INTO debt_payments").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE debts SET remaining").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("FROM debt_payments").
			WithArgs("debt1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "debt_id", "amount", "date", "notes", "created_at"}).
				AddRow("pay1", "debt1", "2000", time.Now(), "", time.Now()))

		body, _ := json.Marshal(map[string]any{
			"debtId": "debt1",
			"amount": "2000",
			"date":   time.Now().Format(time.RFC3339),
		})
		w := httptest.NewRecorder()

		handler.ApplyPayment(w, authedRequest("POST", "/debts/payments", body, "user1"))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Payment map[string]any `json:"payment"`
			Debt    map[string]any `json:"debt"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, "debt1", resp.Payment["debtId"])
		assert.Equal(t, "3000", resp.Debt["remaining"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing debtId fails validation", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"amount": "2000",
			"date":   time.Now().Format(time.RFC3339),
		})
		w := httptest.NewRecorder()

		handler.ApplyPayment(w, authedRequest("POST", "/debts/payments", body, "user1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown debt maps to 404", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "title", "total_amount", "remaining",
				"creditor", "start_date", "due_date", "is_paid", "created_at",
			}))
		mock.ExpectRollback()

		body, _ := json.Marshal(map[string]any{
			"debtId": "nope",
			"amount": "2000",
			"date":   time.Now().Format(time.RFC3339),
		})
		w := httptest.NewRecorder()

		handler.ApplyPayment(w, authedRequest("POST", "/debts/payments", body, "user1"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure maps to 503", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(assert.AnError)

		body, _ := json.Marshal(map[string]any{
			"debtId": "debt1",
			"amount": "2000",
			"date":   time.Now().Format(time.RFC3339),
		})
		w := httptest.NewRecorder()

		handler.ApplyPayment(w, authedRequest("POST", "/debts/payments", body, "user1"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
