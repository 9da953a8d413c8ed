package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func setupAuthConfig() {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
}

func TestAuthService_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()
	service := NewAuthService(db, nil)

	t.Run("successful registration", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("test@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "Jane Doe", "test@example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		body, _ := json.Marshal(RegisterRequest{
			Name:     "Jane Doe",
			Email:    "Test@Example.com",
			Password: "password123",
		})
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "test@example.com", response.User.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("taken@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		body, _ := json.Marshal(RegisterRequest{
			Name:     "Jane Doe",
			Email:    "taken@example.com",
			Password: "password123",
		})
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer([]byte("invalid")))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		body, _ := json.Marshal(RegisterRequest{
			Name:     "Jane Doe",
			Email:    "test@example.com",
			Password: "short",
		})
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()
	service := NewAuthService(db, nil)

	t.Run("successful login", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, name, email, password, created_at FROM users").
			WithArgs("test@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at"}).
				AddRow("user1", "Jane Doe", "test@example.com", hashedPassword, time.Now()))
		mock.ExpectExec("UPDATE users SET last_login").
			WithArgs("user1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		body, _ := json.Marshal(LoginRequest{
			Email:    "test@example.com",
			Password: "password123",
		})
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, email, password, created_at FROM users").
			WithArgs("nonexistent@example.com").
			WillReturnError(sql.ErrNoRows)

		body, _ := json.Marshal(LoginRequest{
			Email:    "nonexistent@example.com",
			Password: "password123",
		})
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, name, email, password, created_at FROM users").
			WithArgs("test@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at"}).
				AddRow("user1", "Jane Doe", "test@example.com", hashedPassword, time.Now()))

		body, _ := json.Marshal(LoginRequest{
			Email:    "test@example.com",
			Password: "wrongpassword",
		})
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("external identity account cannot use credential login", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, email, password, created_at FROM users").
			WithArgs("oauth@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at"}).
				AddRow("user2", "OAuth User", "oauth@example.com", nil, time.Now()))

		body, _ := json.Marshal(LoginRequest{
			Email:    "oauth@example.com",
			Password: "password123",
		})
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthService_Logout(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()

	t.Run("blacklists the presented token", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service := NewAuthService(db, redisClient)

		redisMock.ExpectSet("blacklist:sometoken", "1", 24*time.Hour).SetVal("OK")

		r := httptest.NewRequest("POST", "/auth/logout", nil)
		r.Header.Set("Authorization", "Bearer sometoken")
		w := httptest.NewRecorder()

		service.Logout(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("succeeds without redis", func(t *testing.T) {
		service := NewAuthService(db, nil)

		r := httptest.NewRequest("POST", "/auth/logout", nil)
		r.Header.Set("Authorization", "Bearer sometoken")
		w := httptest.NewRecorder()

		service.Logout(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()
	service := NewAuthService(db, nil)

	t.Run("verifies current password before storing new hash", func(t *testing.T) {
		currentHash, _ := hashPassword("oldpassword")

		mock.ExpectQuery("SELECT password FROM users WHERE id = \\$1").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(currentHash))
		mock.ExpectExec("UPDATE users SET password").
			WithArgs(sqlmock.AnyArg(), "user1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		body, _ := json.Marshal(map[string]string{
			"currentPassword": "oldpassword",
			"newPassword":     "newpassword",
		})
		r := httptest.NewRequest("POST", "/user/change-password", bytes.NewBuffer(body))
		r = r.WithContext(context.WithValue(r.Context(), "userID", "user1"))
		w := httptest.NewRecorder()

		service.ChangePassword(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong current password is rejected", func(t *testing.T) {
		currentHash, _ := hashPassword("oldpassword")

		mock.ExpectQuery("SELECT password FROM users WHERE id = \\$1").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(currentHash))

		body, _ := json.Marshal(map[string]string{
			"currentPassword": "wrongpassword",
			"newPassword":     "newpassword",
		})
		r := httptest.NewRequest("POST", "/user/change-password", bytes.NewBuffer(body))
		r = r.WithContext(context.WithValue(r.Context(), "userID", "user1"))
		w := httptest.NewRecorder()

		service.ChangePassword(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPasswordHashing(t *testing.T) {
	setupAuthConfig()

	password := "testpassword"

	hashed, err := hashPassword(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hashed)

	assert.True(t, verifyPassword(password, hashed))
	assert.False(t, verifyPassword("wrongpassword", hashed))
}

func TestGenerateJWT(t *testing.T) {
	setupAuthConfig()

	token, err := generateJWT("user1")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}
