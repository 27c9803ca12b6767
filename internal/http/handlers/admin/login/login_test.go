package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mtuszynski/magazine-subscription/internal/models"
	"github.com/mtuszynski/magazine-subscription/internal/services/auth"
)

// MockService реализует интерфейс login.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func TestLoginHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "успешный вход",
			requestBody:    models.DummyLogin{Username: "admin", Password: "secret"},
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "admin", "secret").Return("signed-token", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"token":"signed-token","username":"admin"}}`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "ошибка валидации - нет пароля",
			requestBody:    models.DummyLogin{Username: "admin"},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Password is a required field"}`,
		},
		{
			name:        "неверные учетные данные",
			requestBody: models.DummyLogin{Username: "admin", Password: "wrong"},
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "admin", "wrong").
					Return("", auth.ErrInvalidCredentials).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"invalid credentials"}`,
		},
		{
			name:        "ошибка сервиса",
			requestBody: models.DummyLogin{Username: "admin", Password: "secret"},
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "admin", "secret").
					Return("", errors.New("jwt signing error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not login"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockService)
			tt.setupMock(mockSvc)

			handler := New(logger, mockSvc)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			mockSvc.AssertExpectations(t)
		})
	}
}
