package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/mozik-app/mozik/internal/services"
	"github.com/mozik-app/mozik/internal/sessions"
)

func postForm(t *testing.T, handler http.HandlerFunc, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestSignupPageHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	NewSignupPageHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/signup", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `action="/signup"`)
}

func TestSignupHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name           string
		form           url.Values
		mockSetup      func(m *MockRegisterer)
		expectedCode   int
		expectedBody   string
		expectedTarget string
	}{
		{
			name: "success redirects to login",
			form: url.Values{"email": {"john@example.com"}, "password": {"secret"}},
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().
					Register(gomock.Any(), "john@example.com", "secret").
					Return(nil)
			},
			expectedCode:   http.StatusFound,
			expectedTarget: "/login",
		},
		{
			name: "missing fields",
			form: url.Values{"email": {""}, "password": {""}},
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().
					Register(gomock.Any(), "", "").
					Return(services.ErrFieldsRequired)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: "Email and password are required",
		},
		{
			name: "email taken",
			form: url.Values{"email": {"alice@example.com"}, "password": {"pass"}},
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().
					Register(gomock.Any(), "alice@example.com", "pass").
					Return(services.ErrEmailAlreadyExists)
			},
			expectedCode: http.StatusConflict,
			expectedBody: "already exists",
		},
		{
			name: "internal server error",
			form: url.Values{"email": {"bob@example.com"}, "password": {"pass"}},
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().
					Register(gomock.Any(), "bob@example.com", "pass").
					Return(errors.New("database failure"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := NewMockRegisterer(ctrl)
			tt.mockSetup(mockSvc)

			rr := postForm(t, NewSignupHandler(mockSvc), "/signup", tt.form)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rr.Body.String(), tt.expectedBody)
			}
			if tt.expectedTarget != "" {
				assert.Equal(t, tt.expectedTarget, rr.Header().Get("Location"))
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success sets cookie and redirects", func(t *testing.T) {
		mockSvc := NewMockLoginer(ctrl)
		mockStore := NewMockSessionManager(ctrl)

		mockSvc.EXPECT().
			Login(gomock.Any(), "john@example.com", "secret").
			Return(int64(7), nil)
		mockStore.EXPECT().
			Create(gomock.Any(), int64(7)).
			Return("sid-123", nil)

		rr := postForm(t, NewLoginHandler(mockSvc, mockStore), "/login",
			url.Values{"email": {"john@example.com"}, "password": {"secret"}})

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/mypage", rr.Header().Get("Location"))

		cookies := rr.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Equal(t, sessions.CookieName, cookies[0].Name)
		assert.Equal(t, "sid-123", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockSvc := NewMockLoginer(ctrl)
		mockStore := NewMockSessionManager(ctrl)

		mockSvc.EXPECT().
			Login(gomock.Any(), "john@example.com", "wrong").
			Return(int64(0), services.ErrInvalidCredentials)

		rr := postForm(t, NewLoginHandler(mockSvc, mockStore), "/login",
			url.Values{"email": {"john@example.com"}, "password": {"wrong"}})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid email or password")
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("session store failure", func(t *testing.T) {
		mockSvc := NewMockLoginer(ctrl)
		mockStore := NewMockSessionManager(ctrl)

		mockSvc.EXPECT().
			Login(gomock.Any(), "john@example.com", "secret").
			Return(int64(7), nil)
		mockStore.EXPECT().
			Create(gomock.Any(), int64(7)).
			Return("", errors.New("redis down"))

		rr := postForm(t, NewLoginHandler(mockSvc, mockStore), "/login",
			url.Values{"email": {"john@example.com"}, "password": {"secret"}})

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("destroys session and clears cookie", func(t *testing.T) {
		mockStore := NewMockSessionManager(ctrl)
		mockStore.EXPECT().Destroy(gomock.Any(), "sid-123").Return(nil)

		req := httptest.NewRequest(http.MethodGet, "/logout", nil)
		req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: "sid-123"})
		rr := httptest.NewRecorder()

		NewLogoutHandler(mockStore).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))

		cookies := rr.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("without a session still redirects", func(t *testing.T) {
		mockStore := NewMockSessionManager(ctrl)

		req := httptest.NewRequest(http.MethodGet, "/logout", nil)
		rr := httptest.NewRecorder()

		NewLogoutHandler(mockStore).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
	})
}
