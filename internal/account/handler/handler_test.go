package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"territorial/internal/account"
	"territorial/internal/account/handler/mocks"
	"territorial/internal/profile"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	caller  id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.caller = id.NewUserID()

	h := New(s.service, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(testutil.AsUser(s.caller))
		h.Register(r)
	})
	s.router = r
}

func (s *HandlerSuite) do(path, body string) *httptest.ResponseRecorder {
	return testutil.Do(s.router, http.MethodPost, path, body)
}

func (s *HandlerSuite) TestDeleteAccount() {
	target := id.NewUserID()
	body := `{"userIdToDelete":"` + target.String() + `"}`

	s.Run("success", func() {
		s.service.EXPECT().DeleteAccount(gomock.Any(), s.caller, target).Return(nil)
		rec := s.do("/deleteUserAccount", body)
		s.Equal(http.StatusOK, rec.Code)
		s.True(testutil.DecodeJSON[DeleteAccountResponse](s.T(), rec).Success)
	})

	s.Run("administrator deleting self is forbidden", func() {
		s.service.EXPECT().DeleteAccount(gomock.Any(), s.caller, target).
			Return(dErrors.New(dErrors.CodeForbiddenSelfDelete, "administrators cannot delete their own account"))
		rec := s.do("/deleteUserAccount", body)
		testutil.AssertError(s.T(), rec, http.StatusForbidden, "forbidden_self_delete")
	})

	s.Run("missing target", func() {
		rec := s.do("/deleteUserAccount", `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestRegisterMember() {
	cong := id.NewCongregationID()
	uid := id.NewUserID()
	s.service.EXPECT().RegisterMember(gomock.Any(), account.RegisterRequest{
		CongregationID: cong, Name: "Luna", Email: "luna@example.org", Password: "password123",
	}).Return(&profile.Profile{ID: uid, Status: id.UserStatusPending}, nil)

	rec := s.do("/registerMember", `{"congregationId":"`+cong.String()+`","name":"Luna","email":"luna@example.org","password":"password123"}`)
	s.Equal(http.StatusCreated, rec.Code)
	resp := testutil.DecodeJSON[RegisterMemberResponse](s.T(), rec)
	s.Equal(uid, resp.UserID)
	s.Equal(id.UserStatusPending, resp.Status)

	rec = s.do("/registerMember", `{"congregationId":"nope","email":"luna@example.org","password":"x"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestToken() {
	s.service.EXPECT().IssueToken(gomock.Any(), "m@example.org", "password123").
		Return(&account.Token{AccessToken: "abc", TokenType: "Bearer", ExpiresIn: 3600}, nil)
	rec := s.do("/auth/token", `{"email":"m@example.org","password":"password123"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("no-store", rec.Header().Get("Cache-Control"))
	s.Contains(rec.Body.String(), `"access_token":"abc"`)

	s.service.EXPECT().IssueToken(gomock.Any(), "m@example.org", "bad").
		Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
	rec = s.do("/auth/token", `{"email":"m@example.org","password":"bad"}`)
	testutil.AssertError(s.T(), rec, http.StatusUnauthorized, "unauthorized")

	s.service.EXPECT().IssueToken(gomock.Any(), "m@example.org", "password123").
		Return(nil, dErrors.New(dErrors.CodeRateLimited, "too many failed sign-in attempts"))
	rec = s.do("/auth/token", `{"email":"m@example.org","password":"password123"}`)
	testutil.AssertError(s.T(), rec, http.StatusTooManyRequests, "rate_limited")
}
