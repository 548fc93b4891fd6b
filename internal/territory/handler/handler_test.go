package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"territorial/internal/territory/handler/mocks"
	"territorial/internal/territory/service"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/httputil"
	"territorial/pkg/requestcontext"
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

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(requestcontext.WithUserID(req.Context(), s.caller)))
		})
	})
	New(s.service, zap.NewNop()).Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestResetProgress() {
	cong := id.NewCongregationID()
	terr := id.NewTerritoryID()
	body := `{"congregationId":"` + cong.String() + `","territoryId":"` + terr.String() + `"}`

	s.Run("success reports changed count", func() {
		s.service.EXPECT().ResetProgress(gomock.Any(), s.caller, cong, terr).Return(int64(12), nil)
		rec := s.do(http.MethodPost, "/resetTerritoryProgress", body)
		s.Equal(http.StatusOK, rec.Code)

		var resp ResetProgressResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.True(resp.Success)
		s.Equal(int64(12), resp.ChangedCount)
	})

	s.Run("nothing to reset is still success", func() {
		s.service.EXPECT().ResetProgress(gomock.Any(), s.caller, cong, terr).Return(int64(0), nil)
		rec := s.do(http.MethodPost, "/resetTerritoryProgress", body)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"changedCount":0`)
	})

	s.Run("missing field is rejected before the service", func() {
		rec := s.do(http.MethodPost, "/resetTerritoryProgress", `{"territoryId":"`+terr.String()+`"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed id", func() {
		rec := s.do(http.MethodPost, "/resetTerritoryProgress", `{"congregationId":"x","territoryId":"y"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	for name, tc := range map[string]struct {
		err    error
		status int
	}{
		"not administrator": {dErrors.New(dErrors.CodeForbidden, "administrator role required"), http.StatusForbidden},
		"unknown caller":    {dErrors.New(dErrors.CodeUnauthorized, "caller profile not found"), http.StatusUnauthorized},
		"territory missing": {dErrors.New(dErrors.CodeNotFound, "territory not found"), http.StatusNotFound},
		"store failure":     {dErrors.New(dErrors.CodeInternal, "failed"), http.StatusInternalServerError},
	} {
		s.Run(name, func() {
			s.service.EXPECT().ResetProgress(gomock.Any(), s.caller, cong, terr).Return(int64(0), tc.err)
			rec := s.do(http.MethodPost, "/resetTerritoryProgress", body)
			s.Equal(tc.status, rec.Code)

			var resp httputil.ErrorResponse
			s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
			s.NotEmpty(resp.Error)
		})
	}
}

func (s *HandlerSuite) TestMarkHouseRequiresDone() {
	house := id.NewHouseID()
	rec := s.do(http.MethodPut, "/houses/"+house.String(), `{"notes":"x"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	s.service.EXPECT().MarkHouse(gomock.Any(), s.caller, house, gomock.Any()).DoAndReturn(
		func(_ any, _ id.UserID, _ id.HouseID, u service.HouseUpdate) (bool, error) {
			s.True(u.Done)
			s.Nil(u.Notes)
			return true, nil
		})
	rec = s.do(http.MethodPut, "/houses/"+house.String(), `{"done":true}`)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"changed":true}`, rec.Body.String())
}

func TestAssignRequestValidate(t *testing.T) {
	req := &AssignRequest{AssigneeID: id.NewUserID().String(), DurationDays: 0}
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	req.DurationDays = 14
	require.NoError(t, req.Validate())
	assert.Equal(t, req.AssigneeID, req.assigneeID.String())
}
