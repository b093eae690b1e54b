package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/services/content"
	"github.com/ravenkeep/townsquare/internal/testutil"
)

type RouterSuite struct {
	suite.Suite
	content *content.Service
	router  http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.content = content.New()
	s.router = NewRouter(RouterConfig{
		Logger:  testutil.NopLogger(),
		Content: s.content,
	})
}

func (s *RouterSuite) TestHealthz() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *RouterSuite) TestEditionFound() {
	s.content.LoadEdition("trouble-brewing", &model.Edition{
		Roles: map[string]map[string]model.RoleData{
			"Demon": {"Imp": {"imp", "Each night, choose a player: they die."}},
		},
		NightOrder: []string{"Imp"},
	})

	req := httptest.NewRequest(http.MethodGet, "/editions/trouble-brewing.json", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))

	var edition model.Edition
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &edition))
	s.Equal([]string{"Imp"}, edition.NightOrder)
	s.Contains(edition.Roles, "Demon")
}

func (s *RouterSuite) TestEditionNotFound() {
	req := httptest.NewRequest(http.MethodGet, "/editions/unknown.json", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusNotFound, rec.Code)
}
