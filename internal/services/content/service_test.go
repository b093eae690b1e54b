package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ravenkeep/townsquare/internal/model"
)

const troubleBrewingJSON = `{
	"roles": {
		"Townsfolk": {
			"Washerwoman": ["washerwoman", "You start knowing that one of two players is a particular Townsfolk."],
			"Librarian": ["librarian", "You start knowing that one of two players is a particular Outsider."]
		},
		"Demon": {
			"Imp": ["imp", "Each night, choose a player: they die."]
		}
	},
	"nightorder": ["Poisoner", "Washerwoman", "Librarian", "Imp"]
}`

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

func (s *ServiceSuite) writeEdition(dir, name, content string) {
	err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestLoadDir() {
	dir := s.T().TempDir()
	s.writeEdition(dir, "trouble-brewing", troubleBrewingJSON)
	s.writeEdition(dir, "empty", `{"roles": {}, "nightorder": []}`)

	err := s.service.LoadDir(dir)
	s.Require().NoError(err)
	s.True(s.service.IsLoaded())
	s.ElementsMatch([]string{"trouble-brewing", "empty"}, s.service.Editions())
}

func (s *ServiceSuite) TestLoadDirSkipsNonJSON() {
	dir := s.T().TempDir()
	s.writeEdition(dir, "trouble-brewing", troubleBrewingJSON)
	err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644)
	s.Require().NoError(err)

	s.Require().NoError(s.service.LoadDir(dir))
	s.ElementsMatch([]string{"trouble-brewing"}, s.service.Editions())
}

func (s *ServiceSuite) TestEditionNotLoaded() {
	_, err := s.service.Edition("trouble-brewing")
	s.ErrorIs(err, model.ErrContentNotLoaded)
}

func (s *ServiceSuite) TestEditionNotFound() {
	dir := s.T().TempDir()
	s.writeEdition(dir, "trouble-brewing", troubleBrewingJSON)
	s.Require().NoError(s.service.LoadDir(dir))

	_, err := s.service.Edition("sects-and-violets")
	s.ErrorIs(err, model.ErrEditionNotFound)
}

func (s *ServiceSuite) TestRoleData() {
	dir := s.T().TempDir()
	s.writeEdition(dir, "trouble-brewing", troubleBrewingJSON)
	s.Require().NoError(s.service.LoadDir(dir))

	data, err := s.service.RoleData("trouble-brewing", model.RoleRef{
		Category: "Townsfolk",
		Role:     "Washerwoman",
	})
	s.Require().NoError(err)
	s.Require().Len(data, 2)
	s.Equal("washerwoman", data[0])
}

func (s *ServiceSuite) TestRoleDataUnknownRole() {
	dir := s.T().TempDir()
	s.writeEdition(dir, "trouble-brewing", troubleBrewingJSON)
	s.Require().NoError(s.service.LoadDir(dir))

	_, err := s.service.RoleData("trouble-brewing", model.RoleRef{
		Category: "Townsfolk",
		Role:     "Undertaker",
	})
	s.ErrorIs(err, model.ErrEditionNotFound)
}

func (s *ServiceSuite) TestNightOrder() {
	dir := s.T().TempDir()
	s.writeEdition(dir, "trouble-brewing", troubleBrewingJSON)
	s.Require().NoError(s.service.LoadDir(dir))

	order, err := s.service.NightOrder("trouble-brewing")
	s.Require().NoError(err)
	s.Equal([]string{"Poisoner", "Washerwoman", "Librarian", "Imp"}, order)
}

func (s *ServiceSuite) TestLoadEditionDirect() {
	s.service.LoadEdition("custom", &model.Edition{
		Roles: map[string]map[string]model.RoleData{
			"Townsfolk": {"Chef": {"chef", "You start knowing how many pairs of evil players there are."}},
		},
	})

	data, err := s.service.RoleData("custom", model.RoleRef{Category: "Townsfolk", Role: "Chef"})
	s.Require().NoError(err)
	s.Equal("chef", data[0])
}
