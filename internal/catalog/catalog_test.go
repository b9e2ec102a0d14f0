package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playgate/internal/model"
)

type CatalogSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.service = NewSeeded()
	s.ctx = context.Background()
}

func (s *CatalogSuite) writeFile(content string) string {
	path := filepath.Join(s.T().TempDir(), "catalog.json")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *CatalogSuite) TestSeededFeature() {
	m, err := s.service.Get(s.ctx, DefaultMediaID)
	s.Require().NoError(err)

	s.Equal("Interestelar", m.Title)
	s.Equal(2014, m.Year)
	s.Equal("2h 49min", m.Runtime())
	s.Equal([]string{"Ficção Científica", "Aventura", "Drama"}, m.Genres)
	s.Len(m.Cast, 4)
	s.Equal("Christopher Nolan", m.Director)
	s.Equal(94, m.ApprovalPercent)
	s.Contains(m.SourceURL, ".m3u8")
}

func (s *CatalogSuite) TestRecommendationsResolve() {
	m, err := s.service.Get(s.ctx, DefaultMediaID)
	s.Require().NoError(err)
	s.Require().Len(m.Recommendations, 6)

	for _, id := range m.Recommendations {
		s.True(s.service.Exists(id), "recommendation %s missing", id)
	}
}

func (s *CatalogSuite) TestGetUnknown() {
	_, err := s.service.Get(s.ctx, "missing")
	s.ErrorIs(err, model.ErrMediaNotFound)
	s.False(s.service.Exists("missing"))
}

func (s *CatalogSuite) TestGetReturnsCopy() {
	m, err := s.service.Get(s.ctx, DefaultMediaID)
	s.Require().NoError(err)
	m.Title = "changed"

	again, err := s.service.Get(s.ctx, DefaultMediaID)
	s.Require().NoError(err)
	s.Equal("Interestelar", again.Title)
}

func (s *CatalogSuite) TestIDsSorted() {
	ids := s.service.IDs()
	s.Len(ids, 7)
	s.Equal(model.MediaID("filme-1"), ids[0])
	s.Equal(DefaultMediaID, ids[len(ids)-1])
}

func (s *CatalogSuite) TestLoadFromFile() {
	path := s.writeFile(`[
		{"id": "tenet", "title": "Tenet", "year": 2020, "runtime_minutes": 150,
		 "release_date": "2020-08-26", "cast": ["John David Washington"],
		 "recommendations": ["interestelar"]}
	]`)

	s.Require().NoError(s.service.LoadFromFile(path))

	m, err := s.service.Get(s.ctx, "tenet")
	s.Require().NoError(err)
	s.Equal("Tenet", m.Title)
	s.Equal("2h 30min", m.Runtime())
	s.Equal(time.Date(2020, 8, 26, 0, 0, 0, 0, time.UTC), m.ReleaseDate)
	s.Equal([]model.CastMember{{Name: "John David Washington"}}, m.Cast)
	s.Equal([]model.MediaID{DefaultMediaID}, m.Recommendations)
}

func (s *CatalogSuite) TestLoadFromFileRejectsMissingID() {
	path := s.writeFile(`[{"title": "Nameless"}]`)
	s.Error(s.service.LoadFromFile(path))
}

func (s *CatalogSuite) TestLoadFromFileRejectsBadDate() {
	path := s.writeFile(`[{"id": "x", "release_date": "7 de novembro"}]`)
	s.Error(s.service.LoadFromFile(path))
	s.False(s.service.Exists("x"))
}

func (s *CatalogSuite) TestLoadFromMissingFile() {
	s.Error(s.service.LoadFromFile(filepath.Join(s.T().TempDir(), "nope.json")))
}

func (s *CatalogSuite) TestRuntimeFormatting() {
	s.Equal("45min", (&model.Media{RuntimeMinutes: 45}).Runtime())
	s.Equal("2h", (&model.Media{RuntimeMinutes: 120}).Runtime())
}
