package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/playgate/internal/model"
)

// DefaultMediaID is the title every fresh catalog carries
const DefaultMediaID model.MediaID = "interestelar"

// Service serves static media descriptions
type Service struct {
	mu    sync.RWMutex
	items map[model.MediaID]model.Media
}

// New creates an empty Service
func New() *Service {
	return &Service{
		items: make(map[model.MediaID]model.Media),
	}
}

// NewSeeded creates a Service holding the built-in titles
func NewSeeded() *Service {
	s := New()
	s.Load(Seed()...)
	return s
}

// Load adds or replaces items
func (s *Service) Load(items ...model.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range items {
		s.items[m.ID] = m
	}
}

// fileEntry is the on-disk shape of one catalog entry
type fileEntry struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Year            int      `json:"year"`
	RuntimeMinutes  int      `json:"runtime_minutes"`
	Genres          []string `json:"genres"`
	Synopsis        string   `json:"synopsis"`
	SourceURL       string   `json:"source_url"`
	Director        string   `json:"director"`
	Writers         []string `json:"writers"`
	ReleaseDate     string   `json:"release_date"`
	ApprovalPercent int      `json:"approval_percent"`
	Cast            []string `json:"cast"`
	Recommendations []string `json:"recommendations"`
}

// LoadFromFile loads a JSON array of media entries. Release dates use
// YYYY-MM-DD.
func (s *Service) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}

	items := make([]model.Media, 0, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("parse catalog %s: entry %d has no id", path, i)
		}
		m := model.Media{
			ID:              model.MediaID(e.ID),
			Title:           e.Title,
			Year:            e.Year,
			RuntimeMinutes:  e.RuntimeMinutes,
			Genres:          e.Genres,
			Synopsis:        e.Synopsis,
			SourceURL:       e.SourceURL,
			Director:        e.Director,
			Writers:         e.Writers,
			ApprovalPercent: e.ApprovalPercent,
		}
		if e.ReleaseDate != "" {
			m.ReleaseDate, err = time.Parse(time.DateOnly, e.ReleaseDate)
			if err != nil {
				return fmt.Errorf("parse catalog %s: entry %q: %w", path, e.ID, err)
			}
		}
		for _, name := range e.Cast {
			m.Cast = append(m.Cast, model.CastMember{Name: name})
		}
		for _, rec := range e.Recommendations {
			m.Recommendations = append(m.Recommendations, model.MediaID(rec))
		}
		items = append(items, m)
	}

	s.Load(items...)
	return nil
}

// Get returns the media with the given ID
func (s *Service) Get(_ context.Context, id model.MediaID) (*model.Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.items[id]
	if !ok {
		return nil, model.ErrMediaNotFound
	}
	return &m, nil
}

// Exists reports whether id is in the catalog
func (s *Service) Exists(id model.MediaID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// IDs returns every media ID in sorted order
func (s *Service) IDs() []model.MediaID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]model.MediaID, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Seed returns the built-in titles: one feature and its placeholder
// recommendations
func Seed() []model.Media {
	recs := make([]model.MediaID, 0, 6)
	items := []model.Media{{
		ID:             DefaultMediaID,
		Title:          "Interestelar",
		Year:           2014,
		RuntimeMinutes: 169,
		Genres:         []string{"Ficção Científica", "Aventura", "Drama"},
		Synopsis: "Em um futuro onde a Terra está se tornando inabitável, um grupo de astronautas " +
			"viaja através de um buraco de minhoca em busca de um novo lar para a humanidade.",
		SourceURL:       "https://stream.mux.com/bcckPC8qQ7NFSmiwbOFYxxh9HenhroiCfd6n7RsJTOQ.m3u8",
		Director:        "Christopher Nolan",
		Writers:         []string{"Jonathan Nolan", "Christopher Nolan"},
		ReleaseDate:     time.Date(2014, time.November, 7, 0, 0, 0, 0, time.UTC),
		ApprovalPercent: 94,
		Cast: []model.CastMember{
			{Name: "Matthew McConaughey"},
			{Name: "Anne Hathaway"},
			{Name: "Jessica Chastain"},
			{Name: "Michael Caine"},
		},
	}}

	for i := 1; i <= 6; i++ {
		id := model.MediaID(fmt.Sprintf("filme-%d", i))
		recs = append(recs, id)
		items = append(items, model.Media{
			ID:    id,
			Title: fmt.Sprintf("Filme %d", i),
		})
	}
	items[0].Recommendations = recs
	return items
}
