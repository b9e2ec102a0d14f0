package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/playgate/internal/model"
)

const detailPage = `<!doctype html>
<html><body>
<main>
  <div class="mb-6">
    <h1 class="text-2xl">Interestelar</h1>
    <div class="text-sm"><span>2014</span> • <span>2h 49min</span> • <span>Ficção Científica, Aventura, Drama</span></div>
  </div>
  <video src="https://stream.example/interestelar.m3u8"></video>
  <div>
    <h2>Sinopse</h2>
    <p>Em um futuro onde a Terra está se tornando inabitável,
       um grupo de astronautas viaja através de um buraco de minhoca.</p>
  </div>
  <div>
    <h2>Elenco</h2>
    <div>
      <div><div class="avatar"></div><p>Matthew McConaughey</p></div>
      <div><div class="avatar"></div><p>Anne Hathaway</p></div>
    </div>
  </div>
  <div>
    <h2>Detalhes</h2>
    <ul>
      <li><span>Diretor:</span> Christopher Nolan</li>
      <li><span>Roteiristas:</span> Jonathan Nolan, Christopher Nolan</li>
      <li><span>Estreia:</span> 7 de novembro de 2014</li>
    </ul>
  </div>
  <div>
    <h2>Avaliações</h2>
    <div><span>94%</span> <span>gostaram deste filme</span></div>
  </div>
  <div>
    <h2>Recomendados</h2>
    <div><img alt="Filme 1" src="a.svg"><img alt="Filme 2" src="b.svg"></div>
  </div>
</main>
</body></html>`

func TestParsePage(t *testing.T) {
	m, err := ParsePage("interestelar", strings.NewReader(detailPage))
	require.NoError(t, err)

	assert.Equal(t, model.MediaID("interestelar"), m.ID)
	assert.Equal(t, "Interestelar", m.Title)
	assert.Equal(t, 2014, m.Year)
	assert.Equal(t, 169, m.RuntimeMinutes)
	assert.Equal(t, []string{"Ficção Científica", "Aventura", "Drama"}, m.Genres)
	assert.Equal(t, "https://stream.example/interestelar.m3u8", m.SourceURL)
	assert.True(t, strings.HasPrefix(m.Synopsis, "Em um futuro onde a Terra"))
	assert.NotContains(t, m.Synopsis, "\n")
	assert.Equal(t, []model.CastMember{{Name: "Matthew McConaughey"}, {Name: "Anne Hathaway"}}, m.Cast)
	assert.Equal(t, "Christopher Nolan", m.Director)
	assert.Equal(t, []string{"Jonathan Nolan", "Christopher Nolan"}, m.Writers)
	assert.Equal(t, time.Date(2014, time.November, 7, 0, 0, 0, 0, time.UTC), m.ReleaseDate)
	assert.Equal(t, 94, m.ApprovalPercent)
	assert.Equal(t, []model.MediaID{"filme-1", "filme-2"}, m.Recommendations)
}

func TestParsePageWithoutTitle(t *testing.T) {
	_, err := ParsePage("x", strings.NewReader("<html><body><p>nothing</p></body></html>"))
	assert.Error(t, err)
}

func TestParsePageMinimal(t *testing.T) {
	m, err := ParsePage("short", strings.NewReader("<h1>Curta</h1>"))
	require.NoError(t, err)

	assert.Equal(t, "Curta", m.Title)
	assert.Zero(t, m.RuntimeMinutes)
	assert.Empty(t, m.Cast)
}

func TestParseRuntime(t *testing.T) {
	assert.Equal(t, 169, parseRuntime("2h 49min"))
	assert.Equal(t, 120, parseRuntime("2h"))
	assert.Equal(t, 45, parseRuntime("45min"))
	assert.Zero(t, parseRuntime("longo"))
}

func TestParseReleaseDate(t *testing.T) {
	d, ok := parseReleaseDate("1 de março de 2020")
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), d)

	_, ok = parseReleaseDate("7 of November 2014")
	assert.False(t, ok)
}

func TestLoadFromPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(detailPage), 0o600))

	s := New()
	require.NoError(t, s.LoadFromPage("imported", path))
	assert.True(t, s.Exists("imported"))

	assert.Error(t, s.LoadFromPage("missing", filepath.Join(t.TempDir(), "nope.html")))
}
