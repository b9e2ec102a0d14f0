package catalog

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mcoot/playgate/internal/model"
)

var (
	runtimePattern   = regexp.MustCompile(`^(?:(\d+)h)?\s*(?:(\d+)\s*min)?$`)
	percentPattern   = regexp.MustCompile(`(\d{1,3})\s*%`)
	ptReleasePattern = regexp.MustCompile(`^(\d{1,2}) de (\p{L}+) de (\d{4})$`)
)

var ptMonths = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February, "março": time.March,
	"abril": time.April, "maio": time.May, "junho": time.June,
	"julho": time.July, "agosto": time.August, "setembro": time.September,
	"outubro": time.October, "novembro": time.November, "dezembro": time.December,
}

// ParsePage extracts a media description from a saved detail page.
//
// The page layout is an h1 title followed by a "year • runtime • genres"
// line, then h2-headed sections: Sinopse, Elenco, Detalhes, Avaliações and
// Recomendados. Missing sections leave their fields empty; only the title
// is required.
func ParsePage(id model.MediaID, r io.Reader) (model.Media, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return model.Media{}, fmt.Errorf("parse page: %w", err)
	}

	m := model.Media{ID: id}

	h1 := doc.Find("h1").First()
	m.Title = clean(h1.Text())
	if m.Title == "" {
		return model.Media{}, fmt.Errorf("parse page %q: no title", id)
	}
	parseMetaLine(&m, h1.Next().Find("span"))

	if src, ok := doc.Find("video[src], video source[src]").First().Attr("src"); ok {
		m.SourceURL = src
	}

	doc.Find("h2").Each(func(_ int, h2 *goquery.Selection) {
		body := h2.Next()
		switch clean(h2.Text()) {
		case "Sinopse":
			m.Synopsis = clean(body.Text())
		case "Elenco":
			body.Find("p").Each(func(_ int, p *goquery.Selection) {
				if name := clean(p.Text()); name != "" {
					m.Cast = append(m.Cast, model.CastMember{Name: name})
				}
			})
		case "Detalhes":
			body.Find("li").Each(func(_ int, li *goquery.Selection) {
				parseDetail(&m, li)
			})
		case "Avaliações":
			if match := percentPattern.FindStringSubmatch(body.Text()); match != nil {
				m.ApprovalPercent, _ = strconv.Atoi(match[1])
			}
		case "Recomendados":
			body.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
				alt, _ := img.Attr("alt")
				if rec := slug(alt); rec != "" {
					m.Recommendations = append(m.Recommendations, model.MediaID(rec))
				}
			})
		}
	})

	return m, nil
}

// LoadFromPage parses the page at path and adds it under id
func (s *Service) LoadFromPage(id model.MediaID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	m, err := ParsePage(id, f)
	if err != nil {
		return err
	}
	s.Load(m)
	return nil
}

func parseMetaLine(m *model.Media, spans *goquery.Selection) {
	spans.Each(func(i int, span *goquery.Selection) {
		text := clean(span.Text())
		switch i {
		case 0:
			m.Year, _ = strconv.Atoi(text)
		case 1:
			m.RuntimeMinutes = parseRuntime(text)
		case 2:
			m.Genres = splitList(text)
		}
	})
}

func parseDetail(m *model.Media, li *goquery.Selection) {
	head := clean(li.Find("span").First().Text())
	label := strings.TrimSuffix(head, ":")
	value := clean(strings.TrimPrefix(clean(li.Text()), head))

	switch label {
	case "Diretor", "Direção":
		m.Director = value
	case "Roteiristas", "Roteiro":
		m.Writers = splitList(value)
	case "Estreia":
		if t, ok := parseReleaseDate(value); ok {
			m.ReleaseDate = t
		}
	}
}

// parseRuntime reads "2h 49min", "2h" or "49min" as minutes
func parseRuntime(s string) int {
	match := runtimePattern.FindStringSubmatch(s)
	if match == nil {
		return 0
	}
	hours, _ := strconv.Atoi(match[1])
	mins, _ := strconv.Atoi(match[2])
	return hours*60 + mins
}

// parseReleaseDate reads "7 de novembro de 2014"
func parseReleaseDate(s string) (time.Time, bool) {
	match := ptReleasePattern.FindStringSubmatch(strings.ToLower(s))
	if match == nil {
		return time.Time{}, false
	}
	month, ok := ptMonths[match[2]]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[3])
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = clean(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// slug turns "Filme 1" into "filme-1"
func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
