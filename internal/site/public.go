package site

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sebasite/internal/datasource"
	"sebasite/internal/gallery"
	"sebasite/internal/notifications"
	"sebasite/internal/records"
	"sebasite/internal/services"
	"sebasite/internal/session"
	"sebasite/internal/views"
)

type projectsResponse struct {
	Source   datasource.Source   `json:"source"`
	Degraded bool                `json:"degraded"`
	Projects []records.Project   `json:"projects"`
	Cards    []views.ProjectCard `json:"cards"`
}

type newsResponse struct {
	Source   datasource.Source `json:"source"`
	Degraded bool              `json:"degraded"`
	News     []records.News    `json:"news"`
	Cards    []views.NewsCard  `json:"cards"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listProjects(r *http.Request) datasource.Listing[records.Project] {
	listing := s.projects.List(r.Context())
	s.metrics.observeSource(records.CollectionProjects, listing.Source)
	return listing
}

func (s *Server) listNews(r *http.Request) datasource.Listing[records.News] {
	listing := s.news.List(r.Context())
	s.metrics.observeSource(records.CollectionNews, listing.Source)
	return listing
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	listing := s.listProjects(r)
	cards := make([]views.ProjectCard, 0, len(listing.Records))
	for _, p := range listing.Records {
		cards = append(cards, views.NewProjectCard(p))
	}
	s.writeJSON(w, http.StatusOK, projectsResponse{
		Source:   listing.Source,
		Degraded: listing.Source == datasource.SourceLocal,
		Projects: listing.Records,
		Cards:    cards,
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	listing := s.listProjects(r)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"source":     listing.Source,
		"placements": views.ScatteredLayout(listing.Records),
	})
}

func (s *Server) findProject(r *http.Request) (records.Project, error) {
	id := records.ID(chi.URLParam(r, "id"))
	for _, p := range s.listProjects(r).Records {
		if p.ID == id {
			return p, nil
		}
	}
	return records.Project{}, services.Wrap(services.ErrNotFound, "site", "project", "project "+id.String()+" not found", nil)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.findProject(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"project": project,
		"card":    views.NewProjectCard(project),
	})
}

func (s *Server) handleLightbox(w http.ResponseWriter, r *http.Request) {
	project, err := s.findProject(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	index := 0
	if raw := r.URL.Query().Get("index"); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "index must be an integer")
			return
		}
	}
	box, ok := views.NewLightbox(project, index)
	if !ok {
		s.writeError(w, http.StatusNotFound, "project has no images")
		return
	}
	switch strings.ToLower(r.URL.Query().Get("step")) {
	case "next":
		box = box.Next()
	case "prev":
		box = box.Prev()
	}
	s.writeJSON(w, http.StatusOK, box.View())
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	listing := s.listNews(r)
	lang := s.language(r)
	cards := make([]views.NewsCard, 0, len(listing.Records))
	for _, n := range listing.Records {
		cards = append(cards, views.NewNewsCard(n, lang))
	}
	s.writeJSON(w, http.StatusOK, newsResponse{
		Source:   listing.Source,
		Degraded: listing.Source == datasource.SourceLocal,
		News:     listing.Records,
		Cards:    cards,
	})
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	listing := s.listNews(r)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"source": listing.Source,
		"ticker": views.NewTicker(listing.Records, s.tickerPace),
	})
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	n := s.sampleSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
		n = parsed
	}
	listing := s.listProjects(r)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"source": listing.Source,
		"items":  gallery.Sample(listing.Records, n, s.rng),
	})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg notifications.Message
	if err := decodeJSON(w, r, &msg); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if err := s.notifier.SendContact(r.Context(), msg); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"delivered":   s.notifier.Enabled(),
		"message_key": "contact.success",
	})
}

// language prefers the session language and falls back to Accept-Language.
// language resolves the visitor's display language: their language cookie,
// then Accept-Language, then the site default.
func (s *Server) language(r *http.Request) string {
	if c, err := r.Cookie(languageCookie); err == nil {
		if lang, ok := session.MatchLanguage(c.Value); ok {
			return lang
		}
	}
	def := session.LanguageTurkish
	if sess, ok := session.FromContext(r.Context()); ok {
		def = sess.Language()
	}
	return session.MatchAcceptLanguage(r.Header.Get("Accept-Language"), def)
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"language": s.language(r)})
}

// handleSetLanguage records the visitor's choice in a cookie; the site
// default is left alone.
func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Language string `json:"language"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	lang, err := session.ParseLanguage(body.Language)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     languageCookie,
		Value:    lang,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, http.StatusOK, map[string]string{"language": lang})
}
