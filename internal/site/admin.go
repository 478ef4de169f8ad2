package site

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sebasite/internal/admin"
	"sebasite/internal/datasource"
	"sebasite/internal/imaging"
	"sebasite/internal/records"
	"sebasite/internal/services"
	"sebasite/internal/textutil"
)

const (
	uploadField     = "files"
	multipartMemory = 32 << 20
)

type draftResponse struct {
	Draft  admin.Draft  `json:"draft"`
	Errors []imageError `json:"errors,omitempty"`
}

type imageError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// handleLogin issues a session token for this client. It is returned in the
// body for API callers and set as an HttpOnly cookie for browsers.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	token, err := s.session.Login(r.Context(), body.Password)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	s.writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "token": token})
}

// handleLogout revokes the caller's own token only.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.session.Logout(r.Context(), token); err != nil {
			s.writeFailure(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	s.writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": s.apiTokenOK(r) || s.session.Authenticated(r.Context(), sessionToken(r)),
		"language":      s.language(r),
	})
}

func (s *Server) handleAdminLoad(w http.ResponseWriter, r *http.Request) {
	projects, news := s.admin.Load(r.Context())
	s.metrics.observeSource(records.CollectionProjects, projects)
	s.metrics.observeSource(records.CollectionNews, news)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sources":  map[string]datasource.Source{records.CollectionProjects: projects, records.CollectionNews: news},
		"projects": len(s.admin.Projects()),
		"news":     len(s.admin.News()),
	})
}

func kindParam(r *http.Request) (admin.Kind, error) {
	return admin.ParseKind(chi.URLParam(r, "collection"))
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if kind == admin.KindNews {
		s.writeJSON(w, http.StatusOK, map[string]any{"news": s.admin.News()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"projects": s.admin.Projects()})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	draft, ok := s.admin.Draft(kind)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no open draft")
		return
	}
	s.writeJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

func (s *Server) handleBeginCreate(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, draftResponse{Draft: s.admin.BeginCreate(kind)})
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	draft, err := s.admin.BeginEdit(kind, records.ID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

func (s *Server) handleSetFields(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var draft admin.Draft
	if kind == admin.KindNews {
		var fields admin.NewsFields
		if err := decodeJSON(w, r, &fields); err != nil {
			s.writeFailure(w, r, err)
			return
		}
		draft, err = s.admin.SetNewsFields(fields)
	} else {
		var fields admin.ProjectFields
		if err := decodeJSON(w, r, &fields); err != nil {
			s.writeFailure(w, r, err)
			return
		}
		draft, err = s.admin.SetProjectFields(fields)
	}
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

func (s *Server) handleCancelDraft(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.admin.Cancel(kind)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddImages(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	files, err := uploadedFiles(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	draft, failures, err := s.admin.AddImages(r.Context(), kind, files)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftResponse{Draft: draft, Errors: imageErrors(failures)})
}

func (s *Server) handleRemoveImage(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	draft, err := s.admin.RemoveImage(kind, index)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	outcome, err := s.admin.Submit(r.Context(), kind)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	status := http.StatusOK
	if outcome.Action == admin.ActionCreate {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, outcome)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	outcome, err := s.admin.Delete(r.Context(), kind, records.ID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

// handleCompressImages compresses uploads without touching any draft.
func (s *Server) handleCompressImages(w http.ResponseWriter, r *http.Request) {
	files, err := uploadedFiles(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	batch := imaging.ProcessBatch(r.Context(), files, s.images, s.imageWorkers)
	images := batch.Images
	if images == nil {
		images = []imaging.Image{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"images": images,
		"errors": imageErrors(batch.Errors),
	})
}

func uploadedFiles(r *http.Request) ([]imaging.File, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, services.Wrap(services.ErrValidation, "site", "upload", "expected a multipart form", err)
	}
	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		return nil, services.Wrap(services.ErrValidation, "site", "upload", "no files in field "+uploadField, nil)
	}
	files := make([]imaging.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, imaging.File{
			Name: textutil.SanitizeFileName(fh.Filename),
			Open: openPart(fh),
		})
	}
	return files, nil
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return fh.Open() }
}

func imageErrors(failures []*imaging.DecodeError) []imageError {
	out := make([]imageError, 0, len(failures))
	for _, f := range failures {
		out = append(out, imageError{File: f.Name, Error: f.Error()})
	}
	return out
}
