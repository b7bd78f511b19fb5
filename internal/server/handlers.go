package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/hyperjump/inkwell/internal/render"
	"go.uber.org/zap"
)

// Messages shown to visitors.
const (
	MessageEmptySearch = "Please provide a term to search for"
	descNotFound       = "The requested URL was not found on the server. If you entered the URL manually please check your spelling and try again."
	descServerError    = "The server encountered an internal error and was unable to complete your request. Either the server is overloaded or there is an error in the application."
)

// searchField names the form field and query parameter carrying the search term.
const searchField = "search"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, render.ViewIndex, &render.Page{})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.engine.Posts(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, render.ViewPosts, &render.Page{Title: "Posts", Posts: posts})
}

func (s *Server) handleSearchForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, render.ViewSearch, &render.Page{Title: "Search"})
}

// handleSearchSubmit validates the form and hands the term to /results in
// the query string. 307 keeps the POST method on the follow-up request.
func (s *Server) handleSearchSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.Debug("search form parse failed", zap.Error(err))
	}
	term := r.PostFormValue(searchField)
	if term == "" {
		s.render(w, r, http.StatusOK, render.ViewSearch, &render.Page{
			Title:   "Search",
			Message: MessageEmptySearch,
		})
		return
	}
	target := "/results?" + url.Values{searchField: {term}}.Encode()
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// handleResults reads the term from the query string only; a body re-sent by
// the 307 redirect is ignored.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get(searchField)
	s.logger.Debug("search request", zap.String("query", query))
	posts, err := s.engine.Find(r.Context(), query)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, render.ViewResults, &render.Page{
		Title: "Results",
		Query: query,
		Posts: posts,
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := s.engine.PostByPath(ctx, r.URL.Path)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if post == nil {
		s.handleNotFound(w, r)
		return
	}
	related, err := s.engine.Related(ctx, post.Related)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, render.ViewPost, &render.Page{
		Title:   post.Title,
		Post:    post,
		Related: related,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, render.ViewNotFound, &render.Page{
		Title: "Not Found",
		Error: descNotFound,
	})
}

// serverError logs err and renders the generic 500 page; err never reaches the visitor.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	s.renderError(w, r)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request) {
	page := &render.Page{Title: "Internal Server Error", Error: descServerError}
	if err := s.renderer.Render(w, http.StatusInternalServerError, render.ViewError, page); err != nil {
		s.logger.Error("render error page failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view string, page *render.Page) {
	if err := s.renderer.Render(w, status, view, page); err != nil {
		s.serverError(w, r, err)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
