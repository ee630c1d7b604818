package cinevault

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cinevault/cinevault/core"
	"github.com/cinevault/cinevault/pkg/router"
)

type MovieHandler struct {
	store core.MovieStore
}

func NewMovieHandler(store core.MovieStore) *MovieHandler {
	return &MovieHandler{store: store}
}

type MoviePayload struct {
	Title            string   `json:"title" validate:"required"`
	Studio           string   `json:"studio"`
	Genres           []string `json:"genres"`
	Directors        []string `json:"directors"`
	Writers          []string `json:"writers"`
	Actors           []string `json:"actors"`
	Year             int      `json:"year" validate:"omitempty,gte=1888"`
	Rating           float64  `json:"rating" validate:"gte=0,lte=10"`
	ShortDescription string   `json:"short_description"`
}

func (p MoviePayload) movie() core.Movie {
	return core.Movie{
		Title:            p.Title,
		Studio:           p.Studio,
		Genres:           p.Genres,
		Directors:        p.Directors,
		Writers:          p.Writers,
		Actors:           p.Actors,
		Year:             p.Year,
		Rating:           p.Rating,
		ShortDescription: p.ShortDescription,
	}
}

func (h *MovieHandler) ListMoviesHandler(w http.ResponseWriter, r *http.Request) error {
	movies, err := h.store.GetMovies(r.Context())
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(movies); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

func (h *MovieHandler) FindMovieHandler(w http.ResponseWriter, r *http.Request) error {
	movie, err := h.store.GetMovieByID(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}

	if movie == nil {
		return router.NewJsonError(http.StatusNotFound, "movie not found")
	}

	if err := json.NewEncoder(w).Encode(movie); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

func (h *MovieHandler) AddMovieHandler(w http.ResponseWriter, r *http.Request) error {
	var payload MoviePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid input")
	}
	defer r.Body.Close()

	if err := validate.Struct(payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid input")
	}

	movie, err := h.store.AddMovie(r.Context(), payload.movie())
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(movie); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

func (h *MovieHandler) UpdateMovieHandler(w http.ResponseWriter, r *http.Request) error {
	var payload MoviePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid input")
	}
	defer r.Body.Close()

	if err := validate.Struct(payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid input")
	}

	movie, err := h.store.UpdateMovie(r.Context(), r.PathValue("id"), payload.movie())
	if err != nil {
		if errors.Is(err, core.ErrMovieNotFound) {
			return router.NewJsonError(http.StatusNotFound, "movie not found")
		}
		return err
	}

	if err := json.NewEncoder(w).Encode(movie); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

func (h *MovieHandler) DeleteMovieHandler(w http.ResponseWriter, r *http.Request) error {
	if err := h.store.DeleteMovie(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, core.ErrMovieNotFound) {
			return router.NewJsonError(http.StatusNotFound, "movie not found")
		}
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
