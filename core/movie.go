package core

import (
	"context"
	"errors"
)

// Movie is the catalog resource the guard protects.
type Movie struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Studio           string   `json:"studio"`
	Genres           []string `json:"genres"`
	Directors        []string `json:"directors"`
	Writers          []string `json:"writers"`
	Actors           []string `json:"actors"`
	Year             int      `json:"year"`
	Rating           float64  `json:"rating"`
	ShortDescription string   `json:"short_description"`
}

var (
	ErrMovieNotFound = errors.New("movie not found")
)

type MovieStore interface {
	GetMovies(ctx context.Context) ([]Movie, error)

	// GetMovieByID returns nil without an error when no movie matches.
	GetMovieByID(ctx context.Context, id string) (*Movie, error)

	// AddMovie inserts movie with a fresh id and returns the stored record.
	AddMovie(ctx context.Context, movie Movie) (*Movie, error)

	// UpdateMovie replaces the record with the given id.
	// It returns ErrMovieNotFound when the id is unknown.
	UpdateMovie(ctx context.Context, id string, movie Movie) (*Movie, error)

	// DeleteMovie returns ErrMovieNotFound when the id is unknown.
	DeleteMovie(ctx context.Context, id string) error
}
