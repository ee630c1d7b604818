package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type SQLiteMovieStore struct {
	db *sql.DB
}

func NewSQLiteMovieStore(db *sql.DB) *SQLiteMovieStore {
	return &SQLiteMovieStore{
		db: db,
	}
}

const movieColumns = "id, title, studio, genres, directors, writers, actors, year, rating, short_description"

func (s *SQLiteMovieStore) GetMovies(ctx context.Context) ([]Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("querying movies: %w", err)
	}
	defer rows.Close()

	movies := []Movie{}

	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movies: %w", err)
	}

	return movies, nil
}

func (s *SQLiteMovieStore) GetMovieByID(ctx context.Context, id string) (*Movie, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE id = ? LIMIT 1", id)

	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return movie, nil
}

func (s *SQLiteMovieStore) AddMovie(ctx context.Context, movie Movie) (*Movie, error) {
	movie.ID = uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO movies ("+movieColumns+") VALUES (@id, @title, @studio, @genres, @directors, @writers, @actors, @year, @rating, @short_description)",
		movieArgs(movie)...)
	if err != nil {
		return nil, fmt.Errorf("inserting movie: %w", err)
	}

	return &movie, nil
}

func (s *SQLiteMovieStore) UpdateMovie(ctx context.Context, id string, movie Movie) (*Movie, error) {
	movie.ID = id

	res, err := s.db.ExecContext(ctx,
		`UPDATE movies SET title = @title, studio = @studio, genres = @genres,
		directors = @directors, writers = @writers, actors = @actors,
		year = @year, rating = @rating, short_description = @short_description
		WHERE id = @id`,
		movieArgs(movie)...)
	if err != nil {
		return nil, fmt.Errorf("updating movie: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrMovieNotFound
	}

	return &movie, nil
}

func (s *SQLiteMovieStore) DeleteMovie(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting movie: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrMovieNotFound
	}

	return nil
}

func movieArgs(movie Movie) []any {
	return []any{
		sql.Named("id", movie.ID),
		sql.Named("title", movie.Title),
		sql.Named("studio", movie.Studio),
		sql.Named("genres", joinList(movie.Genres)),
		sql.Named("directors", joinList(movie.Directors)),
		sql.Named("writers", joinList(movie.Writers)),
		sql.Named("actors", joinList(movie.Actors)),
		sql.Named("year", movie.Year),
		sql.Named("rating", movie.Rating),
		sql.Named("short_description", movie.ShortDescription),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*Movie, error) {
	movie := new(Movie)
	var genres, directors, writers, actors string

	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Studio,
		&genres,
		&directors,
		&writers,
		&actors,
		&movie.Year,
		&movie.Rating,
		&movie.ShortDescription,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning movie: %w", err)
	}

	movie.Genres = splitList(genres)
	movie.Directors = splitList(directors)
	movie.Writers = splitList(writers)
	movie.Actors = splitList(actors)

	return movie, nil
}

// List columns are stored as comma separated text, matching the flat shape of
// the seeded catalog data.
func joinList(values []string) string {
	return strings.Join(values, ",")
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}
