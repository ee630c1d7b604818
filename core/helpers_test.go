package core

import (
	"context"
	"testing"
)

func seedUsers(ctx context.Context, t *testing.T, userStore UserStore, users ...User) []UserWithoutSecrets {
	created := make([]UserWithoutSecrets, 0, len(users))
	for _, u := range users {
		cu, err := userStore.CreateUser(ctx, u)
		if err != nil {
			t.Fatal(err)
		}
		created = append(created, *cu)
	}
	return created
}

func seedMovies(ctx context.Context, t *testing.T, movieStore MovieStore, movies ...Movie) []Movie {
	created := make([]Movie, 0, len(movies))
	for _, m := range movies {
		cm, err := movieStore.AddMovie(ctx, m)
		if err != nil {
			t.Fatal(err)
		}
		created = append(created, *cm)
	}
	return created
}
