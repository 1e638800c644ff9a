package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/stretchr/testify/require"
)

func TestUsersRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	created, err := repo.Create(ctx, user.User{Email: " Jane@Example.com", Name: "Jane", Role: user.RoleUser, PasswordHash: "h"})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
	require.Equal(t, "jane@example.com", created.Email)
	require.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	require.Equal(t, created, got)

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	got.Name = "Jane Doe"
	got.Email = "jane.doe@example.com"
	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", updated.Name)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = repo.GetByEmail(ctx, "jane@example.com")
	require.ErrorIs(t, err, user.ErrNotFound, "old email must be released")

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, created.ID), user.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUsersRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	_, err := repo.GetByID(ctx, 9999)
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.Update(ctx, user.User{ID: 9999, Email: "ghost@example.com"})
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_EmailUnique(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	a, err := repo.Create(ctx, user.User{Email: "a@example.com", Role: user.RoleUser})
	require.NoError(t, err)
	_, err = repo.Create(ctx, user.User{Email: "b@example.com", Role: user.RoleUser})
	require.NoError(t, err)

	_, err = repo.Create(ctx, user.User{Email: "A@EXAMPLE.COM", Role: user.RoleUser})
	require.ErrorIs(t, err, user.ErrEmailTaken)

	a.Email = "b@example.com"
	_, err = repo.Update(ctx, a)
	require.ErrorIs(t, err, user.ErrEmailTaken)

	// keeping your own email is not a collision
	a.Email = "a@example.com"
	a.Name = "A"
	_, err = repo.Update(ctx, a)
	require.NoError(t, err)
}

func TestUsersRepo_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, user.User{Email: "race@example.com", Name: fmt.Sprint(i), Role: user.RoleUser})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, success)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
