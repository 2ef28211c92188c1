package service_test

import (
	"context"
	"testing"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Bootstrap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("creates a default profile", func(t *testing.T) {
		user, err := f.users.Bootstrap(ctx, service.Identity{UID: "uid-new", Email: "New@Example.com", Name: "New"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.Empty(t, user.Countries)
		assert.Equal(t, "new@example.com", user.Email)

		again, err := f.users.Bootstrap(ctx, service.Identity{UID: "uid-new", Email: "new@example.com"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("claims a pre-provisioned profile by email", func(t *testing.T) {
		pre := &domain.UserProfile{Email: "kari@example.com", Role: domain.RoleAdmin, Countries: []string{"Norway"}}
		require.NoError(t, f.db.Create(pre).Error)

		user, err := f.users.Bootstrap(ctx, service.Identity{UID: "uid-kari", Email: "KARI@example.com"})
		require.NoError(t, err)
		assert.Equal(t, pre.ID, user.ID)
		assert.Equal(t, domain.RoleAdmin, user.Role)
		require.NotNil(t, user.UID)
		assert.Equal(t, "uid-kari", *user.UID)
	})

	t.Run("email linked to another account", func(t *testing.T) {
		testutil.CreateUser(t, f.db, "taken@example.com", domain.RoleUser)
		_, err := f.users.Bootstrap(ctx, service.Identity{UID: "uid-other", Email: "taken@example.com"})
		assert.ErrorIs(t, err, service.ErrConflict)
	})
}

func TestUserService_Update(t *testing.T) {
	f := newFixture(t)
	root := testutil.CreateUser(t, f.db, "root@example.com", domain.RoleSuperAdmin)
	member := testutil.CreateUser(t, f.db, "member@example.com", domain.RoleUser, "Norway")
	rootCtx := asProfile(root)

	t.Run("super admin assigns role and countries", func(t *testing.T) {
		role := domain.RoleAdmin
		dto, err := f.users.Update(rootCtx, member.ID, &domain.UpdateUserRequest{
			Role:      &role,
			Countries: []string{" Sweden", "Norway", "Sweden"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, dto.Role)
		assert.Equal(t, []string{"Sweden", "Norway"}, dto.Countries)
	})

	t.Run("last super admin cannot be demoted", func(t *testing.T) {
		role := domain.RoleAdmin
		_, err := f.users.Update(rootCtx, root.ID, &domain.UpdateUserRequest{Role: &role})
		assert.ErrorIs(t, err, service.ErrCannotRemoveLastSuperAdmin)
	})

	t.Run("admins cannot change profiles", func(t *testing.T) {
		name := "x"
		_, err := f.users.Update(as(domain.RoleAdmin), member.ID, &domain.UpdateUserRequest{Name: &name})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("demotion allowed with another super admin", func(t *testing.T) {
		testutil.CreateUser(t, f.db, "root2@example.com", domain.RoleSuperAdmin)
		role := domain.RoleUser
		dto, err := f.users.Update(rootCtx, root.ID, &domain.UpdateUserRequest{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, dto.Role)
	})
}

func TestUserService_Me(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "me@example.com", domain.RoleUser, "Norway")

	me, err := f.users.Me(asProfile(user))
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", me.User.Email)
	require.NotNil(t, me.UserProfile)
	assert.Equal(t, []string{"Norway"}, me.UserProfile.Countries)

	_, err = f.users.Me(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
