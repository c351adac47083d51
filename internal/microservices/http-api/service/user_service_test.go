package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb/internal/apperr"
	"yamdb/internal/rbac"
	"yamdb/internal/testutil"
)

func TestUserService_AdminManagesAccounts(t *testing.T) {
	st := newTestStore(t)
	admin := testutil.CreateUser(t, st.db, "admin", rbac.RoleAdmin)
	svc := st.userService()
	ctx := context.Background()

	created, err := svc.Create(ctx, admin.Identity(), UserInput{Username: "bob", Email: "bob@example.com", Role: "moderator"})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleModerator, created.Role)
	assert.Empty(t, created.ConfirmationCode)

	_, err = svc.Create(ctx, admin.Identity(), UserInput{Username: "bob", Email: "other@example.com"})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Contains(t, ae.Fields, "username")

	_, err = svc.Create(ctx, admin.Identity(), UserInput{Username: "carol", Email: "carol@example.com", Role: "god"})
	ae = apperr.As(err)
	require.NotNil(t, ae)
	assert.Contains(t, ae.Fields, "role")

	updated, err := svc.Update(ctx, admin.Identity(), "bob", UserChanges{Role: strPtr("admin"), Bio: strPtr("hi")})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, updated.Role)
	assert.Equal(t, "hi", updated.Bio)

	list, total, err := svc.List(ctx, admin.Identity(), "bo", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "bob", list[0].Username)

	require.NoError(t, svc.Delete(ctx, admin.Identity(), "bob"))
	_, err = svc.Get(ctx, admin.Identity(), "bob")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUserService_RegularUserIsConfinedToSelf(t *testing.T) {
	st := newTestStore(t)
	alice := testutil.CreateUser(t, st.db, "alice", rbac.RoleUser)
	testutil.CreateUser(t, st.db, "bob", rbac.RoleUser)
	svc := st.userService()
	ctx := context.Background()

	_, _, err := svc.List(ctx, alice.Identity(), "", 1, 10)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = svc.Get(ctx, alice.Identity(), "bob")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	err = svc.Delete(ctx, alice.Identity(), "alice")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	me, err := svc.Me(ctx, alice.Identity())
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}

func TestUserService_UpdateMeIgnoresRole(t *testing.T) {
	st := newTestStore(t)
	alice := testutil.CreateUser(t, st.db, "alice", rbac.RoleUser)
	svc := st.userService()
	ctx := context.Background()

	updated, err := svc.UpdateMe(ctx, alice.Identity(), UserChanges{
		FirstName: strPtr("Alice"),
		Role:      strPtr("admin"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, rbac.RoleUser, updated.Role)

	stored, err := st.users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUser, stored.Role)
	assert.Equal(t, "Alice", stored.FirstName)
}

func TestUserService_UpdateMeRejectsTakenEmail(t *testing.T) {
	st := newTestStore(t)
	alice := testutil.CreateUser(t, st.db, "alice", rbac.RoleUser)
	testutil.CreateUser(t, st.db, "bob", rbac.RoleUser)
	svc := st.userService()

	_, err := svc.UpdateMe(context.Background(), alice.Identity(), UserChanges{Email: strPtr("bob@example.com")})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Contains(t, ae.Fields, "email")
}

func TestUserService_StaleTokenUsernameIsNotOwnership(t *testing.T) {
	st := newTestStore(t)
	alice := testutil.CreateUser(t, st.db, "alice", rbac.RoleUser)
	bob := testutil.CreateUser(t, st.db, "bob", rbac.RoleUser)
	svc := st.userService()

	// token minted while alice was called "bob"
	stale := rbac.Identity{UserID: alice.ID, Username: bob.Username, Role: rbac.RoleUser}
	_, err := svc.Get(context.Background(), stale, "bob")

	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestUserService_AnonymousIsUnauthenticated(t *testing.T) {
	st := newTestStore(t)
	svc := st.userService()

	_, err := svc.Me(context.Background(), rbac.Anonymous())
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestUserService_DeleteInvalidatesReviewedRatings(t *testing.T) {
	st := newTestStore(t)
	admin := testutil.CreateUser(t, st.db, "admin", rbac.RoleAdmin)
	critic := testutil.CreateUser(t, st.db, "critic", rbac.RoleUser)
	fan := testutil.CreateUser(t, st.db, "fan", rbac.RoleUser)
	reviewed := testutil.CreateTitle(t, st.db, "Reviewed", 2001, nil)
	untouched := testutil.CreateTitle(t, st.db, "Untouched", 2002, nil)
	testutil.CreateReview(t, st.db, reviewed, critic, 2)
	testutil.CreateReview(t, st.db, reviewed, fan, 8)
	testutil.CreateReview(t, st.db, untouched, fan, 9)
	titles := st.titleService()
	ctx := context.Background()

	view, err := titles.Get(ctx, reviewed.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Rating)
	assert.Equal(t, 5, *view.Rating)
	_, err = titles.Get(ctx, untouched.ID)
	require.NoError(t, err)

	require.NoError(t, st.userService().Delete(ctx, admin.Identity(), "critic"))

	assert.False(t, st.cache.cached(reviewed.ID))
	assert.True(t, st.cache.cached(untouched.ID))
	view, err = titles.Get(ctx, reviewed.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Rating)
	assert.Equal(t, 8, *view.Rating)
}
