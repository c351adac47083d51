package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb/internal/apperr"
)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(nil)
	require.NoError(t, err)
	return p
}

func TestCanPerform_ReadsArePublic(t *testing.T) {
	p := newTestPolicy(t)
	for _, res := range []Resource{ResourceCategory, ResourceGenre, ResourceTitle, ResourceReview, ResourceComment} {
		for _, role := range []Role{RoleAnonymous, RoleUser, RoleModerator, RoleAdmin} {
			assert.True(t, p.CanPerform(role, ActionRead, res, Other), "%s read %s", role, res)
		}
	}
}

func TestCanPerform_AuthoredContent(t *testing.T) {
	p := newTestPolicy(t)
	tests := []struct {
		name string
		role Role
		act  Action
		own  Ownership
		want bool
	}{
		{"anonymous cannot create", RoleAnonymous, ActionCreate, Other, false},
		{"user can create", RoleUser, ActionCreate, Other, true},
		{"author can update", RoleUser, ActionUpdate, Own, true},
		{"author can delete", RoleUser, ActionDelete, Own, true},
		{"non-author cannot update", RoleUser, ActionUpdate, Other, false},
		{"non-author cannot delete", RoleUser, ActionDelete, Other, false},
		{"anonymous cannot delete", RoleAnonymous, ActionDelete, Other, false},
		{"moderator can update others", RoleModerator, ActionUpdate, Other, true},
		{"moderator can delete others", RoleModerator, ActionDelete, Other, true},
		{"admin can update others", RoleAdmin, ActionUpdate, Other, true},
		{"admin can delete others", RoleAdmin, ActionDelete, Other, true},
	}
	for _, res := range []Resource{ResourceReview, ResourceComment} {
		for _, tt := range tests {
			t.Run(string(res)+"/"+tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, p.CanPerform(tt.role, tt.act, res, tt.own))
			})
		}
	}
}

func TestCanPerform_CatalogueIsAdminOnly(t *testing.T) {
	p := newTestPolicy(t)
	for _, res := range []Resource{ResourceCategory, ResourceGenre, ResourceTitle} {
		for _, act := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
			assert.False(t, p.CanPerform(RoleAnonymous, act, res, Other))
			assert.False(t, p.CanPerform(RoleUser, act, res, Other))
			assert.False(t, p.CanPerform(RoleModerator, act, res, Other))
			assert.True(t, p.CanPerform(RoleAdmin, act, res, Other), "admin %s %s", act, res)
		}
	}
}

func TestCanPerform_UserAccounts(t *testing.T) {
	p := newTestPolicy(t)

	assert.True(t, p.CanPerform(RoleUser, ActionRead, ResourceUser, Own))
	assert.True(t, p.CanPerform(RoleUser, ActionUpdate, ResourceUser, Own))
	assert.False(t, p.CanPerform(RoleUser, ActionDelete, ResourceUser, Own))
	assert.False(t, p.CanPerform(RoleUser, ActionRead, ResourceUser, Other))
	assert.False(t, p.CanPerform(RoleModerator, ActionRead, ResourceUser, Other))
	assert.False(t, p.CanPerform(RoleAnonymous, ActionRead, ResourceUser, Other))

	for _, act := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		assert.True(t, p.CanPerform(RoleAdmin, act, ResourceUser, Other))
	}
}

func TestAuthorize_DenialKinds(t *testing.T) {
	p := newTestPolicy(t)
	author := Identity{UserID: "u-1", Username: "alice", Role: RoleUser}
	stranger := Identity{UserID: "u-2", Username: "bob", Role: RoleUser}

	err := p.Authorize(Anonymous(), ActionCreate, ResourceReview, Other)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	err = p.Authorize(stranger, ActionUpdate, ResourceReview, stranger.OwnershipOf(author.UserID))
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	assert.NoError(t, p.Authorize(author, ActionUpdate, ResourceReview, author.OwnershipOf(author.UserID)))
}

func TestIdentity_SubjectAndOwnership(t *testing.T) {
	assert.Equal(t, RoleAnonymous, Anonymous().Subject())
	assert.Equal(t, RoleAnonymous, Identity{UserID: "x", Role: "root"}.Subject())
	assert.Equal(t, RoleModerator, Identity{UserID: "x", Role: RoleModerator}.Subject())

	assert.Equal(t, Other, Anonymous().OwnershipOf(""))
	assert.Equal(t, Own, Identity{UserID: "x"}.OwnershipOf("x"))
	assert.Equal(t, Other, Identity{UserID: "x"}.OwnershipOf("y"))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("moderator")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = ParseRole("anonymous")
	assert.Error(t, err)
	_, err = ParseRole("superuser")
	assert.Error(t, err)
}
