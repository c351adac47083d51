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

func TestCommentService_Lifecycle(t *testing.T) {
	st := newTestStore(t)
	author := testutil.CreateUser(t, st.db, "author", rbac.RoleUser)
	other := testutil.CreateUser(t, st.db, "other", rbac.RoleUser)
	moderator := testutil.CreateUser(t, st.db, "mod", rbac.RoleModerator)
	title := testutil.CreateTitle(t, st.db, "Book", 2000, nil)
	review := testutil.CreateReview(t, st.db, title, other, 7)
	svc := st.commentService()
	ctx := context.Background()

	comment, err := svc.Create(ctx, author.Identity(), title.ID, review.ID, "nice review")
	require.NoError(t, err)
	assert.Equal(t, review.ID, comment.ReviewID)
	assert.Equal(t, "author", comment.Author.Username)

	_, err = svc.Update(ctx, other.Identity(), title.ID, review.ID, comment.ID, strPtr("hijack"))
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	updated, err := svc.Update(ctx, author.Identity(), title.ID, review.ID, comment.ID, strPtr("edited"))
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)

	err = svc.Delete(ctx, other.Identity(), title.ID, review.ID, comment.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, svc.Delete(ctx, moderator.Identity(), title.ID, review.ID, comment.ID))
	_, err = svc.Get(ctx, title.ID, review.ID, comment.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCommentService_Validation(t *testing.T) {
	st := newTestStore(t)
	author := testutil.CreateUser(t, st.db, "author", rbac.RoleUser)
	title := testutil.CreateTitle(t, st.db, "Book", 2000, nil)
	review := testutil.CreateReview(t, st.db, title, author, 7)
	svc := st.commentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, author.Identity(), title.ID, review.ID, "   ")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Contains(t, ae.Fields, "text")

	_, err = svc.Create(ctx, rbac.Anonymous(), title.ID, review.ID, "hi")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestCommentService_ReviewMustBelongToTitle(t *testing.T) {
	st := newTestStore(t)
	author := testutil.CreateUser(t, st.db, "author", rbac.RoleUser)
	first := testutil.CreateTitle(t, st.db, "First", 2000, nil)
	second := testutil.CreateTitle(t, st.db, "Second", 2000, nil)
	review := testutil.CreateReview(t, st.db, first, author, 7)
	testutil.CreateComment(t, st.db, review, author, "hi")
	svc := st.commentService()
	ctx := context.Background()

	_, _, err := svc.List(ctx, second.ID, review.ID, 1, 10)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.Create(ctx, author.Identity(), second.ID, review.ID, "misplaced")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	list, total, err := svc.List(ctx, first.ID, review.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "hi", list[0].Text)
}
