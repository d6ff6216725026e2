package service

import (
	"context"
	"testing"

	"QA_Community/internal/model"
	"QA_Community/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewCommunityService(testutil.NewDB(t))

	c, err := svc.CreateCommunity(ctx, CreateCommunityInput{
		Name:        "Cats",
		Description: "all about cats",
		Admin:       "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, c.Participants)
	assert.Equal(t, model.VisibilityPublic, c.Visibility)

	c, err = svc.ToggleMembership(ctx, c.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, c.Participants)

	_, err = svc.ToggleMembership(ctx, c.ID, "alice")
	assert.Equal(t, KindForbidden, KindOf(err))

	c, err = svc.ToggleMembership(ctx, c.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, c.Participants)
}

func TestCreateCommunityAppendsAdmin(t *testing.T) {
	ctx := context.Background()
	svc := NewCommunityService(testutil.NewDB(t))

	c, err := svc.CreateCommunity(ctx, CreateCommunityInput{
		Name:         "Dogs",
		Description:  "d",
		Admin:        "alice",
		Visibility:   "private",
		Participants: []string{"bob", "bob", " ", "carol"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol", "alice"}, c.Participants)
	assert.Equal(t, model.VisibilityPrivate, c.Visibility)

	got, err := svc.GetCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, c.Participants, got.Participants)
}

func TestCreateCommunityValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewCommunityService(testutil.NewDB(t))

	cases := []CreateCommunityInput{
		{Description: "d", Admin: "alice"},
		{Name: "n", Admin: "alice"},
		{Name: "n", Description: "d"},
		{Name: "n", Description: "d", Admin: "alice", Visibility: "SECRET"},
	}
	for _, in := range cases {
		_, err := svc.CreateCommunity(ctx, in)
		assert.Equal(t, KindInvalidInput, KindOf(err), "%+v", in)
	}

	list, err := svc.ListCommunities(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteCommunity(t *testing.T) {
	ctx := context.Background()
	svc := NewCommunityService(testutil.NewDB(t))

	c, err := svc.CreateCommunity(ctx, CreateCommunityInput{Name: "Cats", Description: "d", Admin: "alice", Participants: []string{"bob"}})
	require.NoError(t, err)

	_, err = svc.DeleteCommunity(ctx, c.ID, "bob")
	assert.Equal(t, KindForbidden, KindOf(err))

	deleted, err := svc.DeleteCommunity(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, c.ID, deleted.ID)
	assert.Equal(t, "Cats", deleted.Name)

	_, err = svc.GetCommunity(ctx, c.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.DeleteCommunity(ctx, c.ID, "alice")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestToggleMembershipUnknownCommunity(t *testing.T) {
	svc := NewCommunityService(testutil.NewDB(t))

	_, err := svc.ToggleMembership(context.Background(), 12345, "bob")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.ToggleMembership(context.Background(), 12345, "")
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestAccessPredicates(t *testing.T) {
	pub := &model.Community{Admin: "alice", Visibility: model.VisibilityPublic, Participants: []string{"alice"}}
	priv := &model.Community{Admin: "alice", Visibility: model.VisibilityPrivate, Participants: []string{"bob", "alice"}}

	assert.True(t, CanViewCommunity(pub, ""))
	assert.False(t, CanViewCommunity(priv, ""))
	assert.False(t, CanViewCommunity(priv, "eve"))
	assert.True(t, CanViewCommunity(priv, "bob"))

	join, err := CheckToggleMembership(priv, "eve")
	require.NoError(t, err)
	assert.True(t, join)
	join, err = CheckToggleMembership(priv, "bob")
	require.NoError(t, err)
	assert.False(t, join)

	assert.Error(t, CheckPostToCommunity(pub, "eve"))
	assert.NoError(t, CheckPostToCommunity(priv, "bob"))

	col := &model.Collection{Username: "alice", IsPrivate: true}
	assert.True(t, CanViewCollection(col, "alice"))
	assert.False(t, CanViewCollection(col, "bob"))
	assert.Equal(t, KindForbidden, KindOf(CheckCollectionOwner(col, "bob")))
}
