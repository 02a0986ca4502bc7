package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

func TestCommentService_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", model.AuthorityEditor)
	reader := env.addUser(t, "reader", model.AuthorityMember)
	post := createPost(t, env, author, "Discuss", nil)

	for i := 1; i <= 3; i++ {
		_, err := env.comments.Create(ctx, reader, model.TargetPost, post.UUID, &model.CreateCommentRequest{Content: fmt.Sprintf("comment %d", i)})
		if err != nil {
			t.Fatalf("create comment %d: %v", i, err)
		}
	}

	asc, err := env.comments.List(ctx, nil, model.TargetPost, post.UUID, model.NewPage(0, 2), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if asc.Sort != model.SortAsc || asc.TotalComments != 3 || !asc.HasNext || len(asc.Comments) != 2 {
		t.Errorf("asc page = %+v", asc)
	}
	if asc.Comments[0].Content != "comment 1" {
		t.Errorf("first asc comment = %q", asc.Comments[0].Content)
	}
	if asc.Comments[0].Author == nil || asc.Comments[0].Author.Username != "reader" {
		t.Error("comment author should be attached")
	}
	if asc.Filter.TargetUUID != post.UUID {
		t.Errorf("filter = %+v", asc.Filter)
	}

	desc, err := env.comments.List(ctx, nil, model.TargetPost, post.UUID, model.NewPage(0, 10), "DESC")
	if err != nil {
		t.Fatal(err)
	}
	if desc.Sort != model.SortDesc || desc.Comments[0].Content != "comment 3" || desc.HasNext {
		t.Errorf("desc page = %+v", desc)
	}
}

func TestCommentService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", model.AuthorityEditor)
	reader := env.addUser(t, "reader", model.AuthorityMember)
	guest := env.addUser(t, "guest", model.AuthorityEveryone)

	open := createPost(t, env, author, "Open", nil)
	closed := createPost(t, env, author, "Closed", nil)
	if _, err := env.posts.Update(ctx, author, model.PostSelectorUUID, closed.UUID, &model.UpdatePostRequest{AllowComment: boolPtr(false)}); err != nil {
		t.Fatal(err)
	}
	private := createPost(t, env, author, "Private", nil)
	if _, err := env.posts.Update(ctx, author, model.PostSelectorUUID, private.UUID, &model.UpdatePostRequest{IsPrivate: boolPtr(true)}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		viewer     *model.User
		targetType string
		targetUUID string
		content    string
		wantErr    error
	}{
		{"anonymous", nil, model.TargetPost, open.UUID, "hi", model.ErrUnauthenticated},
		{"authority 0", guest, model.TargetPost, open.UUID, "hi", model.ErrForbidden},
		{"blank content", reader, model.TargetPost, open.UUID, "   ", model.ErrInvalidInput},
		{"too long", reader, model.TargetPost, open.UUID, strings.Repeat("x", model.MaxCommentLength+1), model.ErrTooLarge},
		{"comments closed", reader, model.TargetPost, closed.UUID, "hi", model.ErrCommentsClosed},
		{"hidden post", reader, model.TargetPost, private.UUID, "hi", model.ErrTargetNotFound},
		{"missing post", reader, model.TargetPost, "3f0c1d2e-0000-4000-8000-000000000000", "hi", model.ErrNotFound},
		{"unknown target type", reader, "page", open.UUID, "hi", model.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.comments.Create(ctx, tt.viewer, tt.targetType, tt.targetUUID, &model.CreateCommentRequest{Content: tt.content})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// exactly the limit is fine, counted in characters
	if _, err := env.comments.Create(ctx, reader, model.TargetPost, open.UUID, &model.CreateCommentRequest{Content: strings.Repeat("é", model.MaxCommentLength)}); err != nil {
		t.Errorf("max length comment: %v", err)
	}
}

func TestCommentService_UserAndReplyTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice", model.AuthorityMember)
	bob := env.addUser(t, "bob", model.AuthorityMember)

	c, err := env.comments.Create(ctx, bob, model.TargetUser, alice.UUID, &model.CreateCommentRequest{Content: "hello alice"})
	if err != nil {
		t.Fatalf("comment on user: %v", err)
	}
	if _, err := env.comments.Create(ctx, alice, model.TargetComment, c.UUID, &model.CreateCommentRequest{Content: "hi bob"}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	if _, err := env.users.UpdateProfile(ctx, alice, &model.UpdateProfileRequest{AllowComment: boolPtr(false)}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.comments.Create(ctx, bob, model.TargetUser, alice.UUID, &model.CreateCommentRequest{Content: "again"}); !errors.Is(err, model.ErrCommentsClosed) {
		t.Errorf("closed profile: error = %v, want %v", err, model.ErrCommentsClosed)
	}
}

func TestCommentService_RepliesFollowRootVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", model.AuthorityEditor)
	stranger := env.addUser(t, "stranger", model.AuthorityMember)

	post := createPost(t, env, author, "Members only", nil)
	c, err := env.comments.Create(ctx, author, model.TargetPost, post.UUID, &model.CreateCommentRequest{Content: "first"})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	reply, err := env.comments.Create(ctx, author, model.TargetComment, c.UUID, &model.CreateCommentRequest{Content: "nested"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if _, err := env.posts.Update(ctx, author, model.PostSelectorUUID, post.UUID, &model.UpdatePostRequest{IsPrivate: boolPtr(true)}); err != nil {
		t.Fatalf("make private: %v", err)
	}

	for _, target := range []string{c.UUID, reply.UUID} {
		if _, err := env.comments.List(ctx, nil, model.TargetComment, target, model.NewPage(0, 10), ""); !errors.Is(err, model.ErrTargetNotFound) {
			t.Errorf("anonymous list of %s: error = %v, want %v", target, err, model.ErrTargetNotFound)
		}
		if _, err := env.comments.Create(ctx, stranger, model.TargetComment, target, &model.CreateCommentRequest{Content: "peek"}); !errors.Is(err, model.ErrTargetNotFound) {
			t.Errorf("stranger reply to %s: error = %v, want %v", target, err, model.ErrTargetNotFound)
		}
	}

	if _, err := env.comments.List(ctx, author, model.TargetComment, reply.UUID, model.NewPage(0, 10), ""); err != nil {
		t.Errorf("author list: %v", err)
	}
}

func TestCommentService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner", model.AuthorityMember)
	other := env.addUser(t, "other", model.AuthorityMember)
	moderator := env.addUser(t, "moderator", model.AuthorityModerator)
	target := env.addUser(t, "target", model.AuthorityMember)

	c, err := env.comments.Create(ctx, owner, model.TargetUser, target.UUID, &model.CreateCommentRequest{Content: "first"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.comments.Update(ctx, other, c.UUID, &model.UpdateCommentRequest{Content: "hijack"}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("other edit: error = %v", err)
	}
	edited, err := env.comments.Update(ctx, owner, c.UUID, &model.UpdateCommentRequest{Content: "second"})
	if err != nil {
		t.Fatalf("owner edit: %v", err)
	}
	if edited.Content != "second" || edited.EditedAt == nil {
		t.Errorf("edited = %+v", edited)
	}

	if err := env.comments.Delete(ctx, other, c.UUID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("other delete: error = %v", err)
	}
	if err := env.comments.Delete(ctx, moderator, c.UUID); err != nil {
		t.Fatalf("moderator delete: %v", err)
	}
	if err := env.comments.Delete(ctx, owner, c.UUID); !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("double delete: error = %v", err)
	}

	list, err := env.comments.List(ctx, nil, model.TargetUser, target.UUID, model.NewPage(0, 10), model.SortAsc)
	if err != nil {
		t.Fatal(err)
	}
	if list.TotalComments != 0 || len(list.Comments) != 0 {
		t.Errorf("deleted comment still listed: %+v", list)
	}
}
