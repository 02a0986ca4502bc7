package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/queue"
)

func createPost(t *testing.T, env *testEnv, author *model.User, title string, slug *string) *model.Post {
	t.Helper()
	p, err := env.posts.Create(context.Background(), author, &model.CreatePostRequest{
		Title:   strPtr(title),
		Content: strPtr("body of " + title),
		Slug:    slug,
	})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return p
}

func TestPostService_Create_DerivesSlugAndPID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	editor := env.addUser(t, "editor", model.AuthorityEditor)

	first := createPost(t, env, editor, "First post", nil)
	post := createPost(t, env, editor, "Hello World", nil)

	if post.Slug != "hello-world" {
		t.Errorf("slug = %q, want hello-world", post.Slug)
	}
	if post.PID != first.PID+1 {
		t.Errorf("pid = %d, want %d", post.PID, first.PID+1)
	}
	if post.Author == nil || post.Author.UUID != editor.UUID {
		t.Error("author should be attached")
	}

	_, err := env.posts.Create(ctx, editor, &model.CreatePostRequest{
		Title:   strPtr("Another"),
		Content: strPtr(""),
		Slug:    strPtr("hello-world"),
	})
	if !errors.Is(err, model.ErrSlugTaken) {
		t.Errorf("duplicate explicit slug: error = %v, want %v", err, model.ErrSlugTaken)
	}

	// the same title again conflicts instead of getting a suffix
	_, err = env.posts.Create(ctx, editor, &model.CreatePostRequest{Title: strPtr("Hello World"), Content: strPtr("")})
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("duplicate derived slug: error = %v, want kind %v", err, model.ErrConflict)
	}

	if len(env.publisher.events) != 2 || env.publisher.events[1].Type != queue.EventPostCreated {
		t.Errorf("events = %+v, want two post_created", env.publisher.events)
	}
}

func TestPostService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	editor := env.addUser(t, "editor", model.AuthorityEditor)
	member := env.addUser(t, "member", model.AuthorityMember)

	tests := []struct {
		name      string
		viewer    *model.User
		req       *model.CreatePostRequest
		wantErr   error
		wantField string
	}{
		{"anonymous", nil, &model.CreatePostRequest{Title: strPtr("t"), Content: strPtr("c")}, model.ErrUnauthenticated, ""},
		{"low authority", member, &model.CreatePostRequest{Title: strPtr("t"), Content: strPtr("c")}, model.ErrForbidden, ""},
		{"missing title", editor, &model.CreatePostRequest{Content: strPtr("c")}, model.ErrInvalidInput, "title"},
		{"missing content", editor, &model.CreatePostRequest{Title: strPtr("t")}, model.ErrInvalidInput, "content"},
		{"unusable slug", editor, &model.CreatePostRequest{Title: strPtr("t"), Content: strPtr("c"), Slug: strPtr("!!!")}, model.ErrInvalidInput, "slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.posts.Create(ctx, tt.viewer, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantField != "" {
				var verr *model.ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantField {
					t.Errorf("error = %v, want field %q", err, tt.wantField)
				}
			}
		})
	}
}

func TestPostService_Create_EmptyFieldsAndNoSlug(t *testing.T) {
	env := newTestEnv(t)
	editor := env.addUser(t, "editor", model.AuthorityEditor)

	// empty strings are present, so they are accepted
	p, err := env.posts.Create(context.Background(), editor, &model.CreatePostRequest{
		Title:   strPtr(""),
		Content: strPtr(""),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Slug != "" {
		t.Errorf("slug = %q, want empty", p.Slug)
	}

	// an explicit empty slug opts out even when the title has one
	q := createPost(t, env, editor, "Has a title", strPtr(""))
	if q.Slug != "" {
		t.Errorf("slug = %q, want empty", q.Slug)
	}
}

func TestPostService_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	editor := env.addUser(t, "editor", model.AuthorityEditor)
	post := createPost(t, env, editor, "Hello World", nil)

	for _, sel := range [][2]string{
		{model.PostSelectorUUID, post.UUID},
		{model.PostSelectorPID, strconv.FormatInt(post.PID, 10)},
		{model.PostSelectorSlug, "hello-world"},
	} {
		got, err := env.posts.Get(ctx, nil, sel[0], sel[1])
		if err != nil {
			t.Fatalf("Get(%s): %v", sel[0], err)
		}
		if got.UUID != post.UUID {
			t.Errorf("Get(%s) uuid = %q", sel[0], got.UUID)
		}
	}

	if _, err := env.posts.Get(ctx, nil, model.PostSelectorPID, "999999"); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("missing pid: error = %v, want %v", err, model.ErrPostNotFound)
	}
	if _, err := env.posts.Get(ctx, nil, model.PostSelectorPID, "abc"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("non-numeric pid: error = %v, want %v", err, model.ErrInvalidInput)
	}
	if _, err := env.posts.Get(ctx, nil, "title", "x"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("unknown selector: error = %v, want %v", err, model.ErrInvalidInput)
	}
}

func TestPostService_PrivatePostVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", model.AuthorityEditor)
	friend := env.addUser(t, "friend", model.AuthorityMember)
	stranger := env.addUser(t, "stranger", model.AuthorityMember)
	moderator := env.addUser(t, "moderator", model.AuthorityModerator)

	post := createPost(t, env, author, "Secret", nil)
	_, err := env.posts.Update(ctx, author, model.PostSelectorUUID, post.UUID, &model.UpdatePostRequest{
		IsPrivate:    boolPtr(true),
		AllowedUsers: &[]string{friend.UUID},
	})
	if err != nil {
		t.Fatalf("make private: %v", err)
	}

	tests := []struct {
		name    string
		viewer  *model.User
		visible bool
	}{
		{"anonymous", nil, false},
		{"stranger", stranger, false},
		{"allowed user", friend, true},
		{"author", author, true},
		{"moderator", moderator, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.posts.Get(ctx, tt.viewer, model.PostSelectorUUID, post.UUID)
			if tt.visible && err != nil {
				t.Errorf("expected visible, got %v", err)
			}
			if !tt.visible && !errors.Is(err, model.ErrPostNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})
	}
}

func TestPostService_Update_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", model.AuthorityEditor)
	other := env.addUser(t, "other", model.AuthorityModerator)
	sysop := env.addUser(t, "sysop", model.AuthoritySysop)

	post := createPost(t, env, author, "Draft", nil)
	createPost(t, env, author, "Taken", nil)

	if _, err := env.posts.Update(ctx, nil, model.PostSelectorUUID, post.UUID, &model.UpdatePostRequest{}); !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("anonymous: error = %v", err)
	}
	if _, err := env.posts.Update(ctx, other, model.PostSelectorUUID, post.UUID, &model.UpdatePostRequest{Title: strPtr("x")}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("moderator editing someone else's post: error = %v, want %v", err, model.ErrForbidden)
	}
	if _, err := env.posts.Update(ctx, author, model.PostSelectorUUID, post.UUID, &model.UpdatePostRequest{Slug: strPtr("taken")}); !errors.Is(err, model.ErrSlugTaken) {
		t.Errorf("slug clash: error = %v, want %v", err, model.ErrSlugTaken)
	}

	// keeping the current slug is not a clash
	updated, err := env.posts.Update(ctx, sysop, model.PostSelectorUUID, post.UUID, &model.UpdatePostRequest{
		Title: strPtr("Final"),
		Slug:  strPtr("draft"),
	})
	if err != nil {
		t.Fatalf("sysop edit: %v", err)
	}
	if updated.Title != "Final" || updated.EditorUUID != sysop.UUID || updated.EditedAt == nil {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Editor == nil || updated.Editor.UUID != sysop.UUID {
		t.Error("editor should be attached")
	}

	renamed, err := env.posts.Update(ctx, author, model.PostSelectorSlug, "draft", &model.UpdatePostRequest{Slug: strPtr("Final Cut")})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Slug != "final-cut" {
		t.Errorf("slug = %q, want final-cut", renamed.Slug)
	}
	last := env.publisher.events[len(env.publisher.events)-1]
	if last.Type != queue.EventPostUpdated || last.OldSlug != "draft" {
		t.Errorf("last event = %+v", last)
	}
}

func TestPostService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", model.AuthorityEditor)
	member := env.addUser(t, "member", model.AuthorityMember)
	moderator := env.addUser(t, "moderator", model.AuthorityModerator)

	post := createPost(t, env, author, "Doomed", nil)

	if err := env.posts.Delete(ctx, member, model.PostSelectorUUID, post.UUID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("member delete: error = %v, want %v", err, model.ErrForbidden)
	}
	if err := env.posts.Delete(ctx, moderator, model.PostSelectorUUID, post.UUID); err != nil {
		t.Fatalf("moderator delete: %v", err)
	}

	if _, err := env.posts.Get(ctx, member, model.PostSelectorUUID, post.UUID); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("deleted post for member: error = %v", err)
	}
	if _, err := env.posts.Get(ctx, author, model.PostSelectorUUID, post.UUID); err != nil {
		t.Errorf("deleted post stays readable by its author: %v", err)
	}
	if err := env.posts.Delete(ctx, author, model.PostSelectorUUID, post.UUID); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("double delete: error = %v", err)
	}

	// the slug is free again
	createPost(t, env, author, "Doomed", nil)
}

func TestPostService_ListRecent_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", model.AuthorityEditor)

	for i := 1; i <= 7; i++ {
		createPost(t, env, author, fmt.Sprintf("Post %d", i), nil)
	}

	var seen []int64
	for offset := 0; ; offset += 3 {
		page, err := env.posts.ListRecent(ctx, nil, model.NewPage(offset, 3))
		if err != nil {
			t.Fatalf("ListRecent(%d): %v", offset, err)
		}
		for _, p := range page.Posts {
			seen = append(seen, p.PID)
		}
		if !page.HasNext {
			break
		}
	}

	if len(seen) != 7 {
		t.Fatalf("saw %d posts, want 7: %v", len(seen), seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] >= seen[i-1] {
			t.Errorf("pids not strictly descending: %v", seen)
		}
	}
}

func TestPostService_ListByAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.addUser(t, "writer-a", model.AuthorityEditor)
	b := env.addUser(t, "writer-b", model.AuthorityEditor)
	createPost(t, env, a, "From A", nil)
	createPost(t, env, b, "From B", nil)

	resp, err := env.posts.ListByAuthor(ctx, nil, a.UUID, model.NewPage(0, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Posts) != 1 || resp.Posts[0].AuthorUUID != a.UUID {
		t.Errorf("posts = %+v", resp.Posts)
	}

	if _, err := env.posts.ListByAuthor(ctx, nil, "3f0c1d2e-0000-4000-8000-000000000000", model.NewPage(0, 10)); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("unknown author: error = %v", err)
	}
}

func TestPostService_PublishFailureDoesNotFailWrite(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("redis down")
	editor := env.addUser(t, "editor", model.AuthorityEditor)

	createPost(t, env, editor, "Still saved", nil)
}
