package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/service"
)

func newPostRouter(a *testAuth, posts *mockPostRepo) http.Handler {
	return NewPostHandler(service.NewPostService(posts), a.mw.Handler, a.mw.Optional).Routes()
}

func TestPostHandler_List(t *testing.T) {
	t.Run("anonymous viewer", func(t *testing.T) {
		a := newTestAuth(t)
		posts := new(mockPostRepo)
		posts.On("List", mock.Anything, "").Return([]model.PostView{
			{Post: model.Post{ID: postID, Title: "Study tips"}, Score: 3},
		}, nil).Once()

		rec := serve(t, newPostRouter(a, posts), http.MethodGet, "/", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		views := decodeBody[[]model.PostView](t, rec)
		require.Len(t, views, 1)
		assert.Equal(t, 3, views[0].Score)
		posts.AssertExpectations(t)
	})

	t.Run("signed-in viewer sees their own vote", func(t *testing.T) {
		a := newTestAuth(t)
		posts := new(mockPostRepo)
		posts.On("List", mock.Anything, personAlice).Return([]model.PostView{
			{Post: model.Post{ID: postID}, MyVote: model.VoteUp, Saved: true},
		}, nil).Once()

		rec := serve(t, newPostRouter(a, posts), http.MethodGet, "/", nil, a.token(t, personAlice))

		require.Equal(t, http.StatusOK, rec.Code)
		views := decodeBody[[]model.PostView](t, rec)
		require.Len(t, views, 1)
		assert.Equal(t, model.VoteUp, views[0].MyVote)
		assert.True(t, views[0].Saved)
	})

	t.Run("a bad token degrades to anonymous", func(t *testing.T) {
		a := newTestAuth(t)
		posts := new(mockPostRepo)
		posts.On("List", mock.Anything, "").Return(nil, nil).Once()

		rec := serve(t, newPostRouter(a, posts), http.MethodGet, "/", nil, "garbage")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestPostHandler_Vote(t *testing.T) {
	post := &model.Post{ID: postID, Title: "Study tips"}

	tests := []struct {
		name     string
		current  model.VoteValue
		value    int
		setup    func(posts *mockPostRepo)
		wantVote model.VoteValue
	}{
		{
			name:    "first upvote",
			current: model.VoteNone,
			value:   1,
			setup: func(posts *mockPostRepo) {
				posts.On("SetVote", mock.Anything, postID, personAlice, model.VoteUp).Return(nil).Once()
			},
			wantVote: model.VoteUp,
		},
		{
			name:    "repeating the vote removes it",
			current: model.VoteUp,
			value:   1,
			setup: func(posts *mockPostRepo) {
				posts.On("DeleteVote", mock.Anything, postID, personAlice).Return(nil).Once()
			},
			wantVote: model.VoteNone,
		},
		{
			name:    "opposite value flips it",
			current: model.VoteUp,
			value:   -1,
			setup: func(posts *mockPostRepo) {
				posts.On("SetVote", mock.Anything, postID, personAlice, model.VoteDown).Return(nil).Once()
			},
			wantVote: model.VoteDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAuth(t)
			posts := new(mockPostRepo)
			posts.On("FindByID", mock.Anything, postID).Return(post, nil).Once()
			posts.On("FindVote", mock.Anything, postID, personAlice).Return(tt.current, nil).Once()
			posts.On("Score", mock.Anything, postID).Return(7, nil).Once()
			tt.setup(posts)

			rec := serve(t, newPostRouter(a, posts), http.MethodPatch, "/"+postID+"/vote",
				map[string]int{"value": tt.value}, a.token(t, personAlice))

			require.Equal(t, http.StatusOK, rec.Code)
			result := decodeBody[model.VoteResult](t, rec)
			assert.Equal(t, postID, result.ID)
			assert.Equal(t, 7, result.Score)
			assert.Equal(t, tt.wantVote, result.MyVote)
			posts.AssertExpectations(t)
		})
	}

	t.Run("value must be 1 or -1", func(t *testing.T) {
		a := newTestAuth(t)
		posts := new(mockPostRepo)

		rec := serve(t, newPostRouter(a, posts), http.MethodPatch, "/"+postID+"/vote",
			map[string]int{"value": 2}, a.token(t, personAlice))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		posts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("requires a token", func(t *testing.T) {
		a := newTestAuth(t)

		rec := serve(t, newPostRouter(a, new(mockPostRepo)), http.MethodPatch, "/"+postID+"/vote",
			map[string]int{"value": 1}, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPostHandler_ToggleFavorite(t *testing.T) {
	a := newTestAuth(t)
	posts := new(mockPostRepo)
	posts.On("FindByID", mock.Anything, postID).Return(&model.Post{ID: postID}, nil).Once()
	posts.On("IsFavorite", mock.Anything, postID, personAlice).Return(false, nil).Once()
	posts.On("AddFavorite", mock.Anything, postID, personAlice).Return(nil).Once()
	posts.On("CountFavorites", mock.Anything, postID).Return(4, nil).Once()

	rec := serve(t, newPostRouter(a, posts), http.MethodPatch, "/"+postID+"/favorite", nil, a.token(t, personAlice))

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeBody[model.FavoriteResult](t, rec)
	assert.True(t, result.Saved)
	assert.Equal(t, 4, result.FavoritesCount)
	posts.AssertExpectations(t)
}

func TestPostHandler_SavedAndCreate(t *testing.T) {
	t.Run("saved posts", func(t *testing.T) {
		a := newTestAuth(t)
		posts := new(mockPostRepo)
		posts.On("ListSaved", mock.Anything, personAlice).Return(nil, nil).Once()

		rec := serve(t, newPostRouter(a, posts), http.MethodGet, "/saved", nil, a.token(t, personAlice))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("create records the author", func(t *testing.T) {
		a := newTestAuth(t)
		posts := new(mockPostRepo)
		posts.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreatePostParams) bool {
			return p.Title == "Exam week" && p.CreatedBy != nil && *p.CreatedBy == personAlice
		})).Return(&model.Post{ID: postID, Title: "Exam week"}, nil).Once()

		rec := serve(t, newPostRouter(a, posts), http.MethodPost, "/", map[string]string{
			"title":       " Exam week ",
			"description": "Share your schedule",
		}, a.token(t, personAlice))

		require.Equal(t, http.StatusCreated, rec.Code)
		posts.AssertExpectations(t)
	})

	t.Run("create needs a title", func(t *testing.T) {
		a := newTestAuth(t)

		rec := serve(t, newPostRouter(a, new(mockPostRepo)), http.MethodPost, "/", map[string]string{
			"description": "No title",
		}, a.token(t, personAlice))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
