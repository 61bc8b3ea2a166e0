package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/internal/router"
	"github.com/anonto42/nano-recipe/backend/internal/services"
	"github.com/anonto42/nano-recipe/backend/internal/validators"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// uidVerifier accepts any token and uses it as the UID
type uidVerifier struct{}

func (uidVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	return &auth.Token{UID: idToken}, nil
}

type fakeContent struct {
	recipes  map[string]*models.Recipe
	tips     map[string]*models.Tip
	counters map[string]int
}

func (f *fakeContent) GetRecipeByID(_ context.Context, id string) (*models.Recipe, error) {
	if r, ok := f.recipes[id]; ok {
		out := *r
		return &out, nil
	}
	return nil, fmt.Errorf("recipe %s: %w", id, repositories.ErrNotFound)
}

func (f *fakeContent) GetTipByID(_ context.Context, id string) (*models.Tip, error) {
	if t, ok := f.tips[id]; ok {
		out := *t
		return &out, nil
	}
	return nil, fmt.Errorf("tip %s: %w", id, repositories.ErrNotFound)
}

func (f *fakeContent) IncrementRecipeCounter(_ context.Context, id, field string, delta int) error {
	f.counters["recipe/"+id+"/"+field] += delta
	return nil
}

func (f *fakeContent) IncrementTipCounter(_ context.Context, id, field string, delta int) error {
	f.counters["tip/"+id+"/"+field] += delta
	return nil
}

type testServer struct {
	e       *echo.Echo
	store   *repositories.MemoryNotificationStore
	content *fakeContent
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := router.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	content := &fakeContent{
		recipes: map[string]*models.Recipe{
			"r1": {UserID: "alice", Title: "Tomato Soup", ThumbnailURL: "https://img/soup"},
		},
		tips: map[string]*models.Tip{
			"t1": {UserID: "alice", Title: "Knife care", ImageURLs: []string{"https://img/knife", "https://img/knife2"}},
		},
		counters: map[string]int{},
	}
	store := repositories.NewMemoryNotificationStore()

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupRoutes(e, router.Dependencies{
		Postgres:      db,
		Content:       content,
		Notifications: store,
		TokenVerifier: uidVerifier{},
		GroupWindow:   services.DefaultGroupWindow,
	})

	s := &testServer{e: e, store: store, content: content}
	for uid, name := range map[string]string{"alice": "Alice", "bob": "Bob", "carol": "Carol"} {
		s.mustDo(t, http.MethodPut, "/api/v1/profile", uid, fmt.Sprintf(`{"display_name":%q}`, name), http.StatusOK)
	}
	return s
}

func (s *testServer) do(method, path, uid, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+uid)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) mustDo(t *testing.T, method, path, uid, body string, status int) *httptest.ResponseRecorder {
	t.Helper()
	rec := s.do(method, path, uid, body)
	if rec.Code != status {
		t.Fatalf("%s %s as %s: expected %d, got %d: %s", method, path, uid, status, rec.Code, rec.Body.String())
	}
	return rec
}

func (s *testServer) notifications(recipient string, kind models.NotificationKind) []models.Notification {
	var out []models.Notification
	for _, n := range s.store.All() {
		if n.UserID == recipient && n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

func TestRequiresToken(t *testing.T) {
	s := newTestServer(t)
	s.mustDo(t, http.MethodGet, "/api/v1/notifications", "", "", http.StatusUnauthorized)
	s.mustDo(t, http.MethodGet, "/health", "", "", http.StatusOK)
}

func TestRecipeLikeFlow(t *testing.T) {
	s := newTestServer(t)

	s.mustDo(t, http.MethodPost, "/api/v1/recipes/r1/likes", "bob", "", http.StatusCreated)
	s.mustDo(t, http.MethodPost, "/api/v1/recipes/r1/likes", "carol", "", http.StatusCreated)
	s.mustDo(t, http.MethodPost, "/api/v1/recipes/r1/likes", "bob", "", http.StatusConflict)
	s.mustDo(t, http.MethodPost, "/api/v1/recipes/missing/likes", "bob", "", http.StatusNotFound)

	likes := s.notifications("alice", models.KindLike)
	if len(likes) != 1 {
		t.Fatalf("expected 1 like notification, got %d", len(likes))
	}
	n := likes[0]
	if len(n.AggregatedUserIDs) != 2 || n.SenderName != "Carol" || n.RecipeTitle != "Tomato Soup" || n.RelatedContentID != "r1" {
		t.Errorf("unexpected notification %+v", n)
	}
	if got := s.content.counters["recipe/r1/likes_count"]; got != 2 {
		t.Errorf("expected likes_count 2, got %d", got)
	}

	s.mustDo(t, http.MethodDelete, "/api/v1/recipes/r1/likes", "bob", "", http.StatusNoContent)
	s.mustDo(t, http.MethodDelete, "/api/v1/recipes/r1/likes", "bob", "", http.StatusNotFound)
	likes = s.notifications("alice", models.KindLike)
	if len(likes) != 1 || len(likes[0].AggregatedUserIDs) != 1 || likes[0].AggregatedUserIDs[0] != "carol" {
		t.Fatalf("expected {carol} after unlike, got %+v", likes)
	}

	s.mustDo(t, http.MethodDelete, "/api/v1/recipes/r1/likes", "carol", "", http.StatusNoContent)
	if got := len(s.notifications("alice", models.KindLike)); got != 0 {
		t.Fatalf("expected like notification deleted, got %d", got)
	}

	// Liking your own recipe never notifies.
	s.mustDo(t, http.MethodPost, "/api/v1/recipes/r1/likes", "alice", "", http.StatusCreated)
	if got := len(s.store.All()); got != 0 {
		t.Fatalf("expected no notifications, got %d", got)
	}

	rec := s.mustDo(t, http.MethodGet, "/api/v1/recipes/r1/likes/status", "alice", "", http.StatusOK)
	var status struct {
		HasLiked   bool  `json:"has_liked"`
		LikesCount int64 `json:"likes_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.HasLiked || status.LikesCount != 1 {
		t.Errorf("unexpected like status %+v", status)
	}
}

func TestTipLikeUsesTipDisplay(t *testing.T) {
	s := newTestServer(t)

	s.mustDo(t, http.MethodPost, "/api/v1/tips/t1/likes", "bob", "", http.StatusCreated)
	likes := s.notifications("alice", models.KindTipLike)
	if len(likes) != 1 || likes[0].TipTitle != "Knife care" || likes[0].TipFirstImageURL != "https://img/knife" {
		t.Fatalf("unexpected tip like notifications %+v", likes)
	}

	s.mustDo(t, http.MethodDelete, "/api/v1/tips/t1/likes", "bob", "", http.StatusNoContent)
	if got := len(s.notifications("alice", models.KindTipLike)); got != 0 {
		t.Fatalf("expected tip like notification removed, got %d", got)
	}
}

func TestReviewFlow(t *testing.T) {
	s := newTestServer(t)

	s.mustDo(t, http.MethodPost, "/api/v1/recipes/r1/reviews", "bob", `{"rating":6,"content":"x"}`, http.StatusBadRequest)
	first := s.mustDo(t, http.MethodPost, "/api/v1/recipes/r1/reviews", "bob", `{"rating":5,"content":"lovely"}`, http.StatusCreated)
	second := s.mustDo(t, http.MethodPost, "/api/v1/recipes/r1/reviews", "bob", `{"rating":4,"content":"still good"}`, http.StatusCreated)

	reviews := s.notifications("alice", models.KindReview)
	if len(reviews) != 1 || len(reviews[0].AggregatedUserIDs) != 1 {
		t.Fatalf("expected one review notification for bob, got %+v", reviews)
	}

	var r1, r2 models.Review
	json.Unmarshal(first.Body.Bytes(), &r1)
	json.Unmarshal(second.Body.Bytes(), &r2)

	s.mustDo(t, http.MethodDelete, fmt.Sprintf("/api/v1/reviews/%d", r1.ID), "carol", "", http.StatusForbidden)
	s.mustDo(t, http.MethodDelete, fmt.Sprintf("/api/v1/reviews/%d", r1.ID), "bob", "", http.StatusNoContent)
	if got := len(s.notifications("alice", models.KindReview)); got != 1 {
		t.Fatalf("expected notification kept while bob has a review, got %d", got)
	}
	s.mustDo(t, http.MethodDelete, fmt.Sprintf("/api/v1/reviews/%d", r2.ID), "bob", "", http.StatusNoContent)
	if got := len(s.notifications("alice", models.KindReview)); got != 0 {
		t.Fatalf("expected review notification removed, got %d", got)
	}
}

func TestTipCommentsAndReplies(t *testing.T) {
	s := newTestServer(t)

	rec := s.mustDo(t, http.MethodPost, "/api/v1/tips/t1/comments", "bob", `{"content":"great tip"}`, http.StatusCreated)
	var comment models.TipComment
	if err := json.Unmarshal(rec.Body.Bytes(), &comment); err != nil {
		t.Fatalf("decode: %v", err)
	}

	comments := s.notifications("alice", models.KindTipComment)
	if len(comments) != 1 || comments[0].CommentContent != "great tip" || comments[0].RelatedContentID != "t1" {
		t.Fatalf("unexpected comment notifications %+v", comments)
	}

	body := fmt.Sprintf(`{"content":"thanks!","parent_id":%d}`, comment.ID)
	s.mustDo(t, http.MethodPost, "/api/v1/tips/t1/comments", "alice", body, http.StatusCreated)
	replies := s.notifications("bob", models.KindTipReply)
	if len(replies) != 1 || replies[0].SenderName != "Alice" || replies[0].CommentContent != "thanks!" {
		t.Fatalf("unexpected reply notifications %+v", replies)
	}
	if got := s.content.counters["tip/t1/comments_count"]; got != 2 {
		t.Errorf("expected comments_count 2, got %d", got)
	}

	s.mustDo(t, http.MethodPost, "/api/v1/tips/t1/comments", "bob", `{"content":"x","parent_id":999}`, http.StatusNotFound)

	s.mustDo(t, http.MethodDelete, fmt.Sprintf("/api/v1/tip-comments/%d", comment.ID), "carol", "", http.StatusForbidden)
	s.mustDo(t, http.MethodDelete, fmt.Sprintf("/api/v1/tip-comments/%d", comment.ID), "bob", "", http.StatusNoContent)
	if got := len(s.notifications("alice", models.KindTipComment)); got != 0 {
		t.Fatalf("expected comment notification removed, got %d", got)
	}

	rec = s.mustDo(t, http.MethodGet, "/api/v1/tips/t1/comments", "carol", "", http.StatusOK)
	var remaining []models.TipComment
	json.Unmarshal(rec.Body.Bytes(), &remaining)
	if len(remaining) != 1 || remaining[0].UserID != "alice" {
		t.Errorf("expected only alice's reply left, got %+v", remaining)
	}
}

func TestFollowFlow(t *testing.T) {
	s := newTestServer(t)

	s.mustDo(t, http.MethodPost, "/api/v1/users/alice/follow", "alice", "", http.StatusBadRequest)
	s.mustDo(t, http.MethodPost, "/api/v1/users/nobody/follow", "bob", "", http.StatusNotFound)
	s.mustDo(t, http.MethodPost, "/api/v1/users/alice/follow", "bob", "", http.StatusOK)
	s.mustDo(t, http.MethodPost, "/api/v1/users/alice/follow", "bob", "", http.StatusConflict)
	s.mustDo(t, http.MethodPost, "/api/v1/users/alice/follow", "carol", "", http.StatusOK)

	follows := s.notifications("alice", models.KindFollow)
	if len(follows) != 1 || len(follows[0].AggregatedUserIDs) != 2 || follows[0].RelatedContentID != "carol" {
		t.Fatalf("unexpected follow notifications %+v", follows)
	}

	s.mustDo(t, http.MethodDelete, "/api/v1/users/alice/follow", "bob", "", http.StatusOK)
	s.mustDo(t, http.MethodDelete, "/api/v1/users/alice/follow", "bob", "", http.StatusNotFound)
	follows = s.notifications("alice", models.KindFollow)
	if len(follows) != 1 || len(follows[0].AggregatedUserIDs) != 1 {
		t.Fatalf("expected {carol} after unfollow, got %+v", follows)
	}
}

func TestGrantTitle(t *testing.T) {
	s := newTestServer(t)

	s.mustDo(t, http.MethodPost, "/api/v1/me/titles", "bob", `{"title_name":"Home Cook"}`, http.StatusCreated)
	s.mustDo(t, http.MethodPost, "/api/v1/me/titles", "bob", `{"title_name":"Home Cook"}`, http.StatusConflict)
	s.mustDo(t, http.MethodPost, "/api/v1/me/titles", "bob", `{"title_name":"Baker"}`, http.StatusCreated)

	awards := s.notifications("bob", models.KindTitleAward)
	if len(awards) != 2 {
		t.Fatalf("expected 2 award notifications, got %d", len(awards))
	}
}

func TestNotificationEndpoints(t *testing.T) {
	s := newTestServer(t)

	s.mustDo(t, http.MethodPost, "/api/v1/recipes/r1/likes", "bob", "", http.StatusCreated)
	s.mustDo(t, http.MethodPost, "/api/v1/users/alice/follow", "bob", "", http.StatusOK)
	s.mustDo(t, http.MethodPost, "/api/v1/me/titles", "alice", `{"title_name":"Home Cook"}`, http.StatusCreated)

	var list struct {
		Data struct {
			Unread []services.FeedItem `json:"unread"`
			Read   []services.FeedItem `json:"read"`
		} `json:"data"`
	}
	rec := s.mustDo(t, http.MethodGet, "/api/v1/notifications", "alice", "", http.StatusOK)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Data.Unread) != 3 || len(list.Data.Read) != 0 {
		t.Fatalf("expected 3 unread, got %d unread and %d read", len(list.Data.Unread), len(list.Data.Read))
	}
	screens := map[string]bool{}
	for _, item := range list.Data.Unread {
		screens[item.Route.Screen] = true
	}
	for _, want := range []string{models.ScreenRecipeDetail, models.ScreenUserProfile, models.ScreenTitleCollection} {
		if !screens[want] {
			t.Errorf("expected a %s route, got %v", want, screens)
		}
	}

	s.mustDo(t, http.MethodPut, "/api/v1/notifications/read", "alice", `{"ids":[]}`, http.StatusBadRequest)
	body := fmt.Sprintf(`{"ids":[%q]}`, list.Data.Unread[0].ID)
	s.mustDo(t, http.MethodPut, "/api/v1/notifications/read", "alice", body, http.StatusOK)

	var count struct {
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	rec = s.mustDo(t, http.MethodGet, "/api/v1/notifications/unread-count", "alice", "", http.StatusOK)
	json.Unmarshal(rec.Body.Bytes(), &count)
	if count.Data.Count != 2 {
		t.Errorf("expected 2 unread, got %d", count.Data.Count)
	}

	// Another user cannot mark alice's notifications read.
	s.mustDo(t, http.MethodPut, "/api/v1/notifications/"+list.Data.Unread[1].ID+"/read", "bob", "", http.StatusOK)
	s.mustDo(t, http.MethodPut, "/api/v1/notifications/"+list.Data.Unread[1].ID+"/read", "alice", "", http.StatusOK)
	s.mustDo(t, http.MethodPut, "/api/v1/notifications/read-all", "alice", "", http.StatusOK)

	rec = s.mustDo(t, http.MethodGet, "/api/v1/notifications/unread-count", "alice", "", http.StatusOK)
	json.Unmarshal(rec.Body.Bytes(), &count)
	if count.Data.Count != 0 {
		t.Errorf("expected 0 unread, got %d", count.Data.Count)
	}
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)

	s.mustDo(t, http.MethodPut, "/api/v1/profile", "bob", `{"display_name":"B"}`, http.StatusBadRequest)
	s.mustDo(t, http.MethodPut, "/api/v1/profile", "bob", `{"display_name":"Bobby","avatar_url":"https://avatars/bob"}`, http.StatusOK)

	rec := s.mustDo(t, http.MethodGet, "/api/v1/users/bob", "alice", "", http.StatusOK)
	var user models.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Bobby" || user.AvatarURL != "https://avatars/bob" {
		t.Errorf("unexpected profile %+v", user)
	}
	s.mustDo(t, http.MethodGet, "/api/v1/users/nobody", "alice", "", http.StatusNotFound)
	s.mustDo(t, http.MethodGet, "/api/v1/profile", "dave", "", http.StatusNotFound)
}
