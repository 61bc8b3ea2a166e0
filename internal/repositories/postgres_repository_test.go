package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.Like{}, &models.Follow{}, &models.Review{}, &models.TipComment{}, &models.UserTitle{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresUserRepository(newTestDB(t))

	if _, err := repo.GetUserByID(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpsertUser(ctx, &models.User{ID: "bob", DisplayName: "Bob"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpsertUser(ctx, &models.User{ID: "bob", DisplayName: "Robert", AvatarURL: "https://avatars/bob"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	user, err := repo.GetUserByID(ctx, "bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user.DisplayName != "Robert" || user.AvatarURL != "https://avatars/bob" {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestLikeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresLikeRepository(newTestDB(t))

	like := &models.Like{TargetType: models.LikeTargetRecipe, TargetID: "r1", UserID: "bob"}
	if err := repo.CreateLike(ctx, like); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateLike(ctx, &models.Like{TargetType: models.LikeTargetRecipe, TargetID: "r1", UserID: "bob"}); err == nil {
		t.Error("expected duplicate like to fail")
	}
	if err := repo.CreateLike(ctx, &models.Like{TargetType: models.LikeTargetTip, TargetID: "r1", UserID: "bob"}); err != nil {
		t.Fatalf("tip like with same id: %v", err)
	}

	liked, err := repo.HasUserLiked(ctx, models.LikeTargetRecipe, "r1", "bob")
	if err != nil || !liked {
		t.Fatalf("expected liked, got %v (%v)", liked, err)
	}
	if count, _ := repo.CountLikes(ctx, models.LikeTargetRecipe, "r1"); count != 1 {
		t.Errorf("expected 1 like, got %d", count)
	}

	if err := repo.DeleteLike(ctx, models.LikeTargetRecipe, "r1", "bob"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteLike(ctx, models.LikeTargetRecipe, "r1", "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.CreateLike(ctx, &models.Like{TargetType: models.LikeTargetRecipe, TargetID: "r1", UserID: "bob"}); err != nil {
		t.Errorf("expected like after unlike to succeed: %v", err)
	}
}

func TestFollowRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresFollowRepository(newTestDB(t))

	if err := repo.CreateFollow(ctx, &models.Follow{FollowerID: "bob", FollowingID: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	following, _ := repo.IsFollowing(ctx, "bob", "alice")
	if !following {
		t.Error("expected bob to follow alice")
	}
	if count, _ := repo.GetFollowersCount(ctx, "alice"); count != 1 {
		t.Errorf("expected 1 follower, got %d", count)
	}
	if err := repo.DeleteFollow(ctx, "bob", "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteFollow(ctx, "bob", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReviewRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresReviewRepository(newTestDB(t))

	review := &models.Review{RecipeID: "r1", UserID: "bob", Rating: 5, Content: "great"}
	if err := repo.CreateReview(ctx, review); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetReviewByID(ctx, review.ID)
	if err != nil || got.Content != "great" {
		t.Fatalf("get: %+v (%v)", got, err)
	}
	if count, _ := repo.CountUserReviews(ctx, "r1", "bob"); count != 1 {
		t.Errorf("expected 1 review, got %d", count)
	}
	if err := repo.DeleteReview(ctx, review.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetReviewByID(ctx, review.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if count, _ := repo.CountUserReviews(ctx, "r1", "bob"); count != 0 {
		t.Errorf("expected 0 reviews, got %d", count)
	}
}

func TestTipCommentRepositoryCounts(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresTipCommentRepository(newTestDB(t))

	parent := &models.TipComment{TipID: "t1", UserID: "alice", Content: "tip owner here"}
	if err := repo.CreateComment(ctx, parent); err != nil {
		t.Fatalf("create parent: %v", err)
	}
	top := &models.TipComment{TipID: "t1", UserID: "bob", Content: "nice"}
	reply := &models.TipComment{TipID: "t1", UserID: "bob", ParentID: &parent.ID, Content: "agreed"}
	for _, c := range []*models.TipComment{top, reply} {
		if err := repo.CreateComment(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if n, _ := repo.CountUserComments(ctx, "t1", "bob", ""); n != 1 {
		t.Errorf("expected 1 top-level comment, got %d", n)
	}
	if n, _ := repo.CountUserComments(ctx, "t1", "bob", "alice"); n != 1 {
		t.Errorf("expected 1 reply to alice, got %d", n)
	}
	if err := repo.DeleteComment(ctx, reply.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := repo.CountUserComments(ctx, "t1", "bob", "alice"); n != 0 {
		t.Errorf("expected 0 replies after delete, got %d", n)
	}
	got, err := repo.GetCommentByID(ctx, top.ID)
	if err != nil || got.ParentID != nil {
		t.Errorf("unexpected top-level comment %+v (%v)", got, err)
	}
}

func TestTitleRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresTitleRepository(newTestDB(t))

	if err := repo.GrantTitle(ctx, &models.UserTitle{UserID: "alice", TitleName: "Home Cook"}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := repo.GrantTitle(ctx, &models.UserTitle{UserID: "alice", TitleName: "Home Cook"}); err == nil {
		t.Error("expected duplicate title to fail")
	}
	has, _ := repo.HasTitle(ctx, "alice", "Home Cook")
	if !has {
		t.Error("expected alice to hold the title")
	}
	titles, err := repo.GetTitles(ctx, "alice")
	if err != nil || len(titles) != 1 {
		t.Errorf("expected 1 title, got %d (%v)", len(titles), err)
	}
}
