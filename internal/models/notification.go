package models

import (
	"fmt"
	"time"
)

// NotificationKind discriminates the notification variants
type NotificationKind string

const (
	KindLike       NotificationKind = "LIKE"
	KindReview     NotificationKind = "REVIEW"
	KindFollow     NotificationKind = "FOLLOW"
	KindTitleAward NotificationKind = "TITLE_AWARD"
	KindTipLike    NotificationKind = "TIP_LIKE"
	KindTipComment NotificationKind = "TIP_COMMENT"
	KindTipReply   NotificationKind = "TIP_REPLY"
)

// ParseNotificationKind returns the kind for a stored type string
func ParseNotificationKind(s string) (NotificationKind, error) {
	switch k := NotificationKind(s); k {
	case KindLike, KindReview, KindFollow, KindTitleAward, KindTipLike, KindTipComment, KindTipReply:
		return k, nil
	}
	return "", fmt.Errorf("unknown notification kind %q", s)
}

// IsEngagement reports whether the kind is produced by a like, review or tip interaction
func (k NotificationKind) IsEngagement() bool {
	switch k {
	case KindLike, KindReview, KindTipLike, KindTipComment, KindTipReply:
		return true
	}
	return false
}

// Notification is a single stored notification record. Field names match the
// documents written by the mobile client so both can share a collection.
type Notification struct {
	ID                string           `json:"id" firestore:"-" bson:"_id"`
	UserID            string           `json:"user_id" firestore:"userId" bson:"userId"`
	Type              NotificationKind `json:"type" firestore:"type" bson:"type"`
	SenderID          string           `json:"sender_id,omitempty" firestore:"senderId" bson:"senderId"`
	SenderName        string           `json:"sender_name,omitempty" firestore:"senderName" bson:"senderName"`
	SenderProfileURL  string           `json:"sender_profile_url,omitempty" firestore:"senderProfileUrl" bson:"senderProfileUrl"`
	AggregatedUserIDs []string         `json:"aggregated_user_ids" firestore:"aggregatedUserIds" bson:"aggregatedUserIds"`
	RelatedContentID  string           `json:"related_content_id,omitempty" firestore:"relatedContentId" bson:"relatedContentId"`

	// Denormalized display fields. Which ones are set depends on Type.
	RecipeTitle        string `json:"recipe_title,omitempty" firestore:"recipeTitle,omitempty" bson:"recipeTitle,omitempty"`
	RecipeThumbnailURL string `json:"recipe_thumbnail_url,omitempty" firestore:"recipeThumbnailUrl,omitempty" bson:"recipeThumbnailUrl,omitempty"`
	TitleName          string `json:"title_name,omitempty" firestore:"titleName,omitempty" bson:"titleName,omitempty"`
	TipTitle           string `json:"tip_title,omitempty" firestore:"tipTitle,omitempty" bson:"tipTitle,omitempty"`
	TipFirstImageURL   string `json:"tip_first_image_url,omitempty" firestore:"tipFirstImageUrl,omitempty" bson:"tipFirstImageUrl,omitempty"`
	CommentContent     string `json:"comment_content,omitempty" firestore:"commentContent,omitempty" bson:"commentContent,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt" bson:"createdAt"`
	IsRead    bool      `json:"is_read" firestore:"isRead" bson:"isRead"`
}

// HasSender reports whether userID is already part of the aggregation set
func (n *Notification) HasSender(userID string) bool {
	for _, id := range n.AggregatedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Display is the kind-specific denormalized payload of a notification.
// The set of implementations is closed: RecipeDisplay, TipDisplay,
// FollowDisplay and TitleDisplay.
type Display interface {
	// Apply copies the display fields onto n, clearing fields owned by other variants.
	Apply(n *Notification)
	isDisplay()
}

// RecipeDisplay carries the fields shown for recipe likes and reviews
type RecipeDisplay struct {
	Title        string
	ThumbnailURL string
}

// TipDisplay carries the fields shown for tip likes, comments and replies
type TipDisplay struct {
	Title          string
	FirstImageURL  string
	CommentContent string
}

// FollowDisplay has no fields; the sender is the subject of a follow
type FollowDisplay struct{}

// TitleDisplay names the awarded title
type TitleDisplay struct {
	TitleName string
}

func (d RecipeDisplay) Apply(n *Notification) {
	clearDisplay(n)
	n.RecipeTitle = d.Title
	n.RecipeThumbnailURL = d.ThumbnailURL
}

func (d TipDisplay) Apply(n *Notification) {
	clearDisplay(n)
	n.TipTitle = d.Title
	n.TipFirstImageURL = d.FirstImageURL
	n.CommentContent = d.CommentContent
}

func (FollowDisplay) Apply(n *Notification) { clearDisplay(n) }

func (d TitleDisplay) Apply(n *Notification) {
	clearDisplay(n)
	n.TitleName = d.TitleName
}

func (RecipeDisplay) isDisplay() {}
func (TipDisplay) isDisplay()    {}
func (FollowDisplay) isDisplay() {}
func (TitleDisplay) isDisplay()  {}

func clearDisplay(n *Notification) {
	n.RecipeTitle, n.RecipeThumbnailURL = "", ""
	n.TitleName = ""
	n.TipTitle, n.TipFirstImageURL, n.CommentContent = "", "", ""
}

// CheckDisplay verifies that the display variant belongs to the kind
func CheckDisplay(kind NotificationKind, d Display) error {
	var ok bool
	switch kind {
	case KindLike, KindReview:
		_, ok = d.(RecipeDisplay)
	case KindTipLike, KindTipComment, KindTipReply:
		_, ok = d.(TipDisplay)
	case KindFollow:
		_, ok = d.(FollowDisplay)
	case KindTitleAward:
		_, ok = d.(TitleDisplay)
	default:
		return fmt.Errorf("unknown notification kind %q", kind)
	}
	if !ok {
		return fmt.Errorf("display %T does not match kind %s", d, kind)
	}
	return nil
}

// DisplayOf extracts the display variant stored on n
func DisplayOf(n *Notification) (Display, error) {
	switch n.Type {
	case KindLike, KindReview:
		return RecipeDisplay{Title: n.RecipeTitle, ThumbnailURL: n.RecipeThumbnailURL}, nil
	case KindTipLike, KindTipComment, KindTipReply:
		return TipDisplay{Title: n.TipTitle, FirstImageURL: n.TipFirstImageURL, CommentContent: n.CommentContent}, nil
	case KindFollow:
		return FollowDisplay{}, nil
	case KindTitleAward:
		return TitleDisplay{TitleName: n.TitleName}, nil
	}
	return nil, fmt.Errorf("unknown notification kind %q", n.Type)
}

// Screens a notification can open on the client
const (
	ScreenRecipeDetail    = "recipe_detail"
	ScreenTipDetail       = "tip_detail"
	ScreenUserProfile     = "user_profile"
	ScreenTitleCollection = "title_collection"
)

// Route is the navigation target of a notification
type Route struct {
	Screen   string `json:"screen"`
	TargetID string `json:"target_id"`
}

// RouteOf maps a notification to the screen it opens
func RouteOf(n *Notification) (Route, error) {
	switch n.Type {
	case KindLike, KindReview:
		return Route{Screen: ScreenRecipeDetail, TargetID: n.RelatedContentID}, nil
	case KindTipLike, KindTipComment, KindTipReply:
		return Route{Screen: ScreenTipDetail, TargetID: n.RelatedContentID}, nil
	case KindFollow:
		return Route{Screen: ScreenUserProfile, TargetID: n.RelatedContentID}, nil
	case KindTitleAward:
		return Route{Screen: ScreenTitleCollection, TargetID: n.UserID}, nil
	}
	return Route{}, fmt.Errorf("unknown notification kind %q", n.Type)
}

// Validate checks a record read back from a store before it is displayed
func (n *Notification) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("notification has no id")
	}
	if n.UserID == "" {
		return fmt.Errorf("notification %s has no recipient", n.ID)
	}
	if _, err := ParseNotificationKind(string(n.Type)); err != nil {
		return fmt.Errorf("notification %s: %w", n.ID, err)
	}
	if n.Type != KindTitleAward && len(n.AggregatedUserIDs) == 0 {
		return fmt.Errorf("notification %s has an empty aggregation set", n.ID)
	}
	return nil
}

// MarkReadRequest defines the request body for marking notifications read
type MarkReadRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
}
