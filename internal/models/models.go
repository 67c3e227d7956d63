package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleStudent = "Student"
	RoleAdmin   = "Admin"
	RoleMentor  = "Mentor"
)

// ValidRole reports whether role is one of the allowed role values.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleAdmin, RoleMentor:
		return true
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	Name         string    `gorm:"not null"                 json:"name"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Bio          string    `json:"bio"`
	ProfileImage string    `json:"profileImage"`
	Role         string    `gorm:"not null;default:Student" json:"role"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary is the author shape embedded in posts, comments and follow lists.
type Summary struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
	}
}

type Post struct {
	ID        uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID  uint                        `gorm:"index;not null"           json:"authorId"`
	Content   string                      `gorm:"not null"                 json:"content"`
	Hashtags  datatypes.JSONSlice[string] `json:"hashtags"`
	Mentions  datatypes.JSONSlice[uint]   `json:"mentions"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

type Like struct {
	ID     uint `gorm:"primaryKey;autoIncrement"                json:"id"`
	PostID uint `gorm:"not null;uniqueIndex:idx_like_post_user" json:"postId"`
	UserID uint `gorm:"not null;uniqueIndex:idx_like_post_user" json:"userId"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint      `gorm:"index;not null"           json:"postId"`
	AuthorID  uint      `gorm:"not null"                 json:"authorId"`
	Content   string    `gorm:"not null"                 json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Follow struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"                    json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follower_following" json:"followerId"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follower_following" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Message struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   uint      `gorm:"index;not null"           json:"senderId"`
	ReceiverID uint      `gorm:"index;not null"           json:"receiverId"`
	Body       string    `gorm:"not null"                 json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

const (
	ResourceImage = "image"
	ResourcePDF   = "pdf"
)

// Resource belongs to a post and has no owner of its own: ownership
// checks traverse to the parent post's author.
type Resource struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint      `gorm:"index;not null"           json:"postId"`
	Type      string    `gorm:"not null"                 json:"type"`
	URL       string    `gorm:"not null"                 json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
