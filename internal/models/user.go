package models

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

type User struct {
	ID                  uuid.UUID  `json:"id"`
	FirebaseUID         string     `json:"firebaseUid"`
	Email               string     `json:"email"`
	Username            string     `json:"username"`
	DisplayName         string     `json:"displayName"`
	ProfilePhoto        *string    `json:"profilePhoto"`
	Gender              Gender     `json:"gender"`
	AuthProvider        string     `json:"authProvider"`
	Coins               int        `json:"coins"`
	ChallengesCompleted int        `json:"challengesCompleted"`
	LikedStories        []string   `json:"likedStories"`
	SavedPosts          []string   `json:"savedPosts"`
	ProgressID          *uuid.UUID `json:"progressId,omitempty"`
	IsActive            bool       `json:"isActive"`
	LastLogin           time.Time  `json:"lastLogin"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// ActorID is the canonical id recorded on content the user touches.
func (u *User) ActorID() string {
	return NormalizeActorID(u.FirebaseUID)
}

type VerifyRequest struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	Email       *string `json:"email"`
	Gender      *Gender `json:"gender"`
}

type UpdateCoinsRequest struct {
	Coins *int `json:"coins" binding:"required,min=0"`
}

type AmountRequest struct {
	Amount int `json:"amount" binding:"required,gt=0"`
}
