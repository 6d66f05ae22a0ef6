package models

import (
	"time"

	"github.com/google/uuid"
)

type Progress struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	TotalCoins    int       `json:"totalCoins"`
	LearnedSigns  []string  `json:"learnedSigns"`
	CurrentStreak int       `json:"currentStreak"`
	BestStreak    int       `json:"bestStreak"`
	LastActivity  time.Time `json:"lastActivity"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewProgress returns a zeroed row for username.
func NewProgress(username string, now time.Time) *Progress {
	return &Progress{
		ID:           uuid.New(),
		Username:     username,
		LearnedSigns: []string{},
		LastActivity: now,
		CreatedAt:    now,
	}
}

func (p *Progress) AddCoins(amount int, now time.Time) {
	p.TotalCoins += amount
	if p.TotalCoins < 0 {
		p.TotalCoins = 0
	}
	p.LastActivity = now
}

func (p *Progress) IncrementStreak(now time.Time) {
	p.CurrentStreak++
	if p.CurrentStreak > p.BestStreak {
		p.BestStreak = p.CurrentStreak
	}
	p.LastActivity = now
}

func (p *Progress) ResetStreak(now time.Time) {
	p.CurrentStreak = 0
	p.LastActivity = now
}

func (p *Progress) AddLearnedSign(signID string, now time.Time) {
	p.LearnedSigns, _ = AddMember(p.LearnedSigns, signID)
	p.LastActivity = now
}

type LearnedSignRequest struct {
	SignID string `json:"signId" binding:"required"`
}
