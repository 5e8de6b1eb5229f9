package models

import "time"

type Store struct {
	ID                 int64     `json:"id"`
	OwnerID            int64     `json:"owner_id"`
	Name               *string   `json:"name"`
	Description        *string   `json:"description"`
	Address            *string   `json:"address"`
	Latitude           *float64  `json:"latitude"`
	Longitude          *float64  `json:"longitude"`
	Phone              *string   `json:"phone"`
	PhotoURL           *string   `json:"photo_url"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Expert struct {
	ID        int64     `json:"id"`
	StoreID   int64     `json:"store_id"`
	Name      string    `json:"name"`
	Title     *string   `json:"title"`
	Bio       *string   `json:"bio"`
	AvatarURL *string   `json:"avatar_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Service struct {
	ID          int64     `json:"id"`
	StoreID     int64     `json:"store_id"`
	ExpertID    *int64    `json:"expert_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	DurationMin int       `json:"duration_min"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
