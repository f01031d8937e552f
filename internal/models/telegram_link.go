package models

import "time"

// TelegramLink is a one-time code that pairs a Telegram chat with UserID.
type TelegramLink struct {
	Code      string    `json:"code" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
