package model

import "time"

// User is an account document. TotalBlockSeconds is the lifetime sum of
// completed focus time reported via /add_time.
type User struct {
	Username          string    `bson:"username" json:"username"`
	PasswordHash      string    `bson:"passwordHash" json:"-"`
	TotalBlockSeconds int       `bson:"totalBlockSeconds" json:"total_block_seconds"`
	CreatedAt         time.Time `bson:"createdAt" json:"created_at"`
}

// RankingEntry is one row of the global focus-time ranking
type RankingEntry struct {
	Rank         int    `json:"rank"`
	Username     string `json:"username"`
	TotalSeconds int    `json:"total_seconds"`
}

// AddTimeRequest is the request body for recording completed focus time
type AddTimeRequest struct {
	Seconds int `json:"seconds"`
}

// AddTimeResponse confirms a recorded focus-time increment
type AddTimeResponse struct {
	Message         string `json:"message"`
	NewTotalSeconds int    `json:"new_total_seconds"`
}
