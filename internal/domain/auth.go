package domain

import "time"

// PublisherClaims identifies the caller of a mutating API route
type PublisherClaims struct {
	Subject   string    `json:"sub"`
	Issuer    string    `json:"iss"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}
