package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateOAuthState returns an unguessable state value for the OAuth redirect
// round trip.
func GenerateOAuthState() string {
	id, err := gonanoid.Generate(idAlphabet, 32)
	if err != nil {
		return ""
	}
	return id
}
