// Package models defines the GORM records backing the Aegis entity store.
package models

import "github.com/google/uuid"

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// assignID sets *id when it is still empty. Called from BeforeCreate hooks.
func assignID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}
