// Package models defines the core data structures for line items, users and
// catalog products.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// ErrInvalidInput is wrapped by validation failures.
var ErrInvalidInput = errors.New("invalid input")

// LineItem is a product placed in the cart or the favorites list.
type LineItem struct {
	// ID is the catalog product id.
	ID int `json:"id"`
	// Title is the display name.
	Title string `json:"title"`
	// Price is a non-negative amount in the catalog's currency unit.
	Price float64 `json:"price"`
	// Quantity is only meaningful in the cart. Nil means 1.
	Quantity *int `json:"quantity,omitempty"`
	// Thumbnail is an optional image URL kept for display.
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Qty returns the effective quantity of the item.
func (li LineItem) Qty() int {
	if li.Quantity == nil {
		return 1
	}
	return *li.Quantity
}

// WithQty returns a copy of li holding quantity n.
func (li LineItem) WithQty(n int) LineItem {
	li.Quantity = &n
	return li
}

// User is the identity held by an active session. It never carries a credential.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Account is a registered user as stored in the users list.
type Account struct {
	User
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"password_hash"`
}

// RegisterRequest carries the sign-up form.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

// Validate reports whether the form is complete.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return fmt.Errorf("%w: please fill in all fields", ErrInvalidInput)
	}
	if len(r.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// UserUpdate is a partial profile change. Nil fields are left untouched.
type UserUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Apply merges the set fields of upd into u.
func (upd UserUpdate) Apply(u User) User {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	return u
}

// Product is a record served by the external catalog.
type Product struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Rating             float64  `json:"rating"`
	Stock              int      `json:"stock"`
	Brand              string   `json:"brand,omitempty"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
}

// LineItem copies the fields of p that the cart and favorites keep.
func (p Product) LineItem() LineItem {
	return LineItem{
		ID:        p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Thumbnail: p.Thumbnail,
	}
}

// Category is a catalog category as listed by the catalog.
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
