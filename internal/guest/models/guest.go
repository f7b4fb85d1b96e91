package models

import (
	"time"
)

// Role is derived from IsLeader; it is not stored.
type Role string

const (
	RoleLeader    Role = "leader"
	RoleCompanion Role = "companion"
)

// MenuUnspecified buckets guests who did not pick a menu in Statistics.
const MenuUnspecified = "sin_especificar"

// Guest is a confirmed attendee. Leaders carry an email; companions carry the
// ID of their leader in CompanionOf. Exactly one of the two is set.
type Guest struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Lastname    string    `json:"lastname"`
	Email       string    `json:"email,omitempty"`
	IsLeader    bool      `json:"is_leader"`
	CompanionOf *int64    `json:"companion_of"`
	Menu        string    `json:"menu,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Role reports whether the guest leads a group or accompanies a leader.
func (g *Guest) Role() Role {
	if g.IsLeader {
		return RoleLeader
	}
	return RoleCompanion
}

// BelongsTo reports whether g is a companion of leaderID.
func (g *Guest) BelongsTo(leaderID int64) bool {
	return !g.IsLeader && g.CompanionOf != nil && *g.CompanionOf == leaderID
}

// Summary is the public projection used by leader and companion listings.
type Summary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
}

func (g *Guest) Summary() Summary {
	return Summary{ID: g.ID, Name: g.Name, Lastname: g.Lastname}
}

// Summaries projects a guest slice.
func Summaries(guests []*Guest) []Summary {
	out := make([]Summary, 0, len(guests))
	for _, g := range guests {
		out = append(out, g.Summary())
	}
	return out
}

// NewLeader builds a leader guest from already validated fields.
func NewLeader(name, lastname, email, menu string, now time.Time) *Guest {
	return &Guest{Name: name, Lastname: lastname, Email: email, IsLeader: true, Menu: menu, CreatedAt: now}
}

// NewCompanion builds a companion guest from already validated fields.
func NewCompanion(name, lastname string, leaderID int64, menu string, now time.Time) *Guest {
	return &Guest{Name: name, Lastname: lastname, CompanionOf: &leaderID, Menu: menu, CreatedAt: now}
}

// Patch holds the mutable fields of a guest. A nil Menu leaves the menu untouched.
type Patch struct {
	Name     string
	Lastname string
	Menu     *string
}

// ListFilter narrows List. Zero value lists everyone.
type ListFilter struct {
	LeadersOnly bool
	CompanionOf *int64
	// Query matches name or lastname case-insensitively by substring.
	Query string
}

// Statistics aggregates the guest list.
type Statistics struct {
	Total  int
	ByMenu map[string]int
}
