package entity

import "time"

// AccessGrant marks one role as authorized to decide requests in a scope.
type AccessGrant struct {
	Scope     string    `json:"scope"`
	RoleID    string    `json:"role_id"`
	GrantedBy string    `json:"granted_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Channel is an operating channel registered for a scope. Commands are
// honored anywhere until the first channel is registered.
type Channel struct {
	Scope     string    `json:"scope"`
	ChannelID string    `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
}
