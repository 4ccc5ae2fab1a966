package model

import "time"

// PlatformCredential stores platform OAuth credentials per (identity, platform).
// A zero ExpiresAt marks a token without expiry (e.g. Facebook page tokens).
type PlatformCredential struct {
	ID           int64     `json:"id"`
	Identity     Identity  `json:"identity"`
	Platform     Platform  `json:"platform"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	// AccountID is the page id, TikTok open_id, Zalo OA id or YouTube channel id the token acts for
	AccountID   string    `json:"account_id,omitempty"`
	AccountName string    `json:"account_name,omitempty"`
	Scopes      string    `json:"scopes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Expired reports whether the credential must not be used at now.
func (c *PlatformCredential) Expired(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return true
	}
	return !c.ExpiresAt.IsZero() && !c.ExpiresAt.After(now)
}

// ExpiresWithin reports whether the token expires before now+d.
func (c *PlatformCredential) ExpiresWithin(now time.Time, d time.Duration) bool {
	if c == nil {
		return true
	}
	return !c.ExpiresAt.IsZero() && !c.ExpiresAt.After(now.Add(d))
}

func (c *PlatformCredential) Clone() *PlatformCredential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
