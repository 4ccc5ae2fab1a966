package configuration

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Platforms holds per-platform static settings, read once when an adapter is constructed.
type Platforms struct {
	Facebook Facebook `json:"facebook"`
	TikTok   TikTok   `json:"tiktok"`
	Zalo     Zalo     `json:"zalo"`
	YouTube  YouTube  `json:"youtube"`
}

// SystemCredential is a configuration-sourced token used for the system identity.
type SystemCredential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	AccountID    string `json:"accountId"`
	AccountName  string `json:"accountName"`
	// ExpiresAt is RFC3339; empty means the token does not expire
	ExpiresAt string `json:"expiresAt"`
}

// Expiry parses ExpiresAt, returning the zero time when unset or malformed.
func (s SystemCredential) Expiry() time.Time {
	if s.ExpiresAt == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.ExpiresAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

type Facebook struct {
	AppID        string           `json:"appId"`
	AppSecret    string           `json:"appSecret"`
	RedirectURI  string           `json:"redirectURI"`
	GraphVersion string           `json:"graphVersion"`
	BaseURL      string           `json:"baseURL"`
	System       SystemCredential `json:"system"`
}

type TikTok struct {
	ClientKey    string           `json:"clientKey"`
	ClientSecret string           `json:"clientSecret"`
	RedirectURI  string           `json:"redirectURI"`
	BaseURL      string           `json:"baseURL"`
	PrivacyLevel string           `json:"privacyLevel"`
	System       SystemCredential `json:"system"`
}

type Zalo struct {
	AppID     string           `json:"appId"`
	SecretKey string           `json:"secretKey"`
	BaseURL   string           `json:"baseURL"`
	OAuthURL  string           `json:"oauthURL"`
	Author    string           `json:"author"`
	System    SystemCredential `json:"system"`
}

type YouTube struct {
	ClientID     string           `json:"clientId"`
	ClientSecret string           `json:"clientSecret"`
	RedirectURI  string           `json:"redirectURI"`
	BaseURL      string           `json:"baseURL"`
	Privacy      string           `json:"privacy"`
	CategoryID   string           `json:"categoryId"`
	System       SystemCredential `json:"system"`
}

func initPlatforms(p *Platforms) {
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	callback := func(name string) string {
		return fmt.Sprintf("%s://localhost:%d/auth/%s/callback", scheme, C.App.Port, name)
	}

	p.Facebook.AppID = getConfigValue(p.Facebook.AppID, "FACEBOOK_APP_ID", "")
	p.Facebook.AppSecret = getConfigValue(p.Facebook.AppSecret, "FACEBOOK_APP_SECRET", "")
	p.Facebook.RedirectURI = getConfigValue(p.Facebook.RedirectURI, "FACEBOOK_REDIRECT_URI", callback("facebook"))
	p.Facebook.GraphVersion = getConfigValue(p.Facebook.GraphVersion, "FACEBOOK_GRAPH_VERSION", "v19.0")
	p.Facebook.BaseURL = getConfigValue(p.Facebook.BaseURL, "FACEBOOK_BASE_URL", "https://graph.facebook.com")
	initSystem(&p.Facebook.System, "FACEBOOK")

	p.TikTok.ClientKey = getConfigValue(p.TikTok.ClientKey, "TIKTOK_CLIENT_KEY", "")
	p.TikTok.ClientSecret = getConfigValue(p.TikTok.ClientSecret, "TIKTOK_CLIENT_SECRET", "")
	p.TikTok.RedirectURI = getConfigValue(p.TikTok.RedirectURI, "TIKTOK_REDIRECT_URI", callback("tiktok"))
	p.TikTok.BaseURL = getConfigValue(p.TikTok.BaseURL, "TIKTOK_BASE_URL", "https://open.tiktokapis.com")
	p.TikTok.PrivacyLevel = getConfigValue(p.TikTok.PrivacyLevel, "TIKTOK_PRIVACY_LEVEL", "PUBLIC_TO_EVERYONE")
	initSystem(&p.TikTok.System, "TIKTOK")

	p.Zalo.AppID = getConfigValue(p.Zalo.AppID, "ZALO_APP_ID", "")
	p.Zalo.SecretKey = getConfigValue(p.Zalo.SecretKey, "ZALO_SECRET_KEY", "")
	p.Zalo.BaseURL = getConfigValue(p.Zalo.BaseURL, "ZALO_BASE_URL", "https://openapi.zalo.me")
	p.Zalo.OAuthURL = getConfigValue(p.Zalo.OAuthURL, "ZALO_OAUTH_URL", "https://oauth.zaloapp.com")
	initSystem(&p.Zalo.System, "ZALO")

	p.YouTube.ClientID = getConfigValue(p.YouTube.ClientID, "YOUTUBE_CLIENT_ID", "")
	p.YouTube.ClientSecret = getConfigValue(p.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", "")
	p.YouTube.RedirectURI = getConfigValue(p.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", callback("youtube"))
	p.YouTube.Privacy = getConfigValue(p.YouTube.Privacy, "YOUTUBE_PRIVACY", "public")
	p.YouTube.CategoryID = getConfigValue(p.YouTube.CategoryID, "YOUTUBE_CATEGORY_ID", "22")
	initSystem(&p.YouTube.System, "YOUTUBE")
}

func initSystem(s *SystemCredential, prefix string) {
	s.AccessToken = getConfigValue(s.AccessToken, prefix+"_SYSTEM_ACCESS_TOKEN", "")
	s.RefreshToken = getConfigValue(s.RefreshToken, prefix+"_SYSTEM_REFRESH_TOKEN", "")
	s.AccountID = getConfigValue(s.AccountID, prefix+"_SYSTEM_ACCOUNT_ID", "")
	s.ExpiresAt = getConfigValue(s.ExpiresAt, prefix+"_SYSTEM_EXPIRES_AT", "")
}

// getConfigValue prefers the environment, then a non-placeholder config value, then the default.
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
