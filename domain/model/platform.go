package model

import "strings"

// Platform identifies an external social platform
type Platform string

const (
	PlatformFacebook Platform = "facebook"
	PlatformTikTok   Platform = "tiktok"
	PlatformZalo     Platform = "zalo"
	PlatformYouTube  Platform = "youtube"
)

// ParsePlatform normalizes user input ("Facebook", " tiktok ") into a Platform.
func ParsePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

func (p Platform) String() string { return string(p) }

// Identity is the scope a credential and an adapter instance belong to: a CRM user id or SystemIdentity.
type Identity string

// SystemIdentity scopes credentials sourced from configuration, used where no user is authenticated
// (e.g. replying to an inbound message).
const SystemIdentity Identity = "system"

func (i Identity) IsSystem() bool { return i == SystemIdentity }

func (i Identity) String() string { return string(i) }
