/*
Package roster derives display profiles for the users currently present in the chat.

The server only sends bare usernames. Each name is turned into a UserProfile carrying an
avatar URL and a background color, both computed deterministically from the name and its
position in the list, so the same roster always renders the same way.
*/
package roster

import "net/url"

const (
	// AvatarBaseURL is the avatar service endpoint; the username is passed as the seed.
	AvatarBaseURL = "https://api.dicebear.com/9.x/pixel-art/svg"

	// DefaultAvatarSeed is the seed used for senders missing from the roster.
	DefaultAvatarSeed = "unknown"

	// DefaultColor is the color used for senders missing from the roster.
	DefaultColor = "#ffffff"
)

// Palette is the fixed, ordered set of user colors. A user's color is picked by their
// position in the roster modulo the palette length, so colors repeat on large rosters.
var Palette = [...]string{
	"#fce4ec",
	"#e3f2fd",
	"#f3e5f5",
	"#e8f5e9",
	"#fff8e1",
	"#fbe9e7",
	"#ede7f6",
	"#e0f7fa",
	"#f9fbe7",
	"#f1f8e9",
}

// UserProfile is the derived display identity of a roster member.
type UserProfile struct {
	// Name is the username; unique within a roster.
	Name string `json:"name"`

	// AvatarURL is a pure function of Name.
	AvatarURL string `json:"avatarUrl"`

	// Color is one of Palette, chosen by roster position.
	Color string `json:"color"`
}

// Default is the placeholder profile for a sender who is not in the current roster.
var Default = UserProfile{
	AvatarURL: AvatarURL(DefaultAvatarSeed),
	Color:     DefaultColor,
}

// AvatarURL returns the avatar image URL for name.
func AvatarURL(name string) string {
	return AvatarBaseURL + "?seed=" + url.QueryEscape(name)
}

// ColorAt returns the palette color for roster position i.
func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}

// Synchronize converts the server's ordered username list into profiles. It does not
// look at any previous roster: the result replaces the old one wholesale.
func Synchronize(names []string) []UserProfile {
	profiles := make([]UserProfile, 0, len(names))

	for i, name := range names {
		profiles = append(profiles, UserProfile{
			Name:      name,
			AvatarURL: AvatarURL(name),
			Color:     ColorAt(i),
		})
	}

	return profiles
}

// Lookup returns the profile named name from profiles.
func Lookup(profiles []UserProfile, name string) (UserProfile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return UserProfile{}, false
}
