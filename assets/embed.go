package assets

import _ "embed"

//go:embed welcome.png
var welcomePNG []byte

// WelcomeImage returns the picture sent with the /start greeting.
func WelcomeImage() []byte {
	return welcomePNG
}
