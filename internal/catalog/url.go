package catalog

import "net/url"

// RedactURL drops the user info of a catalog feed URL. Git and HTTP feeds
// often carry an access token there, as username or password, and the URL
// ends up in errors, logs, spans and the persisted refresh status.
// Unparseable input is returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	u.User = nil
	return u.String()
}
