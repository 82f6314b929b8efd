package config

import (
	"os"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/brieflyhq/briefly/internal/common"
)

// LoadGoogleConfig loads the Google OAuth2 client configuration used for
// Gmail access. Viper keys take precedence, then GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET environment variables.
func LoadGoogleConfig() (*oauth2.Config, error) {
	clientID := viper.GetString("google.client_id")
	clientSecret := viper.GetString("google.client_secret")

	if clientID == "" {
		clientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return nil, common.NewUserError(
			"Google OAuth credentials not found. Set google.client_id and google.client_secret in config or the GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET environment variables",
			common.ErrMissingConfig)
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://localhost:8080/callback",
		Scopes:       []string{gmail.GmailReadonlyScope},
	}, nil
}
