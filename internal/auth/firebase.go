package auth

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/arqmanager/portfolio-web/config"
)

// InitializeFirebase initializes the Firebase Admin SDK and returns an Auth client.
// It returns (nil, nil) when no credentials are configured.
func InitializeFirebase(ctx context.Context, cfg *config.FirebaseConfig) (*fbauth.Client, error) {
	if strings.TrimSpace(cfg.CredentialsPath) == "" {
		return nil, nil
	}

	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	return authClient, nil
}
