package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"lostfound/pkg/logger"
)

// Clients bundles the Firebase handles the services share.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
	Options   []option.ClientOption
}

// CredentialOptions prefers inline service account JSON (production), then a
// key file (local development), then application default credentials.
func CredentialOptions(serviceAccountJSON, serviceAccountPath string) ([]option.ClientOption, error) {
	if serviceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(serviceAccountJSON))}, nil
	}

	if serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); err != nil {
			return nil, fmt.Errorf("service account file %s: %w", serviceAccountPath, err)
		}
		logger.Info("Using Firebase service account from file: %s", serviceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(serviceAccountPath)}, nil
	}

	logger.Warn("No service account configured, falling back to application default credentials")
	return nil, nil
}

func NewClients(ctx context.Context, projectID string, opts ...option.ClientOption) (*Clients, error) {
	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize Firebase: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize Firebase Auth: %w", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create Firestore client: %w", err)
	}

	return &Clients{
		Auth:      authClient,
		Firestore: firestoreClient,
		Options:   opts,
	}, nil
}

func (c *Clients) Close() error {
	return c.Firestore.Close()
}
