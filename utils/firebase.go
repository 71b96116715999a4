// utils/firebase.go
package utils

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FirebaseClients holds the Firebase services the reminder engine uses.
// Firestore is nil unless requested.
type FirebaseClients struct {
	App       *firebase.App
	Messaging *messaging.Client
	Firestore *firestore.Client
}

// FirebaseInit initializes the Firebase App, its Messaging client and,
// when withFirestore is set, a Firestore client. An empty credentials file
// falls back to application default credentials.
func FirebaseInit(ctx context.Context, credentialsFile, projectID string, withFirestore bool) (*FirebaseClients, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}

	msg, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}
	clients := &FirebaseClients{App: app, Messaging: msg}

	if withFirestore {
		fs, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase: error getting Firestore client: %w", err)
		}
		clients.Firestore = fs
	}
	return clients, nil
}

// Close releases the Firestore connection, if any.
func (c *FirebaseClients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
