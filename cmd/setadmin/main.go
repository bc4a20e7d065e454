// Command setadmin grants or revokes the admin role for an existing user.
//
//	setadmin --email user@example.com [--role admin|user]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"lostfound/internal/adapter/repository"
	"lostfound/internal/domain/entity"
	"lostfound/internal/infrastructure/firebase"
	"lostfound/pkg/config"
	"lostfound/pkg/logger"
)

type options struct {
	email string
	role  string
}

type roleClaimSetter interface {
	SetRoleClaim(ctx context.Context, email, role string) (string, error)
}

type roleWriter interface {
	SetRole(ctx context.Context, id, role string) error
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.FirebaseProject == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	credentials, err := firebase.CredentialOptions(cfg.FirebaseServiceAccountJSON, cfg.FirebaseServiceAccountPath)
	if err != nil {
		return err
	}
	clients, err := firebase.NewClients(ctx, cfg.FirebaseProject, credentials...)
	if err != nil {
		return err
	}
	defer clients.Close()

	claims := firebase.NewFirebaseAuthClient(clients.Auth, cfg.FirebaseAPIKey)
	users := repository.NewFirestoreUserRepository(clients.Firestore)

	uid, err := setRole(ctx, claims, users, opts.email, opts.role)
	if err != nil {
		return err
	}

	fmt.Printf("Role %q set for %s (uid %s)\n", opts.role, opts.email, uid)
	return nil
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}

	flagSet := pflag.NewFlagSet("setadmin", pflag.ContinueOnError)
	flagSet.StringVar(&opts.email, "email", "", "email of the user to update (required)")
	flagSet.StringVar(&opts.role, "role", entity.RoleAdmin, "role to assign: admin or user")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", extra[0])
	}

	opts.email = strings.TrimSpace(opts.email)
	if opts.email == "" {
		return nil, errors.New("--email is required")
	}
	if opts.role != entity.RoleAdmin && opts.role != entity.RoleUser {
		return nil, fmt.Errorf("--role must be %s or %s, got %q", entity.RoleAdmin, entity.RoleUser, opts.role)
	}
	return opts, nil
}

// setRole updates the custom claim first, then the users record the server
// reads roles from.
func setRole(ctx context.Context, claims roleClaimSetter, users roleWriter, email, role string) (string, error) {
	uid, err := claims.SetRoleClaim(ctx, email, role)
	if err != nil {
		return "", err
	}

	if err := users.SetRole(ctx, uid, role); err != nil {
		logger.Error("Custom claim set for %s but users record not updated: %v", uid, err)
		return "", err
	}
	return uid, nil
}
