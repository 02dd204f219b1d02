package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPProvider reads the latest version of secrets from Google Secret Manager.
// Secret names are lower-cased with underscores turned into dashes, so
// TELEGRAM_BOT_TOKEN resolves to projects/<p>/secrets/telegram-bot-token.
type GCPProvider struct {
	client  *secretmanager.Client
	project string
}

func NewGCPProvider(ctx context.Context, project string, opts ...option.ClientOption) (*GCPProvider, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secretmanager client: %w", err)
	}
	return &GCPProvider{client: client, project: project}, nil
}

func (g *GCPProvider) Lookup(ctx context.Context, name string) (string, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: SecretVersionName(g.project, name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", err
	}
	v := strings.TrimSpace(string(resp.GetPayload().GetData()))
	if v == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return v, nil
}

func (g *GCPProvider) Close() error { return g.client.Close() }

func SecretVersionName(project, name string) string {
	id := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, id)
}
