package ports

import "context"

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, identityID, address string) error
	PublishIdentityCreated(ctx context.Context, identityID, address string) error
	PublishLogout(ctx context.Context, identityID, tokenID string) error
}
