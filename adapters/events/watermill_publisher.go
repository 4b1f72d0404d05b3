package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/walletgate/walletgate/ports"
)

// Topics for cross-instance auth notifications.
const (
	TopicLogin           = "walletgate.login"
	TopicIdentityCreated = "walletgate.identity.created"
	TopicLogout          = "walletgate.logout"
)

// LoginEvent is emitted when a wallet handshake grants access.
type LoginEvent struct {
	IdentityID string `json:"identity_id"`
	Address    string `json:"address"`
}

// IdentityCreatedEvent is emitted when registration creates an
// identity.
type IdentityCreatedEvent struct {
	IdentityID string `json:"identity_id"`
	Address    string `json:"address"`
}

// LogoutEvent is emitted when an access token is revoked.
type LogoutEvent struct {
	IdentityID string `json:"identity_id"`
	TokenID    string `json:"token_id"`
}

// WatermillPublisher implements the EventPublisher interface using
// Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, identityID, address string) error {
	return p.publish(TopicLogin, LoginEvent{IdentityID: identityID, Address: address})
}

// PublishIdentityCreated publishes an identity-created event.
func (p *WatermillPublisher) PublishIdentityCreated(ctx context.Context, identityID, address string) error {
	return p.publish(TopicIdentityCreated, IdentityCreatedEvent{IdentityID: identityID, Address: address})
}

// PublishLogout publishes a logout event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, identityID, tokenID string) error {
	return p.publish(TopicLogout, LogoutEvent{IdentityID: identityID, TokenID: tokenID})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
