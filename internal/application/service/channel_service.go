package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

// ChannelService manages the operating channels registered per scope.
// Until a scope registers its first channel, commands are honored anywhere
// so that initial setup is possible.
type ChannelService struct {
	channelRepo port.ChannelRepository
	logger      Logger
}

// NewChannelService creates a new ChannelService
func NewChannelService(channelRepo port.ChannelRepository, logger Logger) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		logger:      logger,
	}
}

// Register adds a channel to the scope's registry. Registering an
// already-registered channel is a no-op.
func (s *ChannelService) Register(ctx context.Context, scope, channelID string) error {
	if channelID == "" {
		return fmt.Errorf("channel id is required")
	}

	err := s.channelRepo.Register(ctx, &entity.Channel{
		Scope:     scope,
		ChannelID: channelID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("Failed to register channel", "error", err, "scope", scope, "channel", channelID)
		return err
	}

	s.logger.Info("Channel registered", "scope", scope, "channel", channelID)
	return nil
}

// Unregister removes a channel from the scope's registry.
func (s *ChannelService) Unregister(ctx context.Context, scope, channelID string) error {
	if err := s.channelRepo.Unregister(ctx, scope, channelID); err != nil {
		s.logger.Error("Failed to unregister channel", "error", err, "scope", scope, "channel", channelID)
		return err
	}

	s.logger.Info("Channel unregistered", "scope", scope, "channel", channelID)
	return nil
}

// List returns the scope's registered channels.
func (s *ChannelService) List(ctx context.Context, scope string) ([]string, error) {
	return s.channelRepo.List(ctx, scope)
}

// IsAllowed reports whether a command from the given channel should be
// honored. True when the scope has no registered channels yet.
func (s *ChannelService) IsAllowed(ctx context.Context, scope, channelID string) (bool, error) {
	channels, err := s.channelRepo.List(ctx, scope)
	if err != nil {
		return false, err
	}
	if len(channels) == 0 {
		return true, nil
	}
	for _, ch := range channels {
		if ch == channelID {
			return true, nil
		}
	}
	return false, nil
}
