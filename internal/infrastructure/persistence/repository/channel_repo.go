package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ttakeda/budgetbot/internal/application/port"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
	"go.uber.org/zap"
)

// ChannelRepository implements port.ChannelRepository on sqlite.
type ChannelRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *sql.DB, logger *zap.Logger) port.ChannelRepository {
	return &ChannelRepository{
		db:     db,
		logger: logger,
	}
}

// Register adds a channel to the scope's registry. Idempotent.
func (r *ChannelRepository) Register(ctx context.Context, ch *entity.Channel) error {
	query := `
		INSERT INTO scope_channels (scope, channel_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(scope, channel_id) DO NOTHING
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, ch.Scope, ch.ChannelID, ch.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to register channel",
			zap.String("scope", ch.Scope), zap.String("channel", ch.ChannelID), zap.Error(err))
		return fmt.Errorf("failed to register channel: %w", err)
	}

	return nil
}

// Unregister removes a channel from the scope's registry.
func (r *ChannelRepository) Unregister(ctx context.Context, scope, channelID string) error {
	query := `DELETE FROM scope_channels WHERE scope = ? AND channel_id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, scope, channelID)
	if err != nil {
		r.logger.Error("Failed to unregister channel",
			zap.String("scope", scope), zap.String("channel", channelID), zap.Error(err))
		return fmt.Errorf("failed to unregister channel: %w", err)
	}

	return nil
}

// List returns the scope's registered channel IDs.
func (r *ChannelRepository) List(ctx context.Context, scope string) ([]string, error) {
	query := `SELECT channel_id FROM scope_channels WHERE scope = ? ORDER BY created_at, channel_id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, scope)
	if err != nil {
		r.logger.Error("Failed to list channels", zap.String("scope", scope), zap.Error(err))
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var ch string
		if err := rows.Scan(&ch); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}

// Verify interface compliance
var _ port.ChannelRepository = (*ChannelRepository)(nil)
