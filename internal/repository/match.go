package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/paritygrid/parity-grid-backend/internal/entity"
)

const (
	recentMatchesKey = "matches:recent"
	matchKeyPrefix   = "match:"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchResult - the archived outcome of one finished game. Live room state is
// never persisted; only terminal results land here.
type MatchResult struct {
	RoomID      string              `json:"room_id"`
	Winner      entity.Role         `json:"winner"`
	WinningLine []int               `json:"winning_line,omitempty"`
	ClickCounts map[entity.Role]int `json:"click_counts"`
	ByForfeit   bool                `json:"by_forfeit"`
	FinishedAt  time.Time           `json:"finished_at"`
}

type MatchRepository interface {
	Save(ctx context.Context, result *MatchResult) error
	GetByRoomID(ctx context.Context, roomID string) (*MatchResult, error)
	ListRecent(ctx context.Context, limit int64) ([]*MatchResult, error)
}

type dbMatch struct {
	client *redis.Client
}

func NewMatchRepository(client *redis.Client) MatchRepository {
	return &dbMatch{
		client: client,
	}
}

func (that *dbMatch) Save(ctx context.Context, result *MatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal match result: %w", err)
	}

	matchKey := matchKeyPrefix + result.RoomID
	if err = that.client.Set(ctx, matchKey, resultJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set match result: %w", err)
	}

	if err = that.client.LPush(ctx, recentMatchesKey, resultJSON).Err(); err != nil {
		return fmt.Errorf("failed to push match result: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByRoomID(ctx context.Context, roomID string) (*MatchResult, error) {
	matchKey := matchKeyPrefix + roomID

	response, err := that.client.Get(ctx, matchKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}

	var result MatchResult
	if err = json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
	}

	return &result, nil
}

func (that *dbMatch) ListRecent(ctx context.Context, limit int64) ([]*MatchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	entries, err := that.client.LRange(ctx, recentMatchesKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent matches: %w", err)
	}

	results := make([]*MatchResult, 0, len(entries))
	for _, entry := range entries {
		var result MatchResult
		if err = json.Unmarshal([]byte(entry), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
		}
		results = append(results, &result)
	}

	return results, nil
}
