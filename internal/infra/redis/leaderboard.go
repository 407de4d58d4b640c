package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"party-trivia/internal/domain"
)

// Leaderboard mirrors session scores into a sorted set so other processes can
// read standings without touching the session.
//
//	ZADD trivia:lb:{session} score playerID
//	HSET trivia:lb:{session}:players playerID {name,streak,isBot}
//
// Ties are broken the same way the session ranks them.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

type playerDetails struct {
	Name   string `json:"name"`
	Streak int    `json:"streak"`
	IsBot  bool   `json:"isBot"`
}

func NewLeaderboard(client *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{client: client, ttl: ttl}
}

// Record replaces the stored standings of sessionID with entries.
func (l *Leaderboard) Record(ctx context.Context, sessionID string, entries []domain.LeaderboardEntry) error {
	scores, players := l.keys(sessionID)
	pipe := l.client.TxPipeline()
	pipe.Del(ctx, scores, players)
	for _, e := range entries {
		details, err := json.Marshal(playerDetails{Name: e.Name, Streak: e.Streak, IsBot: e.IsBot})
		if err != nil {
			return fmt.Errorf("marshal player %s: %w", e.PlayerID, err)
		}
		pipe.ZAdd(ctx, scores, redis.Z{Score: float64(e.Score), Member: e.PlayerID})
		pipe.HSet(ctx, players, e.PlayerID, details)
	}
	if l.ttl > 0 && len(entries) > 0 {
		pipe.Expire(ctx, scores, l.ttl)
		pipe.Expire(ctx, players, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record leaderboard %s: %w", sessionID, err)
	}
	return nil
}

// Top returns up to limit entries, best first.
func (l *Leaderboard) Top(ctx context.Context, sessionID string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	entries, err := l.standings(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Rank returns the ranked entry of playerID, or domain.ErrPlayerNotFound.
func (l *Leaderboard) Rank(ctx context.Context, sessionID, playerID string) (domain.LeaderboardEntry, error) {
	entries, err := l.standings(ctx, sessionID)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	for _, e := range entries {
		if e.PlayerID == playerID {
			return e, nil
		}
	}
	return domain.LeaderboardEntry{}, domain.ErrPlayerNotFound
}

// standings reads the whole board; party rosters are small.
func (l *Leaderboard) standings(ctx context.Context, sessionID string) ([]domain.LeaderboardEntry, error) {
	scores, players := l.keys(sessionID)
	results, err := l.client.ZRevRangeWithScores(ctx, scores, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard %s: %w", sessionID, err)
	}
	raw, err := l.client.HGetAll(ctx, players).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard players %s: %w", sessionID, err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		id, _ := z.Member.(string)
		var details playerDetails
		if data, ok := raw[id]; ok {
			if err := json.Unmarshal([]byte(data), &details); err != nil {
				return nil, fmt.Errorf("decode player %s: %w", id, err)
			}
		}
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID: id,
			Name:     details.Name,
			Score:    int(z.Score),
			Streak:   details.Streak,
			IsBot:    details.IsBot,
		})
	}
	domain.RankLeaderboard(entries)
	return entries, nil
}

func (l *Leaderboard) keys(sessionID string) (string, string) {
	base := "trivia:lb:" + sessionID
	return base, base + ":players"
}
