package counter

import (
	"context"
	"fmt"

	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/cache"
)

const webhookCountersKey = "webhook:counters"

// Outcome labels tracked per payment platform.
const (
	OutcomeReceived  = "received"
	OutcomeSuccess   = "success"
	OutcomePending   = "pending"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// AddWebhookOutcome increments the counter for one platform/outcome pair in
// Redis. Best-effort: callers ignore the error so metrics never block intake.
func AddWebhookOutcome(platform, outcome string) error {
	ctx := context.Background()
	field := fmt.Sprintf("%s:%s", platform, outcome)
	return cache.GetClient().HIncrBy(ctx, webhookCountersKey, field, 1).Err()
}

// Snapshot returns all webhook counters as platform:outcome -> count.
func Snapshot() (map[string]string, error) {
	ctx := context.Background()
	return cache.GetClient().HGetAll(ctx, webhookCountersKey).Result()
}

// Reset drops all webhook counters.
func Reset() error {
	ctx := context.Background()
	return cache.GetClient().Del(ctx, webhookCountersKey).Err()
}
