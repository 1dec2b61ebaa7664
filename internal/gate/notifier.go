package gate

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const denialKeyPrefix = "pulse:denial-notified:"

// DenialNotifier rate-limits the "not allowed" notice to at most one per
// workspace per suppression window. Redis makes the suppression survive
// restarts; when Redis is unreachable it falls back to a process-local set
// so a broken cache never blocks or spams the channel.
type DenialNotifier struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	notified map[string]struct{}
}

// NewDenialNotifier constructs the notifier. client may be nil.
func NewDenialNotifier(client *redis.Client, ttl time.Duration, logger *zap.Logger) *DenialNotifier {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DenialNotifier{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		notified: make(map[string]struct{}),
	}
}

// ShouldNotify reports whether the denial notice should be sent for this
// workspace, marking it as notified when it returns true.
func (n *DenialNotifier) ShouldNotify(ctx context.Context, workspaceID string) bool {
	if n.client != nil {
		ok, err := n.client.SetNX(ctx, denialKeyPrefix+workspaceID, "1", n.ttl).Result()
		if err == nil {
			return ok
		}
		n.logger.Warn("denial suppression via redis failed; using in-memory fallback", zap.Error(err))
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, seen := n.notified[workspaceID]; seen {
		return false
	}
	n.notified[workspaceID] = struct{}{}
	return true
}
