package attendance

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/kv"
	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/repositories"
)

const DefaultCardCacheTTL = time.Hour

// IdentityResolver maps a card UID to its active owner. Only the user id is
// cached; the user itself is always read fresh so status changes apply at once.
type IdentityResolver struct {
	dir    Directory
	cache  kv.Store
	ttl    time.Duration
	logger zerolog.Logger
}

func NewIdentityResolver(dir Directory, cache kv.Store, ttl time.Duration, logger zerolog.Logger) *IdentityResolver {
	if ttl <= 0 {
		ttl = DefaultCardCacheTTL
	}
	return &IdentityResolver{dir: dir, cache: cache, ttl: ttl, logger: logger}
}

func cardCacheKey(cardUID string) string {
	return "card_user:" + cardUID
}

func (r *IdentityResolver) Resolve(ctx context.Context, cardUID string) (*models.User, error) {
	key := cardCacheKey(cardUID)

	userID, cached := r.cachedUserID(ctx, key)
	if !cached {
		id, err := r.dir.ActiveCardOwner(ctx, cardUID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCard
		}
		if err != nil {
			return nil, err
		}
		userID = id
		if err := r.cache.Set(ctx, key, strconv.FormatInt(id, 10), r.ttl); err != nil {
			r.logger.Warn().Err(err).Msg("card cache write failed")
		}
	}

	user, err := r.dir.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		if err := r.cache.Del(ctx, key); err != nil {
			r.logger.Warn().Err(err).Msg("card cache delete failed")
		}
		return nil, ErrInvalidCard
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (r *IdentityResolver) cachedUserID(ctx context.Context, key string) (int64, bool) {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			r.logger.Warn().Err(err).Msg("card cache read failed")
		}
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Forget drops the cached owner of a card, e.g. after it is reassigned.
func (r *IdentityResolver) Forget(ctx context.Context, cardUID string) error {
	return r.cache.Del(ctx, cardCacheKey(cardUID))
}
