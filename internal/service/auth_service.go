package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"newspaper-reader/internal/domain"
)

const validatedTokenCacheTTL = 30 * time.Second

type validatedTokenCacheEntry struct {
	user      *domain.SupabaseUser
	expiresAt time.Time
}

type authService struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
	now            func() time.Time

	tokenCacheMu sync.RWMutex
	tokenCache   map[string]validatedTokenCacheEntry
}

func NewAuthService(
	supabaseClient domain.SupabaseClient,
	logger domain.Logger,
) *authService {
	return &authService{
		supabaseClient: supabaseClient,
		logger:         logger,
		now:            time.Now,
		tokenCache:     make(map[string]validatedTokenCacheEntry),
	}
}

// ValidateToken validates a token against Supabase Auth. Successful validations are cached briefly so
// that the transport controls do not hit GoTrue on every click.
func (s *authService) ValidateToken(token string) (*domain.SupabaseUser, error) {
	key := tokenCacheKey(token)
	now := s.now()

	s.tokenCacheMu.RLock()
	entry, ok := s.tokenCache[key]
	s.tokenCacheMu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.user, nil
	}

	user, err := s.supabaseClient.ValidateToken(token)
	if err != nil {
		s.logger.Error("Failed to validate token with Supabase", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	s.tokenCacheMu.Lock()
	for k, e := range s.tokenCache {
		if !now.Before(e.expiresAt) {
			delete(s.tokenCache, k)
		}
	}
	s.tokenCache[key] = validatedTokenCacheEntry{user: user, expiresAt: now.Add(validatedTokenCacheTTL)}
	s.tokenCacheMu.Unlock()

	return user, nil
}

func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var _ domain.AuthService = (*authService)(nil)
