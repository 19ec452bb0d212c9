package sharelink

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/doorstep-market/doorstep/internal/pkg/cache"
)

// Base62 alphabet used for share codes.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeLength is the length of generated share codes. 8 Base62 characters
// give ~2^47 possibilities, plenty against guessing.
const CodeLength = 8

// DefaultTTL is how long a share link stays resolvable.
const DefaultTTL = 30 * 24 * time.Hour

var ErrNotFound = errors.New("sharelink: code not found")

const keyPrefix = "sharelink:"

// GenerateCode creates a cryptographically secure random Base62 code.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	code := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			code[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(code), nil
}

// Create mints a share code for a service and stores the mapping in Redis
// with a TTL. Codes survive process restarts and are shared across instances.
func Create(serviceID uuid.UUID) (string, error) {
	code, err := GenerateCode(CodeLength)
	if err != nil {
		return "", err
	}
	if err := cache.Set(keyPrefix+code, serviceID.String(), DefaultTTL); err != nil {
		return "", fmt.Errorf("failed to store share link: %w", err)
	}
	return code, nil
}

// Resolve looks up the service a share code points at. Each hit refreshes the
// TTL so actively shared links don't expire underneath their audience.
func Resolve(code string) (uuid.UUID, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return uuid.Nil, ErrNotFound
	}

	val, err := cache.Get(keyPrefix + code)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}

	// Best effort refresh; a failed EXPIRE never breaks resolution.
	_ = cache.GetClient().Expire(cache.Context(), keyPrefix+code, DefaultTTL).Err()

	return id, nil
}

// Revoke removes a share code.
func Revoke(code string) error {
	return cache.Delete(keyPrefix + strings.TrimSpace(code))
}
