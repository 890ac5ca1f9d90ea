// Package ratelimit throttles password sign-in attempts.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Config struct {
	MaxFailures  int           // failed logins per identifier before lockout
	Lockout      time.Duration // how long an identifier stays locked
	MaxIPPerHour int           // failed logins per IP per hour

	// Global token bucket shared by every caller.
	GlobalRate  rate.Limit
	GlobalBurst int

	Clock Clock
}

func DefaultConfig() *Config {
	return &Config{
		MaxFailures:  5,
		Lockout:      15 * time.Minute,
		MaxIPPerHour: 50,
		GlobalRate:   rate.Limit(100),
		GlobalBurst:  10,
	}
}

type Result struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

type entry struct {
	count    int
	firstAt  time.Time
	lastAt   time.Time
	lockedAt time.Time
}

type Limiter struct {
	config *Config
	clock  Clock
	global *rate.Limiter

	mu   sync.RWMutex
	byID map[string]*entry
	byIP map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	globalRate := cfg.GlobalRate
	if globalRate == 0 {
		globalRate = rate.Inf
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		global:        rate.NewLimiter(globalRate, cfg.GlobalBurst),
		byID:          make(map[string]*entry),
		byIP:          make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckLogin reports whether a sign-in attempt may proceed. It consumes a
// token from the global bucket but records nothing per caller; call
// RecordFailure when the credentials turn out to be wrong.
func (l *Limiter) CheckLogin(identifier, ip string) Result {
	l.startCleanup()
	now := l.clock.Now()

	if !l.global.AllowN(now, 1) {
		return Result{RetryAfter: time.Second, Reason: "global_rate"}
	}

	idKey := hashKey("login:id:", normalizeIdentifier(identifier))
	ipKey := hashKey("login:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.byID[idKey]; e != nil {
		if !e.lockedAt.IsZero() {
			if elapsed := now.Sub(e.lockedAt); elapsed < l.config.Lockout {
				return Result{RetryAfter: l.config.Lockout - elapsed, Reason: "lockout"}
			}
		} else if e.count >= l.config.MaxFailures {
			return Result{RetryAfter: l.config.Lockout, Reason: "max_attempts"}
		}
	}

	if e := l.byIP[ipKey]; e != nil {
		if since := now.Sub(e.firstAt); since < time.Hour && e.count >= l.config.MaxIPPerHour {
			return Result{RetryAfter: time.Hour - since, Reason: "ip_hourly_limit"}
		}
	}

	return Result{Allowed: true}
}

// RecordFailure counts a failed sign-in and returns true when this failure
// started a lockout.
func (l *Limiter) RecordFailure(identifier, ip string) (lockedOut bool) {
	now := l.clock.Now()
	idKey := hashKey("login:id:", normalizeIdentifier(identifier))
	ipKey := hashKey("login:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.byID[idKey]
	switch {
	case e == nil, !e.lockedAt.IsZero() && now.Sub(e.lockedAt) >= l.config.Lockout:
		e = &entry{count: 1, firstAt: now, lastAt: now}
		l.byID[idKey] = e
	default:
		e.count++
		e.lastAt = now
	}
	if e.count >= l.config.MaxFailures && e.lockedAt.IsZero() {
		e.lockedAt = now
		lockedOut = true
	}

	if ipEntry := l.byIP[ipKey]; ipEntry == nil || now.Sub(ipEntry.firstAt) >= time.Hour {
		l.byIP[ipKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		ipEntry.count++
		ipEntry.lastAt = now
	}

	return lockedOut
}

// Reset forgets failures for identifier after a successful sign-in.
func (l *Limiter) Reset(identifier string) {
	idKey := hashKey("login:id:", normalizeIdentifier(identifier))
	l.mu.Lock()
	delete(l.byID, idKey)
	l.mu.Unlock()
}

func hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	maxAge := l.config.Lockout + time.Hour
	for k, e := range l.byID {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.byID, k)
		}
	}
	for k, e := range l.byIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.byIP, k)
		}
	}
}

// SanitizeIdentifier masks an email or phone number for logging.
func SanitizeIdentifier(identifier string) string {
	identifier = normalizeIdentifier(identifier)
	if local, domain, ok := strings.Cut(identifier, "@"); ok {
		if len(local) > 2 {
			return local[:2] + "***@" + domain
		}
		return "***@" + domain
	}
	if len(identifier) >= 4 {
		return "***" + identifier[len(identifier)-4:]
	}
	return "***"
}

func LogRateLimitExceeded(identifier, ip, reason string) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("identifier", SanitizeIdentifier(identifier)).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Login rate limit exceeded")
}
