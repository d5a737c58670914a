// Package redis provides the connection resolver and the remote-backed
// mapping built on a shared Redis instance (direct or behind Sentinel).
package redis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultMasterName is the well-known Sentinel service name used when
	// the locator URL carries no hostname.
	DefaultMasterName = "mymaster"

	// DefaultPort is the standard Redis port.
	DefaultPort = 6379
)

// LocatorConfig holds the fields extracted from a Sentinel locator URL of
// the form redis://[user[:pass]@]service[:port][/db].
type LocatorConfig struct {
	Username string
	Password string
	Service  string
	Port     int
	DB       int
}

// ParseSentinelURL parses a locator URL used with Sentinel discovery.
// The hostname names the logical master service, not a concrete instance.
func ParseSentinelURL(rawURL string) (*LocatorConfig, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse sentinel locator url: %w", err)
	}
	if u.Scheme != "redis" {
		return nil, fmt.Errorf("invalid redis url scheme %q: must be 'redis'", u.Scheme)
	}

	cfg := &LocatorConfig{
		Username: u.User.Username(),
		Service:  DefaultMasterName,
		Port:     DefaultPort,
	}
	if pw, ok := u.User.Password(); ok {
		cfg.Password = pw
	}
	if host := u.Hostname(); host != "" {
		cfg.Service = host
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q in sentinel locator url", port)
		}
		cfg.Port = p
	}
	if path := strings.TrimPrefix(u.Path, "/"); path != "" {
		db, err := strconv.Atoi(path)
		if err != nil || db < 0 {
			return nil, fmt.Errorf("invalid database index %q in sentinel locator url", path)
		}
		cfg.DB = db
	}

	return cfg, nil
}

// NewConnection resolves a ready-to-use client for the current primary.
//
// With no sentinel addresses, redisURL is parsed as a direct Redis URL.
// With sentinel addresses, redisURL is parsed as a locator URL and the
// client follows the named master through Sentinel failover.
//
// The connection is verified with a single PING so dial failures surface
// here rather than on the first operation. No retries are performed; both
// configuration and transport errors propagate to the caller.
func NewConnection(ctx context.Context, redisURL string, sentinelAddrs []string) (*redis.Client, error) {
	var client *redis.Client

	if len(sentinelAddrs) == 0 {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opts)
	} else {
		loc, err := ParseSentinelURL(redisURL)
		if err != nil {
			return nil, err
		}
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    loc.Service,
			SentinelAddrs: sentinelAddrs,
			Username:      loc.Username,
			Password:      loc.Password,
			DB:            loc.DB,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
