package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrInvalidURL is returned for feed URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid feed url")
	// ErrPrivateIP is returned when private addresses are denied and the feed
	// host resolves to one.
	ErrPrivateIP = errors.New("feed url resolves to a private address")
)

// ValidateFeedURL checks that raw is an http or https URL with a host. When
// denyPrivateIPs is set, the host is resolved and loopback, private and
// link-local addresses are rejected.
func ValidateFeedURL(ctx context.Context, raw string, denyPrivateIPs bool) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidURL)
	}
	if !denyPrivateIPs {
		return nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("%w: lookup %s: %v", ErrInvalidURL, host, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateIP, host, ip)
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
