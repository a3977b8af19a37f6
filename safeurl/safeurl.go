// Package safeurl guards caller-supplied navigation targets. The service
// drives a real browser at whatever URL an API client asks for, so
// requests aimed at loopback or private ranges are refused unless the
// deployment explicitly allows them (local test fixtures, lab networks).
package safeurl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
)

// MaxResponseBody is the default cap for bounded body reads (1 MiB).
const MaxResponseBody int64 = 1 << 20

// ErrPrivateAddress is returned when a URL targets a private, loopback, or
// link-local address and the guard does not allow them.
var ErrPrivateAddress = errors.New("safeurl: URL targets a private or loopback address")

// ErrUnsafeScheme is returned when a URL uses a non-HTTP(S) scheme.
var ErrUnsafeScheme = errors.New("safeurl: only http and https schemes are allowed")

// Guard validates navigation URLs.
type Guard struct {
	// AllowPrivate permits RFC 1918 / RFC 4193 ranges and link-local.
	AllowPrivate bool
	// AllowLoopback permits 127.0.0.0/8 and ::1, common for local test pages.
	AllowLoopback bool
}

// Validate checks that rawURL uses http/https, has a hostname, and does
// not resolve to a refused address class. Hostnames are resolved so
// internal names cannot smuggle private targets past a literal-IP check;
// a DNS failure passes the guard since connecting will fail anyway.
func (g Guard) Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("safeurl: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("safeurl: URL has no host")
	}

	if ip := net.ParseIP(host); ip != nil {
		return g.checkIP(ip)
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil {
			if err := g.checkIP(ip); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g Guard) checkIP(ip net.IP) error {
	if ip.IsLoopback() {
		if g.AllowLoopback {
			return nil
		}
		return ErrPrivateAddress
	}
	if g.AllowPrivate {
		return nil
	}
	if ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return ErrPrivateAddress
	}
	return nil
}

// LimitedReadAll reads at most maxBytes from r, erroring when the source
// exceeds the limit.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("safeurl: body exceeds %d bytes", maxBytes)
	}
	return data, nil
}
