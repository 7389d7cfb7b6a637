// Package castdevice wires Google Cast discovery and control behind the
// adapter contracts.
package castdevice

import (
	"context"
	"time"

	"github.com/vishen/go-chromecast/dns"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

const defaultScanTimeout = 8 * time.Second

// Scanner discovers cast devices over mDNS.
type Scanner struct {
	timeout time.Duration
}

func NewScanner(timeout time.Duration) *Scanner {
	if timeout <= 0 {
		timeout = defaultScanTimeout
	}
	return &Scanner{timeout: timeout}
}

func (s *Scanner) Scan(ctx context.Context) ([]domain.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := dns.DiscoverCastDNSEntries(ctx, nil)
	if err != nil {
		return nil, domain.WrapError(domain.CodeDiscoveryFailed, "mdns discovery failed", err)
	}

	var found []domain.Device
	for entry := range entries {
		if entry.AddrV4 == nil {
			continue
		}
		found = append(found, domain.Device{
			UUID:        entry.UUID,
			Name:        entry.DeviceName,
			Host:        entry.AddrV4.String(),
			Port:        entry.Port,
			Model:       entry.Device,
			IsAudioOnly: domain.IsAudioOnlyModel(entry.Device),
		})
	}
	return found, nil
}
