// Package directory caches discovered cast devices and their lazy control
// connections behind a two-tier freshness policy: per-entry TTL for named
// lookups and a scan interval that bounds how often the network is rescanned.
package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/1bobby-git/ytmusic-bridge/internal/adapters"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

const (
	defaultEntryTTL     = 5 * time.Minute
	defaultScanInterval = time.Minute
)

type entry struct {
	device      domain.Device
	refreshedAt time.Time
	lastUsedAt  time.Time
	conn        adapters.CastConn
}

type Directory struct {
	scanner      adapters.Scanner
	connector    adapters.Connector
	entryTTL     time.Duration
	scanInterval time.Duration
	logger       *log.Logger
	now          func() time.Time

	mu       sync.Mutex
	entries  map[string]*entry
	lastScan time.Time
}

type Options struct {
	EntryTTL     time.Duration
	ScanInterval time.Duration
	Logger       *log.Logger
	Now          func() time.Time
}

func New(scanner adapters.Scanner, connector adapters.Connector, opts Options) *Directory {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = defaultScanInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.New(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Directory{
		scanner:      scanner,
		connector:    connector,
		entryTTL:     opts.EntryTTL,
		scanInterval: opts.ScanInterval,
		logger:       opts.Logger,
		now:          opts.Now,
		entries:      map[string]*entry{},
	}
}

// Resolve finds a device by name. A fresh cached entry wins; otherwise the
// cached set is consulted while the last scan is still recent, and only then
// is the network rescanned.
func (d *Directory) Resolve(ctx context.Context, name string) (domain.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if e := d.lookup(name); e != nil && now.Sub(e.refreshedAt) < d.entryTTL {
		e.lastUsedAt = now
		return e.device, nil
	}

	if now.Sub(d.lastScan) < d.scanInterval && len(d.entries) > 0 {
		if e := d.lookup(name); e != nil {
			e.lastUsedAt = now
			return e.device, nil
		}
		return domain.Device{}, domain.NewError(domain.CodeDiscoveryFailed,
			fmt.Sprintf("device %q not found in recent scan", name))
	}

	if err := d.rescan(ctx); err != nil {
		return domain.Device{}, err
	}
	if e := d.lookup(name); e != nil {
		e.lastUsedAt = d.now()
		return e.device, nil
	}
	return domain.Device{}, domain.NewError(domain.CodeDiscoveryFailed,
		fmt.Sprintf("device %q not found", name))
}

// Devices lists the known devices, rescanning first when the last scan has
// gone stale.
func (d *Directory) Devices(ctx context.Context) ([]domain.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.now().Sub(d.lastScan) >= d.scanInterval || len(d.entries) == 0 {
		if err := d.rescan(ctx); err != nil {
			return nil, err
		}
	}

	devices := make([]domain.Device, 0, len(d.entries))
	for _, e := range d.entries {
		devices = append(devices, e.device)
	}
	sort.Slice(devices, func(i, j int) bool {
		return strings.ToLower(devices[i].Name) < strings.ToLower(devices[j].Name)
	})
	return devices, nil
}

// Conn returns an open control channel to the named device, connecting
// lazily and caching the handle on the entry.
func (d *Directory) Conn(ctx context.Context, name string) (adapters.CastConn, error) {
	device, err := d.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	e := d.lookup(name)
	if e == nil {
		d.mu.Unlock()
		return nil, domain.NewError(domain.CodeDiscoveryFailed,
			fmt.Sprintf("device %q disappeared from cache", name))
	}
	if e.conn != nil {
		conn := e.conn
		d.mu.Unlock()
		return conn, nil
	}
	d.mu.Unlock()

	conn, err := d.connector.Connect(ctx, device)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	e = d.lookup(name)
	if e == nil {
		_ = conn.Close()
		return nil, domain.NewError(domain.CodeDiscoveryFailed,
			fmt.Sprintf("device %q disappeared from cache", name))
	}
	if e.conn != nil {
		// Another caller won the connect race.
		_ = conn.Close()
		return e.conn, nil
	}
	e.conn = conn
	return conn, nil
}

// DropConn discards a cached connection after a failure so the next Conn
// call reconnects.
func (d *Directory) DropConn(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e := d.lookup(name); e != nil && e.conn != nil {
		_ = e.conn.Close()
		e.conn = nil
	}
}

// Clear drops every cached entry, closes held connections and forces the
// next lookup to rescan.
func (d *Directory) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.entries {
		if e.conn != nil {
			_ = e.conn.Close()
		}
	}
	d.entries = map[string]*entry{}
	d.lastScan = time.Time{}
}

// rescan is called with d.mu held.
func (d *Directory) rescan(ctx context.Context) error {
	devices, err := d.scanner.Scan(ctx)
	if err != nil {
		return domain.WrapError(domain.CodeDiscoveryFailed, "device scan failed", err)
	}

	now := d.now()
	next := make(map[string]*entry, len(devices))
	for _, device := range devices {
		key := normalizeName(device.Name)
		if key == "" {
			continue
		}
		e := &entry{device: device, refreshedAt: now}
		if prev, ok := d.entries[key]; ok {
			e.lastUsedAt = prev.lastUsedAt
			if prev.device.Host == device.Host && prev.device.Port == device.Port {
				e.conn = prev.conn
				prev.conn = nil
			}
		}
		next[key] = e
	}
	for _, prev := range d.entries {
		if prev.conn != nil {
			_ = prev.conn.Close()
		}
	}
	d.entries = next
	d.lastScan = now
	d.logger.Debug("device scan complete", "devices", len(next))
	return nil
}

// lookup matches name against cached entries: exact normalized match first,
// then bidirectional substring match. Called with d.mu held.
func (d *Directory) lookup(name string) *entry {
	query := normalizeName(name)
	if query == "" {
		return nil
	}
	if e, ok := d.entries[query]; ok {
		return e
	}

	var keys []string
	for key := range d.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(key, query) || strings.Contains(query, key) {
			return d.entries[key]
		}
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
