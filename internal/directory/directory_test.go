package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1bobby-git/ytmusic-bridge/internal/adapters"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

type fakeScanner struct {
	devices []domain.Device
	err     error
	calls   int
}

func (f *fakeScanner) Scan(ctx context.Context) ([]domain.Device, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.devices, nil
}

type fakeConn struct {
	closed bool
}

func (f *fakeConn) LoadApp(appID, contentID string) error                     { return nil }
func (f *fakeConn) LoadMedia(mediaURL, contentType, title, thumb string) error { return nil }
func (f *fakeConn) PlayerState() (domain.PlayerState, error)                  { return domain.StateIdle, nil }
func (f *fakeConn) Stop() error                                               { return nil }
func (f *fakeConn) Close() error                                              { f.closed = true; return nil }

type fakeConnector struct {
	conns []*fakeConn
	err   error
}

func (f *fakeConnector) Connect(ctx context.Context, device domain.Device) (adapters.CastConn, error) {
	if f.err != nil {
		return nil, f.err
	}
	conn := &fakeConn{}
	f.conns = append(f.conns, conn)
	return conn, nil
}

func testDevices() []domain.Device {
	return []domain.Device{
		{UUID: "u1", Name: "Living Room TV", Host: "10.0.0.10", Port: 8009, Model: "Chromecast"},
		{UUID: "u2", Name: "Kitchen speaker", Host: "10.0.0.11", Port: 8009, Model: "Google Nest Audio", IsAudioOnly: true},
	}
}

func newTestDirectory(scanner *fakeScanner, connector *fakeConnector, now *time.Time) *Directory {
	return New(scanner, connector, Options{
		EntryTTL:     5 * time.Minute,
		ScanInterval: time.Minute,
		Now:          func() time.Time { return *now },
	})
}

func TestResolveScansOnColdCache(t *testing.T) {
	now := time.Now()
	scanner := &fakeScanner{devices: testDevices()}
	d := newTestDirectory(scanner, &fakeConnector{}, &now)

	device, err := d.Resolve(context.Background(), "Living Room TV")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if device.UUID != "u1" {
		t.Errorf("device = %+v", device)
	}
	if scanner.calls != 1 {
		t.Errorf("scan calls = %d, want 1", scanner.calls)
	}
}

func TestResolveUsesFreshEntryWithoutRescan(t *testing.T) {
	now := time.Now()
	scanner := &fakeScanner{devices: testDevices()}
	d := newTestDirectory(scanner, &fakeConnector{}, &now)

	if _, err := d.Resolve(context.Background(), "Living Room TV"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(4 * time.Minute)
	if _, err := d.Resolve(context.Background(), "Living Room TV"); err != nil {
		t.Fatal(err)
	}
	if scanner.calls != 1 {
		t.Errorf("scan calls = %d, want 1", scanner.calls)
	}
}

func TestResolveMissWithinScanIntervalDoesNotRescan(t *testing.T) {
	now := time.Now()
	scanner := &fakeScanner{devices: testDevices()}
	d := newTestDirectory(scanner, &fakeConnector{}, &now)

	if _, err := d.Resolve(context.Background(), "Living Room TV"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Second)
	_, err := d.Resolve(context.Background(), "Bedroom")
	if !domain.IsCode(err, domain.CodeDiscoveryFailed) {
		t.Fatalf("err = %v, want DISCOVERY_FAILED", err)
	}
	if scanner.calls != 1 {
		t.Errorf("scan calls = %d, want 1 (no rescan inside interval)", scanner.calls)
	}
}

func TestResolveRescansAfterInterval(t *testing.T) {
	now := time.Now()
	scanner := &fakeScanner{devices: testDevices()}
	d := newTestDirectory(scanner, &fakeConnector{}, &now)

	if _, err := d.Resolve(context.Background(), "Living Room TV"); err != nil {
		t.Fatal(err)
	}
	scanner.devices = append(testDevices(), domain.Device{UUID: "u3", Name: "Bedroom display", Host: "10.0.0.12", Port: 8009})
	now = now.Add(2 * time.Minute)

	device, err := d.Resolve(context.Background(), "Bedroom")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if device.UUID != "u3" {
		t.Errorf("device = %+v", device)
	}
	if scanner.calls != 2 {
		t.Errorf("scan calls = %d, want 2", scanner.calls)
	}
}

func TestResolveSubstringMatchBothDirections(t *testing.T) {
	now := time.Now()
	scanner := &fakeScanner{devices: testDevices()}
	d := newTestDirectory(scanner, &fakeConnector{}, &now)

	// Query is a substring of the cached name.
	device, err := d.Resolve(context.Background(), "kitchen")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if device.UUID != "u2" {
		t.Errorf("device = %+v", device)
	}

	// Cached name is a substring of the query.
	device, err = d.Resolve(context.Background(), "the Kitchen speaker downstairs")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if device.UUID != "u2" {
		t.Errorf("device = %+v", device)
	}
}

func TestScanFailureMapsToDiscoveryError(t *testing.T) {
	now := time.Now()
	scanner := &fakeScanner{err: errors.New("network down")}
	d := newTestDirectory(scanner, &fakeConnector{}, &now)

	_, err := d.Resolve(context.Background(), "anything")
	if !domain.IsCode(err, domain.CodeDiscoveryFailed) {
		t.Fatalf("err = %v, want DISCOVERY_FAILED", err)
	}
}

func TestConnCachesHandle(t *testing.T) {
	now := time.Now()
	connector := &fakeConnector{}
	d := newTestDirectory(&fakeScanner{devices: testDevices()}, connector, &now)

	first, err := d.Conn(context.Background(), "Kitchen speaker")
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	second, err := d.Conn(context.Background(), "Kitchen speaker")
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	if first != second {
		t.Error("expected cached connection to be reused")
	}
	if len(connector.conns) != 1 {
		t.Errorf("connect calls = %d, want 1", len(connector.conns))
	}
}

func TestDropConnForcesReconnect(t *testing.T) {
	now := time.Now()
	connector := &fakeConnector{}
	d := newTestDirectory(&fakeScanner{devices: testDevices()}, connector, &now)

	if _, err := d.Conn(context.Background(), "Kitchen speaker"); err != nil {
		t.Fatal(err)
	}
	d.DropConn("Kitchen speaker")
	if !connector.conns[0].closed {
		t.Error("dropped connection should be closed")
	}
	if _, err := d.Conn(context.Background(), "Kitchen speaker"); err != nil {
		t.Fatal(err)
	}
	if len(connector.conns) != 2 {
		t.Errorf("connect calls = %d, want 2", len(connector.conns))
	}
}

func TestClearClosesConnectionsAndForcesRescan(t *testing.T) {
	now := time.Now()
	scanner := &fakeScanner{devices: testDevices()}
	connector := &fakeConnector{}
	d := newTestDirectory(scanner, connector, &now)

	if _, err := d.Conn(context.Background(), "Living Room TV"); err != nil {
		t.Fatal(err)
	}
	d.Clear()
	if !connector.conns[0].closed {
		t.Error("Clear should close held connections")
	}

	if _, err := d.Resolve(context.Background(), "Living Room TV"); err != nil {
		t.Fatal(err)
	}
	if scanner.calls != 2 {
		t.Errorf("scan calls = %d, want 2 after Clear", scanner.calls)
	}
}
