package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1bobby-git/ytmusic-bridge/internal/adapters"
	"github.com/1bobby-git/ytmusic-bridge/internal/adapters/castdevice"
	"github.com/1bobby-git/ytmusic-bridge/internal/directory"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

type fakeConn struct {
	loadedApps  []string
	loadedMedia []string
	state       domain.PlayerState
	failLoad    error
	closed      bool
}

func (f *fakeConn) LoadApp(appID, contentID string) error {
	if f.failLoad != nil {
		return f.failLoad
	}
	f.loadedApps = append(f.loadedApps, appID+":"+contentID)
	return nil
}

func (f *fakeConn) LoadMedia(mediaURL, contentType, title, thumb string) error {
	if f.failLoad != nil {
		return f.failLoad
	}
	f.loadedMedia = append(f.loadedMedia, mediaURL)
	return nil
}

func (f *fakeConn) PlayerState() (domain.PlayerState, error) { return f.state, nil }
func (f *fakeConn) Stop() error                              { return nil }
func (f *fakeConn) Close() error                             { f.closed = true; return nil }

type fixedScanner struct{ devices []domain.Device }

func (s fixedScanner) Scan(ctx context.Context) ([]domain.Device, error) { return s.devices, nil }

type fixedConnector struct{ conn *fakeConn }

func (c fixedConnector) Connect(ctx context.Context, device domain.Device) (adapters.CastConn, error) {
	return c.conn, nil
}

func newTestController(conn *fakeConn) *Controller {
	dir := directory.New(
		fixedScanner{devices: []domain.Device{{UUID: "u1", Name: "Living Room TV", Host: "10.0.0.10", Port: 8009}}},
		fixedConnector{conn: conn},
		directory.Options{EntryTTL: time.Minute, ScanInterval: time.Minute},
	)
	return New(dir, nil)
}

func TestPlayNativeAppUsesMusicReceiver(t *testing.T) {
	conn := &fakeConn{}
	c := newTestController(conn)

	err := c.PlayNativeApp(context.Background(), "Living Room TV", domain.AppYouTubeMusic, "vid1", "")
	if err != nil {
		t.Fatalf("PlayNativeApp: %v", err)
	}
	want := castdevice.YouTubeMusicAppID + ":vid1"
	if len(conn.loadedApps) != 1 || conn.loadedApps[0] != want {
		t.Errorf("loadedApps = %v, want [%s]", conn.loadedApps, want)
	}
}

func TestPlayNativeAppNeedsContentID(t *testing.T) {
	c := newTestController(&fakeConn{})
	err := c.PlayNativeApp(context.Background(), "Living Room TV", domain.AppYouTube, "", "")
	if !domain.IsCode(err, domain.CodeDispatchFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestFailedCallDropsConnection(t *testing.T) {
	conn := &fakeConn{failLoad: errors.New("receiver rejected load")}
	c := newTestController(conn)

	err := c.PlayMedia(context.Background(), "Living Room TV", "http://x/1", "audio/mp4", "", "")
	if !domain.IsCode(err, domain.CodeDispatchFailed) {
		t.Fatalf("err = %v", err)
	}
	if !conn.closed {
		t.Error("failed connection should be dropped and closed")
	}
}

func TestPlayerState(t *testing.T) {
	conn := &fakeConn{state: domain.StatePlaying}
	c := newTestController(conn)

	state, err := c.PlayerState(context.Background(), "Living Room TV")
	if err != nil {
		t.Fatal(err)
	}
	if state != domain.StatePlaying {
		t.Errorf("state = %q", state)
	}
}
