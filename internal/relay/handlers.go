package relay

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
	"github.com/1bobby-git/ytmusic-bridge/internal/linkparse"
)

const relayCopyBufferSize = 64 * 1024

// Upstream headers passed through to the device.
var passthroughHeaders = []string{"Content-Length", "Accept-Ranges", "Content-Range"}

type handlers struct {
	deps Deps
}

// relayStream proxies the track's googlevideo stream to the device, passing
// the Range header through. An upstream 403 means the cached stream URL
// expired; the entry is invalidated and re-resolved exactly once.
func (h *handlers) relayStream(w http.ResponseWriter, r *http.Request) {
	trackID := strings.TrimPrefix(r.URL.Path, "/relay/")
	if trackID == "" || strings.Contains(trackID, "/") {
		http.NotFound(w, r)
		return
	}

	media, err := h.deps.Resolver.Resolve(r.Context(), trackID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.fetchUpstream(r, media.StreamURL)
	if err != nil {
		writeError(w, domain.WrapError(domain.CodeResolutionFailed, "upstream fetch failed", err))
		return
	}

	if resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		h.deps.Resolver.Invalidate(trackID)
		media, err = h.deps.Resolver.Resolve(r.Context(), trackID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp, err = h.fetchUpstream(r, media.StreamURL)
		if err != nil {
			writeError(w, domain.WrapError(domain.CodeResolutionFailed, "upstream fetch failed", err))
			return
		}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = media.MimeType
	}
	w.Header().Set("Content-Type", contentType)
	for _, header := range passthroughHeaders {
		if value := resp.Header.Get(header); value != "" {
			w.Header().Set(header, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	buf := make([]byte, relayCopyBufferSize)
	if _, err := io.CopyBuffer(w, resp.Body, buf); err != nil {
		// The device dropped the connection; nothing to answer.
		h.deps.Logger.Debug("relay copy interrupted", "track", trackID, "err", err)
	}
}

func (h *handlers) fetchUpstream(r *http.Request, streamURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, err
	}
	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	return h.deps.Client.Do(req)
}

// playlistM3U renders the playlist as an extended M3U whose entries point
// back through the relay. The optional v parameter seeds the source's
// watch-playlist fallback; when every rung fails the export degrades to the
// seed track alone rather than returning nothing playable.
func (h *handlers) playlistM3U(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/relay/playlist/")
	listID := strings.TrimSuffix(rest, ".m3u")
	if listID == "" || listID == rest || strings.Contains(listID, "/") {
		http.NotFound(w, r)
		return
	}

	seed := r.URL.Query().Get("v")
	tracks, err := h.deps.Source.Tracks(r.Context(), listID, seed)
	if err != nil {
		if seed == "" {
			writeError(w, err)
			return
		}
		h.deps.Logger.Warn("playlist export degraded to seed track", "list", listID, "err", err)
		tracks = []domain.Track{{ID: seed}}
	}

	w.Header().Set("Content-Type", m3uContentType)
	_, _ = io.WriteString(w, renderM3U(h.deps.BaseURL, tracks))
}

type playRequest struct {
	URL     string   `json:"url"`
	Targets []string `json:"targets,omitempty"`
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.CodeConfigInvalid, "invalid request body", err))
		return
	}
	if req.URL == "" {
		writeError(w, domain.NewError(domain.CodeConfigInvalid, "url is required"))
		return
	}

	if !h.deps.Settings.AutoPlay() {
		link := linkparse.Parse(req.URL)
		writeJSON(w, http.StatusOK, domain.PlayReport{
			Kind:       string(link.Kind),
			VideoID:    link.VideoID,
			ListID:     link.ListID,
			Dispatched: false,
		})
		return
	}

	report, err := h.deps.Player.PlayURL(r.Context(), req.URL, req.Targets)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type stopRequest struct {
	Target string `json:"target,omitempty"`
}

func (h *handlers) stop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.Target != "" {
		h.deps.Queue.StopPlaylist(req.Target)
		if err := h.deps.Stopper.StopPlayback(r.Context(), req.Target); err != nil {
			h.deps.Logger.Debug("device stop failed", "target", req.Target, "err", err)
		}
	} else {
		h.deps.Queue.ClearAll()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handlers) queueInfo(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if target == "" {
		http.NotFound(w, r)
		return
	}
	info, ok := h.deps.Queue.QueueInfo(target)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active queue for " + target})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) devices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.deps.Devices.Devices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

type settingsPayload struct {
	TargetOverride *string `json:"target_override,omitempty"`
	Mode           *string `json:"mode,omitempty"`
	AutoPlay       *bool   `json:"auto_play,omitempty"`
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"target_override": h.deps.Settings.TargetOverride(),
		"mode":            h.deps.Settings.PlaybackMode(),
		"auto_play":       h.deps.Settings.AutoPlay(),
	})
}

func (h *handlers) putSettings(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.WrapError(domain.CodeConfigInvalid, "invalid request body", err))
		return
	}

	if payload.Mode != nil {
		mode, err := domain.ParsePlaybackMode(*payload.Mode)
		if err != nil {
			writeError(w, domain.WrapError(domain.CodeConfigInvalid, "invalid playback mode", err))
			return
		}
		h.deps.Settings.SetPlaybackMode(mode)
	}
	if payload.TargetOverride != nil {
		h.deps.Settings.SetTargetOverride(*payload.TargetOverride)
	}
	if payload.AutoPlay != nil {
		h.deps.Settings.SetAutoPlay(*payload.AutoPlay)
	}
	h.getSettings(w, r)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.deps.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	var de *domain.Error
	if errors.As(err, &de) {
		code = de.Code
		switch de.Code {
		case domain.CodeConfigInvalid:
			status = http.StatusBadRequest
		case domain.CodeDiscoveryFailed:
			status = http.StatusNotFound
		case domain.CodeResolutionFailed:
			status = http.StatusUnprocessableEntity
		case domain.CodeDispatchFailed:
			status = http.StatusBadGateway
		}
	}
	writeJSON(w, status, map[string]string{"code": code, "error": err.Error()})
}
