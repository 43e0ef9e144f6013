package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wardenhq/go-warden/pkg/calibration"
	"github.com/wardenhq/go-warden/pkg/capture"
	"github.com/wardenhq/go-warden/pkg/persona"
	"github.com/wardenhq/go-warden/pkg/session"
	"github.com/wardenhq/go-warden/pkg/tts"
	"github.com/wardenhq/go-warden/pkg/vision"
	"github.com/wardenhq/go-warden/pkg/web"
)

type fixture struct {
	server *web.Server
	store  *calibration.Store
	ctrl   *session.Controller
	speech *tts.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := calibration.NewStore(t.TempDir())
	source := capture.NewMock()
	classifier := vision.NewMock()
	registry := persona.Builtins()
	speech := tts.NewMock()

	cfg := session.DefaultConfig()
	trig := session.NewTrigger(registry, "", persona.NewMock(), speech, 0)
	ctrl := session.NewController(cfg, source, classifier, store, trig)

	srv := web.NewServer("0", web.Deps{
		Controller: ctrl,
		Trigger:    trig,
		Store:      store,
		Source:     source,
		Classifier: classifier,
		Registry:   registry,
		Speech:     speech,
	})
	t.Cleanup(ctrl.Stop)
	return &fixture{server: srv, store: store, ctrl: ctrl, speech: speech}
}

func (f *fixture) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := f.server.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Session    session.Snapshot `json:"session"`
		Calibrated bool             `json:"calibrated"`
		Persona    string           `json:"persona"`
	}
	decode(t, resp, &body)

	if body.Calibrated {
		t.Fatal("fresh store should not be calibrated")
	}
	if body.Session.State != "GREEN" {
		t.Fatalf("initial state = %s, want GREEN", body.Session.State)
	}
	if body.Persona != persona.Builtins().Default().ID {
		t.Fatalf("persona = %s, want registry default", body.Persona)
	}
}

func TestSessionStartRequiresCalibration(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/start", nil))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("start before calibration: status = %d, want 409", resp.StatusCode)
	}
}

func TestCalibrateThenStart(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, httptest.NewRequest(http.MethodPost, "/api/calibrate", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calibrate: status = %d", resp.StatusCode)
	}
	var cal struct {
		Description string `json:"description"`
	}
	decode(t, resp, &cal)
	if cal.Description == "" {
		t.Fatal("calibration response missing description")
	}
	if !f.store.Calibrated() {
		t.Fatal("store not calibrated after /api/calibrate")
	}

	resp = f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/start", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status = %d", resp.StatusCode)
	}
	if !f.ctrl.Running() {
		t.Fatal("controller not running after start")
	}

	resp = f.do(t, httptest.NewRequest(http.MethodPost, "/api/session/stop", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop: status = %d", resp.StatusCode)
	}
	if f.ctrl.Running() {
		t.Fatal("controller still running after stop")
	}
}

func TestCalibrateWithUpload(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "baseline.jpg")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/calibrate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := f.do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calibrate with upload: status = %d", resp.StatusCode)
	}

	img, err := f.store.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if !bytes.Equal(img, []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}) {
		t.Fatal("stored baseline does not match upload")
	}
}

func TestCalibrateVisionFailure(t *testing.T) {
	store := calibration.NewStore(t.TempDir())
	classifier := &vision.Mock{
		DescribeFunc: func(ctx context.Context, frame []byte) (string, error) {
			return "", vision.ErrUnparseable
		},
	}
	trig := session.NewTrigger(persona.Builtins(), "", persona.NewMock(), nil, 0)
	srv := web.NewServer("0", web.Deps{
		Controller: session.NewController(session.DefaultConfig(), capture.NewMock(), classifier, store, trig),
		Trigger:    trig,
		Store:      store,
		Source:     capture.NewMock(),
		Classifier: classifier,
		Registry:   persona.Builtins(),
	})

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodPost, "/api/calibrate", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("calibrate with failing vision: status = %d, want 502", resp.StatusCode)
	}
	if store.Calibrated() {
		t.Fatal("failed calibration must not persist a baseline")
	}
}

func TestPersonaEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/personas", nil))
	var personas []struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	}
	decode(t, resp, &personas)
	if len(personas) != 4 {
		t.Fatalf("personas = %d, want 4 builtins", len(personas))
	}
	activeCount := 0
	for _, p := range personas {
		if p.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Fatalf("active personas = %d, want exactly 1", activeCount)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/persona", strings.NewReader(`{"id":"sarcastic_friend"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = f.do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set persona: status = %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/persona", strings.NewReader(`{"id":"nobody"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = f.do(t, req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("set unknown persona: status = %d, want 404", resp.StatusCode)
	}
}

func TestSpeakEndpoint(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/speak", strings.NewReader(`{"text":"Focus up.","persona":"drill_sergeant"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := f.do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("speak: status = %d", resp.StatusCode)
	}
	defer resp.Body.Close()

	audio, _ := io.ReadAll(resp.Body)
	if len(audio) == 0 {
		t.Fatal("speak returned no audio")
	}
	calls := f.speech.Calls()
	if len(calls) != 1 || calls[0].Voice != tts.VoiceEcho {
		t.Fatalf("speech calls = %+v, want one call with persona voice", calls)
	}
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/speak", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := f.do(t, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("speak empty: status = %d, want 400", resp.StatusCode)
	}
}

func TestEpisodeAudioWithoutEpisode(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/episode/audio", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("episode audio with no episode: status = %d, want 404", resp.StatusCode)
	}
}

func TestCalibrationEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/calibration", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("calibration before set: status = %d, want 404", resp.StatusCode)
	}

	f.do(t, httptest.NewRequest(http.MethodPost, "/api/calibrate", nil))

	resp = f.do(t, httptest.NewRequest(http.MethodGet, "/api/calibration", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calibration after set: status = %d", resp.StatusCode)
	}

	resp = f.do(t, httptest.NewRequest(http.MethodGet, "/api/calibration/image", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calibration image: status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content type = %q, want image/jpeg", ct)
	}
}
