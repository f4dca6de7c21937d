package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/tablesim/internal/config"
	"github.com/playmatatu/tablesim/internal/display"
	"github.com/playmatatu/tablesim/internal/game"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Environment:          "test",
		TableWidth:           1000,
		TableHeight:          500,
		RailWidth:            40,
		PocketRadius:         22.5,
		FrictionCoefficient:  2,
		ScreenPadding:        40,
		MaxShotVelocity:      500,
		ReplayMaxIterations:  10000,
		FrameRateHz:          60,
		JWTSecret:            "test-secret",
		TableTokenTTLMinutes: 10,
	}
	game.Manager = game.NewTableManager(nil, nil, cfg)
	r := gin.New()
	SetupRoutes(r, nil, nil, cfg)
	return r
}

func doJSON(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type created struct {
	TableID string        `json:"table_id"`
	Token   string        `json:"token"`
	State   game.Snapshot `json:"state"`
}

func createTable(t *testing.T, r http.Handler) created {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/tables", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	var out created
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.TableID == "" || out.Token == "" {
		t.Fatalf("create response missing id or token: %s", w.Body.String())
	}
	return out
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestCreateAndGetTable(t *testing.T) {
	r := newTestRouter(t)
	tbl := createTable(t, r)
	if len(tbl.State.Balls) != game.NumBalls {
		t.Errorf("created table has %d balls", len(tbl.State.Balls))
	}

	w := doJSON(r, http.MethodGet, "/api/v1/tables/"+tbl.TableID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/v1/tables/missing", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing table status = %d, want 404", w.Code)
	}
}

func TestCreateTableRejectsBadDimensions(t *testing.T) {
	r := newTestRouter(t)
	body := map[string]interface{}{"dimensions": map[string]float64{"width": 0, "height": 500, "rail_width": 40, "pocket_radius": 22.5}}
	if w := doJSON(r, http.MethodPost, "/api/v1/tables", "", body); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestShotRequiresTableToken(t *testing.T) {
	r := newTestRouter(t)
	a := createTable(t, r)
	b := createTable(t, r)
	shot := map[string]interface{}{"ball_id": 0, "vx": 100, "vy": 0}
	path := "/api/v1/tables/" + a.TableID + "/shot"

	if w := doJSON(r, http.MethodPost, path, "", shot); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}
	if w := doJSON(r, http.MethodPost, path, "garbage", shot); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}
	if w := doJSON(r, http.MethodPost, path, b.Token, shot); w.Code != http.StatusForbidden {
		t.Errorf("other table token status = %d, want 403", w.Code)
	}

	w := doJSON(r, http.MethodPost, path, a.Token, shot)
	if w.Code != http.StatusAccepted {
		t.Fatalf("shot status = %d body=%s", w.Code, w.Body.String())
	}
	var accepted struct {
		ShotNumber int       `json:"shot_number"`
		Velocity   game.Vec2 `json:"velocity"`
	}
	json.Unmarshal(w.Body.Bytes(), &accepted)
	if accepted.ShotNumber != 1 || accepted.Velocity.X != 100 {
		t.Errorf("accepted = %+v", accepted)
	}

	// Nothing advances the table here, so it is still moving.
	if w := doJSON(r, http.MethodPost, path, a.Token, shot); w.Code != http.StatusConflict {
		t.Errorf("second shot status = %d, want 409", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/api/v1/tables/"+a.TableID+"/rack", a.Token, nil); w.Code != http.StatusConflict {
		t.Errorf("rack while moving status = %d, want 409", w.Code)
	}
}

func TestShotValidation(t *testing.T) {
	r := newTestRouter(t)
	a := createTable(t, r)
	path := "/api/v1/tables/" + a.TableID + "/shot"

	cases := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"no velocity", map[string]interface{}{"ball_id": 0}, http.StatusBadRequest},
		{"zero velocity", map[string]interface{}{"ball_id": 0, "vx": 0, "vy": 0}, http.StatusUnprocessableEntity},
		{"unknown ball", map[string]interface{}{"ball_id": 99, "vx": 10}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := doJSON(r, http.MethodPost, path, a.Token, tc.body); w.Code != tc.want {
				t.Errorf("status = %d, want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}

	w := doJSON(r, http.MethodPost, path, a.Token, map[string]interface{}{"ball_id": 0, "angle": 0, "power": 5000})
	if w.Code != http.StatusAccepted {
		t.Fatalf("angle shot status = %d", w.Code)
	}
	var accepted struct {
		Velocity game.Vec2 `json:"velocity"`
	}
	json.Unmarshal(w.Body.Bytes(), &accepted)
	if math.Abs(accepted.Velocity.X-500) > 1e-9 {
		t.Errorf("clamped velocity = %+v, want x=500", accepted.Velocity)
	}
}

func TestTransformEndpoint(t *testing.T) {
	r := newTestRouter(t)
	a := createTable(t, r)

	w := doJSON(r, http.MethodGet, "/api/v1/tables/"+a.TableID+"/transform?screen_w=1920&screen_h=1080", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Orientation string    `json:"orientation"`
		Scale       float64   `json:"scale"`
		Matrix      []float64 `json:"matrix"`
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	if out.Orientation != "landscape" {
		t.Errorf("orientation = %q", out.Orientation)
	}
	if math.Abs(out.Scale-1840.0/1080) > 1e-9 {
		t.Errorf("scale = %v, want %v", out.Scale, 1840.0/1080)
	}
	if len(out.Matrix) != 6 {
		t.Errorf("matrix = %v", out.Matrix)
	}

	if w := doJSON(r, http.MethodGet, "/api/v1/tables/"+a.TableID+"/transform?screen_w=abc&screen_h=1080", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad query status = %d, want 400", w.Code)
	}
}

func TestHitTestEndpoint(t *testing.T) {
	r := newTestRouter(t)
	a := createTable(t, r)

	cue, _ := a.State.Ball(0)
	tr := display.NewTransform(1080, 1920, a.State.Dimensions, 40)
	sx, sy := tr.TableToScreen(cue.Position.X, cue.Position.Y)

	w := doJSON(r, http.MethodPost, "/api/v1/tables/"+a.TableID+"/hit-test", "", map[string]float64{
		"screen_w": 1080, "screen_h": 1920, "x": sx, "y": sy,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var hit display.HitTest
	json.Unmarshal(w.Body.Bytes(), &hit)
	if hit.NearestID != 0 || !hit.OnSurface {
		t.Errorf("hit = %+v, want cue ball on surface", hit)
	}
}

func TestReplayEndpoint(t *testing.T) {
	r := newTestRouter(t)

	body := map[string]interface{}{
		"shots": []map[string]interface{}{
			{"ball_id": 0, "velocity": map[string]float64{"x": 100, "y": 0}},
		},
	}
	w := doJSON(r, http.MethodPost, "/api/v1/replay", "", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Completed  bool `json:"completed"`
		Iterations int  `json:"iterations"`
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	if !out.Completed || out.Iterations == 0 {
		t.Errorf("replay = %+v", out)
	}

	if w := doJSON(r, http.MethodPost, "/api/v1/replay", "", map[string]interface{}{"shots": []interface{}{}}); w.Code != http.StatusBadRequest {
		t.Errorf("empty replay status = %d, want 400", w.Code)
	}
}

func TestAdminNeedsDatabase(t *testing.T) {
	r := newTestRouter(t)
	if w := doJSON(r, http.MethodGet, "/api/v1/admin/tables", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
