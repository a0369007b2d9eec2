package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/franckalain/ecoscan/internal/catalog"
	"github.com/franckalain/ecoscan/internal/database"
	"github.com/franckalain/ecoscan/internal/ml"
	"github.com/franckalain/ecoscan/internal/models"
	"github.com/franckalain/ecoscan/internal/session"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type stubModel struct {
	result *models.AnalysisResult
	err    error
}

func (m *stubModel) Load(ctx context.Context) error { return nil }

func (m *stubModel) ProcessImage(ctx context.Context, imageData []byte, mimeType string) (*models.AnalysisResult, error) {
	return m.result, m.err
}

func newTestServer(t *testing.T, model ml.Model) (*Server, *database.SQLiteDB) {
	t.Helper()
	logrus.SetLevel(logrus.WarnLevel)

	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "ecoscan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if model == nil {
		model = ml.NewLocalModel(catalog.Default(), rand.New(rand.NewSource(7)))
	}
	srv := New(db, model, false, WithSessions(session.NewService(db, session.WithHashCost(bcrypt.MinCost))))
	return srv, db
}

func multipartImage(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="photo"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postImage(t *testing.T, srv *Server, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartImage(t, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Handler("").ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler("").ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/analyze-image", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAnalyzeImageLocalModel(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := postImage(t, srv, "image/png", pngHeader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.UnitKilogramsCO2, result.FootprintUnit)
	assert.NotEmpty(t, result.ObjectName)
	require.NotNil(t, result.Footprint)
	assert.Greater(t, result.CarbonFootprint.Float(), 0.0)
	assert.InDelta(t, result.Footprint.TotalCarbon, result.CarbonFootprint.Float(), 1e-9)
}

func TestAnalyzeImageRejectsNonImage(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := postImage(t, srv, "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Please select a valid image file."}`, rec.Body.String())
}

func TestAnalyzeImageMissingFile(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", strings.NewReader(""))
	rec := httptest.NewRecorder()
	srv.Handler("").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No image file provided")
}

func TestAnalyzeImageMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze-image", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyzeImageTooLarge(t *testing.T) {
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "ecoscan.db"))
	require.NoError(t, err)
	defer db.Close()
	srv := New(db, &stubModel{}, false, WithMaxUploadBytes(4))

	rec := postImage(t, srv, "image/png", pngHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "larger than")
}

func TestAnalyzeImageInvalidModelJSON(t *testing.T) {
	srv, _ := newTestServer(t, &stubModel{err: &ml.ResponseError{Raw: "not json", Err: assert.AnError}})
	rec := postImage(t, srv, "image/jpeg", []byte{0xff, 0xd8, 0xff})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"model response was not valid JSON","raw":"not json"}`, rec.Body.String())
}

func TestAnalyzeImageModelFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubModel{err: &ml.RefusalError{Reason: "no object visible"}})
	rec := postImage(t, srv, "image/jpeg", []byte{0xff, 0xd8, 0xff})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"no object visible"}`, rec.Body.String())
}

func TestLoadHistoryTotalsEveryScan(t *testing.T) {
	srv, db := newTestServer(t, nil)
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

	scans := []*models.ScanRecord{
		{ID: "kg-today", CarbonFootprint: 1.25, FootprintUnit: models.UnitKilogramsCO2, CreatedAt: now.Add(-time.Hour)},
		{ID: "no-unit", CarbonFootprint: 100, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "kg-week", CarbonFootprint: 2.5, FootprintUnit: models.UnitKilogramsCO2, CreatedAt: now.AddDate(0, 0, -3)},
		{ID: "too-old", CarbonFootprint: 50, FootprintUnit: models.UnitGramsCO2, CreatedAt: now.AddDate(0, 0, -8)},
	}
	// more scans today than the history list shows
	for i := 0; i < HistoryLimit+5; i++ {
		scans = append(scans, &models.ScanRecord{
			ID:              fmt.Sprintf("g%d", i),
			CarbonFootprint: 2,
			FootprintUnit:   models.UnitGramsCO2,
			CreatedAt:       now.Add(-time.Duration(i+1) * time.Minute),
		})
	}
	for _, scan := range scans {
		scan.UserID = "u1"
		require.NoError(t, db.SaveScan(ctx, scan))
	}

	h, err := srv.loadHistory(ctx, "u1", now)
	require.NoError(t, err)
	assert.Len(t, h.Items, HistoryLimit)
	assert.Equal(t, []Total{
		{Unit: models.UnitGramsCO2, Value: 150},
		{Unit: models.UnitKilogramsCO2, Value: 1.25},
	}, h.DayTotal)
	assert.Equal(t, []Total{
		{Unit: models.UnitGramsCO2, Value: 150},
		{Unit: models.UnitKilogramsCO2, Value: 3.75},
	}, h.WeekTotal)

	empty, err := srv.loadHistory(ctx, "nobody", now)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.DayTotal)
}

func TestHistoryWindows(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	day, week := historyWindows(time.Date(2024, 5, 10, 0, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, loc), day)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, loc), week)
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *Server) *wsClient {
	t.Helper()
	ts := httptest.NewServer(srv.Handler(""))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(messageType string, data any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(map[string]any{"type": messageType, "data": data}))
}

// next reads messages until one matches
func (c *wsClient) next(match func(wsMessage) bool) wsMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg wsMessage
		require.NoError(c.t, c.conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func ofType(messageType string) func(wsMessage) bool {
	return func(m wsMessage) bool { return m.Type == messageType }
}

func viewIn(state string) func(wsMessage) bool {
	return func(m wsMessage) bool {
		if m.Type != "view" {
			return false
		}
		var p struct {
			View struct {
				State string `json:"state"`
			} `json:"view"`
		}
		return json.Unmarshal(m.Data, &p) == nil && p.View.State == state
	}
}

func notificationText(t *testing.T, m wsMessage) string {
	t.Helper()
	var n notification
	require.NoError(t, json.Unmarshal(m.Data, &n))
	return n.Message
}

func TestWebSocketRequiresLogin(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := dial(t, srv)
	c.next(viewIn("empty"))

	c.send("analyze", nil)
	msg := c.next(ofType("notification"))
	assert.Equal(t, "Please log in first.", notificationText(t, msg))

	c.send("bogus", nil)
	msg = c.next(ofType("notification"))
	assert.Equal(t, "Unknown message type", notificationText(t, msg))
}

func TestWebSocketRegistrationErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := dial(t, srv)

	c.send("register", map[string]string{"name": "Ana", "email": "ana@example.com", "password": "secret1", "confirm": "secret2"})
	assert.Equal(t, "Passwords do not match!", notificationText(t, c.next(ofType("notification"))))

	c.send("register", map[string]string{"name": "Ana", "email": "ana@example.com", "password": "abc", "confirm": "abc"})
	assert.Equal(t, session.ErrPasswordTooShort.Error(), notificationText(t, c.next(ofType("notification"))))

	c.send("login", map[string]string{"email": "ana@example.com", "password": "whatever"})
	assert.Equal(t, "Invalid email or password!", notificationText(t, c.next(ofType("notification"))))
}

func TestWebSocketAnalysisFlow(t *testing.T) {
	srv, db := newTestServer(t, nil)
	c := dial(t, srv)

	c.send("register", map[string]string{"name": "Ana", "email": "ana@example.com", "password": "secret1", "confirm": "secret1"})
	msg := c.next(ofType("session"))
	var sess sessionPayload
	require.NoError(t, json.Unmarshal(msg.Data, &sess))
	require.NotNil(t, sess.User)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "Ana", sess.User.Name)

	c.send("share", nil)
	assert.Equal(t, "No results to share.", notificationText(t, c.next(ofType("notification"))))

	c.send("select", map[string]string{"name": "note.txt", "mime_type": "text/plain", "image": base64.StdEncoding.EncodeToString([]byte("hi"))})
	assert.Equal(t, "Please select a valid image file.", notificationText(t, c.next(ofType("notification"))))

	c.send("select", map[string]string{
		"name":      "bottle.png",
		"mime_type": "image/png",
		"image":     "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader),
	})
	c.next(viewIn("ready"))

	c.send("analyze", nil)
	msg = c.next(viewIn("succeeded"))
	var vp struct {
		User *models.User `json:"user"`
		View struct {
			Result struct {
				ObjectName    string `json:"object_name"`
				FootprintUnit string `json:"footprint_unit"`
			} `json:"result"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &vp))
	require.NotNil(t, vp.User)
	assert.NotEmpty(t, vp.View.Result.ObjectName)

	require.Eventually(t, func() bool {
		scans, err := db.GetRecentScans(context.Background(), sess.User.ID, HistoryLimit)
		return err == nil && len(scans) == 1
	}, 5*time.Second, 10*time.Millisecond)

	c.send("get_history", nil)
	msg = c.next(ofType("history"))
	var h History
	require.NoError(t, json.Unmarshal(msg.Data, &h))
	require.Len(t, h.Items, 1)
	assert.Equal(t, models.UnitKilogramsCO2, h.Items[0].FootprintUnit)
	require.Len(t, h.DayTotal, 1)
	assert.InDelta(t, h.Items[0].CarbonFootprint, h.DayTotal[0].Value, 0.01)

	c.send("share", nil)
	msg = c.next(ofType("share"))
	var share map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &share))
	assert.Contains(t, share["text"], "with EcoScan!")

	c.send("logout", nil)
	msg = c.next(viewIn("empty"))
	require.NoError(t, json.Unmarshal(msg.Data, &vp))
	assert.Nil(t, vp.User)

	// a second connection resumes the session it was given
	c2 := dial(t, srv)
	c2.send("resume", map[string]string{"token": sess.Token})
	assert.Equal(t, "Please log in first.", notificationText(t, c2.next(ofType("notification"))))
}

func TestWebSocketResume(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := dial(t, srv)
	c.send("register", map[string]string{"name": "Bo", "email": "bo@example.com", "password": "secret1", "confirm": "secret1"})
	var sess sessionPayload
	require.NoError(t, json.Unmarshal(c.next(ofType("session")).Data, &sess))

	c2 := dial(t, srv)
	c2.send("resume", map[string]string{"token": sess.Token})
	var resumed sessionPayload
	require.NoError(t, json.Unmarshal(c2.next(ofType("session")).Data, &resumed))
	require.NotNil(t, resumed.User)
	assert.Equal(t, sess.User.ID, resumed.User.ID)
}
