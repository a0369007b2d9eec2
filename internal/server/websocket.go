package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/franckalain/ecoscan/internal/models"
	"github.com/franckalain/ecoscan/internal/pipeline"
	"github.com/franckalain/ecoscan/internal/session"
	"github.com/franckalain/ecoscan/internal/upload"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// inbound is a client message
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// outbound is a server message
type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type viewPayload struct {
	User *models.User  `json:"user"`
	View pipeline.View `json:"view"`
}

type sessionPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type selectRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
}

// client is one websocket connection with its own pipeline and login
type client struct {
	id       string
	srv      *Server
	conn     *websocket.Conn
	ctx      context.Context
	pipeline *pipeline.Pipeline
	log      *logrus.Entry

	writeMu sync.Mutex

	mu    sync.Mutex
	user  *models.User
	token string
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &client{
		id:   uuid.New().String(),
		srv:  s,
		conn: conn,
		ctx:  ctx,
	}
	c.log = s.log.WithField("client", c.id)
	c.pipeline = pipeline.New(s.backend,
		pipeline.WithLogger(c.log.WithField("component", "pipeline")),
		pipeline.WithPresenter(s.presenter),
		pipeline.Strict(s.debug),
		pipeline.WithUploadOptions(upload.WithMaxBytes(s.maxBytes)),
		pipeline.OnChange(c.publishView),
		pipeline.OnResult(c.saveScan),
	)

	s.clients.Store(c.id, c)
	defer s.clients.Delete(c.id)
	defer c.pipeline.Close()

	c.log.Debug("Client connected")
	c.sendView(c.pipeline.View())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("Error reading message")
			}
			break
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.WithError(err).Debug("Error parsing message")
			c.notify("error", "Invalid message format")
			continue
		}
		c.handleMessage(msg)
	}
	c.log.Debug("Client disconnected")
}

func (c *client) handleMessage(msg inbound) {
	switch msg.Type {
	case "register":
		c.handleRegister(msg.Data)
	case "login":
		c.handleLogin(msg.Data)
	case "resume":
		c.handleResume(msg.Data)
	case "logout":
		c.handleLogout()
	case "select":
		c.handleSelect(msg.Data)
	case "analyze":
		c.handleAnalyze()
	case "reset":
		c.handleReset()
	case "share":
		c.handleShare()
	case "get_history":
		c.handleGetHistory()
	default:
		c.notify("error", "Unknown message type")
	}
}

func (c *client) handleRegister(data json.RawMessage) {
	var reg session.Registration
	if err := decodeData(data, &reg); err != nil {
		c.notify("error", "Invalid registration data")
		return
	}
	user, sess, err := c.srv.sessions.Register(c.ctx, reg)
	if err != nil {
		c.fail(err, "Registration failed. Please try again.")
		return
	}
	c.startSession(user, sess)
	c.notify("success", "Registration successful!")
}

func (c *client) handleLogin(data json.RawMessage) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeData(data, &creds); err != nil {
		c.notify("error", "Invalid login data")
		return
	}
	user, sess, err := c.srv.sessions.Login(c.ctx, creds.Email, creds.Password)
	if err != nil {
		c.fail(err, "Login failed. Please try again.")
		return
	}
	c.startSession(user, sess)
}

func (c *client) handleResume(data json.RawMessage) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeData(data, &req); err != nil {
		c.notify("error", "Invalid session data")
		return
	}
	user, err := c.srv.sessions.Active(c.ctx, req.Token)
	if err != nil {
		c.fail(err, "Could not restore session.")
		return
	}
	c.startSession(user, &models.Session{Token: req.Token, UserID: user.ID})
}

func (c *client) startSession(user *models.User, sess *models.Session) {
	c.mu.Lock()
	c.user = user
	c.token = sess.Token
	c.mu.Unlock()

	c.log.WithField("user", user.ID).Info("Session started")
	c.send("session", sessionPayload{Token: sess.Token, User: user})
	c.sendView(c.pipeline.View())
}

func (c *client) handleLogout() {
	c.mu.Lock()
	token := c.token
	c.user = nil
	c.token = ""
	c.mu.Unlock()

	if err := c.srv.sessions.Logout(c.ctx, token); err != nil {
		c.log.WithError(err).Warn("Error ending session")
	}
	// Reset publishes the now anonymous view
	c.pipeline.Reset()
}

func (c *client) handleSelect(data json.RawMessage) {
	if c.requireUser() == nil {
		return
	}
	var req selectRequest
	if err := decodeData(data, &req); err != nil {
		c.notify("error", "Invalid image data")
		return
	}
	image, err := decodeImage(req.Image)
	if err != nil {
		c.log.WithError(err).Debug("Error decoding image")
		c.notify("error", "Invalid image format")
		return
	}
	if err := c.pipeline.Select(upload.File{Name: req.Name, ContentType: req.MimeType, Data: image}); err != nil {
		c.fail(err, "Could not select image.")
	}
}

func (c *client) handleAnalyze() {
	if c.requireUser() == nil {
		return
	}
	if err := c.pipeline.Analyze(c.ctx); err != nil {
		c.fail(err, pipeline.GenericFailure)
	}
}

func (c *client) handleReset() {
	c.pipeline.Reset()
}

func (c *client) handleShare() {
	text, err := c.pipeline.ShareText()
	if err != nil {
		c.fail(err, "No results to share.")
		return
	}
	c.send("share", map[string]string{"text": text})
}

func (c *client) handleGetHistory() {
	user := c.requireUser()
	if user == nil {
		return
	}
	history, err := c.srv.loadHistory(c.ctx, user.ID, time.Now())
	if err != nil {
		c.log.WithError(err).Error("Error loading history")
		c.notify("error", "Failed to load history")
		return
	}
	c.send("history", history)
}

// publishView forwards pipeline views and raises failures as notifications
func (c *client) publishView(v pipeline.View) {
	c.sendView(v)
	switch {
	case v.State == pipeline.StateFailed && v.Error != "":
		c.notify("error", v.Error)
	case v.Notice != "":
		c.notify("warning", v.Notice)
	}
}

func (c *client) sendView(v pipeline.View) {
	c.send("view", viewPayload{User: c.currentUser(), View: v})
}

// saveScan stores a successful analysis for the logged-in user
func (c *client) saveScan(ctx context.Context, file upload.File, result *models.AnalysisResult) {
	user := c.currentUser()
	if user == nil {
		return
	}
	carbon := result.CarbonFootprint.Float()
	if result.CarbonFootprint == nil && result.Footprint != nil {
		carbon = result.Footprint.TotalCarbon
	}
	unit := result.FootprintUnit
	if unit == "" {
		unit = models.UnitGramsCO2
	}
	scan := &models.ScanRecord{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		ObjectName:      result.ObjectName,
		Material:        result.Material,
		EstimatedWeight: result.EstimatedWeight.Float(),
		CarbonFootprint: carbon,
		FootprintUnit:   unit,
		AltName:         result.AltName,
		ImageType:       file.ContentType,
		ImageData:       file.Data,
		CreatedAt:       time.Now(),
	}
	if err := c.srv.db.SaveScan(ctx, scan); err != nil {
		c.log.WithError(err).Error("Error saving scan")
		c.notify("error", "Failed to save scan")
		return
	}
	c.log.WithField("scan", scan.ID).Debug("Scan saved")
}

func (c *client) currentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *client) requireUser() *models.User {
	user := c.currentUser()
	if user == nil {
		c.notify("error", session.ErrNoSession.Error())
	}
	return user
}

// fail reports err to the user, falling back to a generic message for internal errors
func (c *client) fail(err error, fallback string) {
	msg := userMessage(err)
	if msg == "" {
		c.log.WithError(err).Error(fallback)
		msg = fallback
	}
	c.notify("error", msg)
}

func (c *client) notify(level, message string) {
	c.send("notification", notification{Level: level, Message: message})
}

func (c *client) send(messageType string, data any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(outbound{Type: messageType, Data: data}); err != nil {
		c.log.WithError(err).Debug("Error sending message")
	}
}

var userErrors = []error{
	session.ErrMissingFields,
	session.ErrPasswordMismatch,
	session.ErrPasswordTooShort,
	session.ErrUserExists,
	session.ErrInvalidCredentials,
	session.ErrNoSession,
}

// userMessage returns the user-facing text of err, or "" for internal errors
func userMessage(err error) string {
	var verr *upload.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	for _, known := range userErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ""
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, v)
}

// decodeImage accepts plain base64 or a data URL
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
