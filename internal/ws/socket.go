package ws

import (
	"encoding/base64"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/faceoff/internal/ai"
	"github.com/kiliankoe/faceoff/internal/camera"
	"github.com/kiliankoe/faceoff/internal/config"
	"github.com/kiliankoe/faceoff/internal/game"
	"github.com/kiliankoe/faceoff/internal/telemetry"
	"github.com/rs/zerolog/log"
)

type ConnCtx struct {
	Code  string
	Token string
	Role  string // "host" | "display"
}

func (c *ConnCtx) host() bool { return c.Role == "host" }

// conn is the part of socketio.Conn the handlers use.
type conn interface {
	ID() string
	Context() interface{}
	SetContext(ctx interface{})
	Emit(event string, v ...interface{})
	Join(room string)
	Leave(room string)
}

type broadcaster interface {
	BroadcastToRoom(namespace, room, event string, args ...interface{}) bool
}

type Server struct {
	RM     *game.RoomManager
	cfg    config.Config
	scorer ai.Scorer
	tel    *telemetry.Logger

	mu      sync.Mutex
	members map[string]map[string]conn // sessionCode -> socketID -> conn
	rooms   map[string]*room
	out     broadcaster
}

func New(rm *game.RoomManager, cfg config.Config, scorer ai.Scorer, tel *telemetry.Logger) *Server {
	if tel == nil {
		tel = telemetry.New(log.Logger)
	}
	srv := &Server{
		RM:      rm,
		cfg:     cfg,
		scorer:  scorer,
		tel:     tel,
		members: make(map[string]map[string]conn),
		rooms:   make(map[string]*room),
	}
	rm.OnClose(srv.roomClosed)
	return srv
}

// CreateSession opens a room wired to this server's sockets.
func (srv *Server) CreateSession() (code string, hostToken string, err error) {
	return srv.RM.CreateSession(srv.cfg.Session(), srv.wire)
}

// wire runs under the room manager's lock.
func (srv *Server) wire(code string) game.Deps {
	rb := &room{Readiness: game.NewReadiness(), code: code, srv: srv}
	rb.camera = camera.New(func(slot game.Slot) {
		srv.broadcast(code, "capture:requested", gin.H{"player": slot.Number()})
	})
	srv.mu.Lock()
	srv.rooms[code] = rb
	srv.mu.Unlock()

	l := log.With().Str("code", code).Logger()
	return game.Deps{
		Bridge:  rb,
		Camera:  rb.camera,
		Scorer:  srv.scorer,
		Tracker: srv.tel.With("code", code),
		Log:     &l,
	}
}

// Camera returns the remote camera of the room with the given code.
func (srv *Server) Camera(code string) (*camera.Remote, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	rb := srv.rooms[code]
	if rb == nil {
		return nil, game.ErrSessionNotFound
	}
	return rb.camera, nil
}

func (srv *Server) roomClosed(code string) {
	srv.mu.Lock()
	delete(srv.rooms, code)
	conns := srv.members[code]
	delete(srv.members, code)
	srv.mu.Unlock()

	for _, c := range conns {
		c.Emit("game:closed", gin.H{"sessionCode": code})
		c.Leave(code)
	}
	log.Info().Str("code", code).Msg("room closed")
}

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.out = io

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "game:create", func(s socketio.Conn) map[string]any {
		return srv.onCreate(s)
	})
	io.OnEvent("/", "game:join", func(s socketio.Conn, p joinPayload) map[string]any {
		return srv.onJoin(s, p)
	})
	io.OnEvent("/", "game:resume", func(s socketio.Conn, p joinPayload) map[string]any {
		return srv.onResume(s, p)
	})
	io.OnEvent("/", "reveal:subscribe", func(s socketio.Conn, p revealPayload) map[string]any {
		return srv.onRevealSubscribe(s, p)
	})
	io.OnEvent("/", "turn:take", func(s socketio.Conn, p playerPayload) map[string]any {
		return srv.onTurnTake(s, p)
	})
	io.OnEvent("/", "turn:consent", func(s socketio.Conn, p consentPayload) map[string]any {
		return srv.onConsent(s, p)
	})
	io.OnEvent("/", "capture:cancel", func(s socketio.Conn, p playerPayload) map[string]any {
		return srv.onCaptureEnd(s, p, false)
	})
	io.OnEvent("/", "capture:unavailable", func(s socketio.Conn, p playerPayload) map[string]any {
		return srv.onCaptureEnd(s, p, true)
	})
	io.OnEvent("/", "session:reset", func(s socketio.Conn) map[string]any {
		return srv.onReset(s)
	})
	io.OnEvent("/", "results:show", func(s socketio.Conn, p playerPayload) map[string]any {
		return srv.onResults(s, p)
	})
	if srv.cfg.DemoMode {
		io.OnEvent("/", "debug:samplePhoto", func(s socketio.Conn, p samplePayload) map[string]any {
			return srv.onSamplePhoto(s, p)
		})
	}

	io.OnError("/", func(s socketio.Conn, e error) {
		if s == nil {
			log.Error().Err(e).Msg("socket error")
			return
		}
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Code != "" {
			srv.removeMember(ctx.Code, s)
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

type joinPayload struct {
	SessionCode string `json:"sessionCode"`
	Token       string `json:"token"`
}

type playerPayload struct {
	Player int `json:"player"`
}

type revealPayload struct {
	Reveal string `json:"reveal"`
	Player int    `json:"player"`
}

type consentPayload struct {
	Accepted bool `json:"accepted"`
}

type samplePayload struct {
	Player int    `json:"player"`
	Photo  string `json:"photo"` // base64
}

func (srv *Server) onCreate(s conn) map[string]any {
	if srv.cfg.HostAuth() {
		return srv.err(s, "unauthorized", "Create sessions through the host page")
	}
	code, hostToken, err := srv.CreateSession()
	if err != nil {
		return srv.fail(s, err)
	}
	srv.attach(s, &ConnCtx{Code: code, Token: hostToken, Role: "host"})
	log.Info().Str("sid", s.ID()).Str("code", code).Msg("game:create")
	srv.emitStateTo(s, code)
	return map[string]any{"sessionCode": code, "hostToken": hostToken}
}

func (srv *Server) onJoin(s conn, p joinPayload) map[string]any {
	if _, err := srv.RM.Get(p.SessionCode); err != nil {
		return srv.fail(s, err)
	}
	srv.attach(s, &ConnCtx{Code: p.SessionCode, Role: "display"})
	log.Info().Str("sid", s.ID()).Str("code", p.SessionCode).Msg("game:join")
	srv.emitStateTo(s, p.SessionCode)
	return map[string]any{"ok": true}
}

// onResume re-attaches a host after reconnecting.
func (srv *Server) onResume(s conn, p joinPayload) map[string]any {
	r, err := srv.RM.Get(p.SessionCode)
	if err != nil {
		return srv.fail(s, err)
	}
	if err := r.Authorize(p.Token); err != nil {
		return srv.fail(s, err)
	}
	srv.attach(s, &ConnCtx{Code: p.SessionCode, Token: p.Token, Role: "host"})
	log.Info().Str("sid", s.ID()).Str("code", p.SessionCode).Msg("game:resume")
	srv.emitStateTo(s, p.SessionCode)
	return map[string]any{"ok": true}
}

func (srv *Server) onRevealSubscribe(s conn, p revealPayload) map[string]any {
	ctx := connCtx(s)
	rb := srv.room(ctx.Code)
	if rb == nil {
		return srv.fail(s, game.ErrSessionNotFound)
	}
	slot, err := game.ParseSlot(p.Player)
	if err != nil {
		return srv.fail(s, err)
	}
	reveal := game.Reveal(p.Reveal)
	if !reveal.Valid() {
		return srv.err(s, "bad_request", "Unknown reveal")
	}
	if rb.MarkSubscribed(reveal, slot) {
		log.Debug().Str("code", ctx.Code).Str("reveal", p.Reveal).Stringer("slot", slot).Msg("reveal:subscribe")
	}
	return map[string]any{"ok": true}
}

func (srv *Server) onTurnTake(s conn, p playerPayload) map[string]any {
	ctx := connCtx(s)
	r, err := srv.RM.Get(ctx.Code)
	if err != nil {
		return srv.fail(s, err)
	}
	slot, err := game.ParseSlot(p.Player)
	if err != nil {
		return srv.fail(s, err)
	}
	if tr := r.Controller.Track(slot); !tr.CaptureEnabled {
		return srv.fail(s, game.ErrCaptureDisabled)
	}
	go func() {
		switch err := r.TakeTurn(slot); {
		case err == nil:
		case errors.Is(err, game.ErrCaptureDisabled), errors.Is(err, game.ErrConsentPending):
			srv.fail(s, err)
		default:
			log.Warn().Err(err).Str("code", ctx.Code).Stringer("slot", slot).Msg("turn ended")
		}
	}()
	log.Info().Str("code", ctx.Code).Stringer("slot", slot).Msg("turn:take")
	return map[string]any{"ok": true}
}

func (srv *Server) onConsent(s conn, p consentPayload) map[string]any {
	r, err := srv.RM.Get(connCtx(s).Code)
	if err != nil {
		return srv.fail(s, err)
	}
	if err := r.Controller.SubmitConsentDecision(p.Accepted); err != nil {
		return srv.fail(s, err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) onCaptureEnd(s conn, p playerPayload, unavailable bool) map[string]any {
	rb := srv.room(connCtx(s).Code)
	if rb == nil {
		return srv.fail(s, game.ErrSessionNotFound)
	}
	slot, err := game.ParseSlot(p.Player)
	if err != nil {
		return srv.fail(s, err)
	}
	if unavailable {
		err = rb.camera.Unavailable(slot)
	} else {
		err = rb.camera.Cancel(slot)
	}
	if err != nil {
		return srv.fail(s, err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) onReset(s conn) map[string]any {
	ctx := connCtx(s)
	r, err := srv.RM.Get(ctx.Code)
	if err != nil {
		return srv.fail(s, err)
	}
	if !ctx.host() {
		return srv.fail(s, game.ErrNotHost)
	}
	if err := r.Controller.Reset(); err != nil {
		return srv.fail(s, err)
	}
	return map[string]any{"ok": true, "emotion": r.Controller.Emotion().Label()}
}

func (srv *Server) onResults(s conn, p playerPayload) map[string]any {
	r, err := srv.RM.Get(connCtx(s).Code)
	if err != nil {
		return srv.fail(s, err)
	}
	slot, err := game.ParseSlot(p.Player)
	if err != nil {
		return srv.fail(s, err)
	}
	text, err := r.Controller.ShowFullResults(slot)
	if err != nil {
		return srv.fail(s, err)
	}
	return map[string]any{"results": text}
}

func (srv *Server) onSamplePhoto(s conn, p samplePayload) map[string]any {
	r, err := srv.RM.Get(connCtx(s).Code)
	if err != nil {
		return srv.fail(s, err)
	}
	slot, err := game.ParseSlot(p.Player)
	if err != nil {
		return srv.fail(s, err)
	}
	data, err := base64.StdEncoding.DecodeString(p.Photo)
	if err != nil || len(data) == 0 {
		return srv.fail(s, game.ErrNoPhoto)
	}
	img, err := camera.Sniff(data)
	if err != nil {
		return srv.fail(s, err)
	}
	if err := r.Controller.ApplySamplePhoto(slot, img); err != nil {
		return srv.fail(s, err)
	}
	return map[string]any{"ok": true}
}

func connCtx(s conn) *ConnCtx {
	if ctx, ok := s.Context().(*ConnCtx); ok && ctx != nil {
		return ctx
	}
	return &ConnCtx{}
}

func (srv *Server) attach(s conn, ctx *ConnCtx) {
	if old := connCtx(s); old.Code != "" && old.Code != ctx.Code {
		srv.removeMember(old.Code, s)
		s.Leave(old.Code)
	}
	s.SetContext(ctx)
	s.Join(ctx.Code)
	srv.addMember(ctx.Code, s)
}

func (srv *Server) room(code string) *room {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.rooms[code]
}

func (srv *Server) addMember(code string, c conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]conn)
	}
	srv.members[code][c.ID()] = c
}

// removeMember drops c from the room. Once the last member is gone the room's
// reveal listeners are forgotten, so a reloaded page has to subscribe again.
func (srv *Server) removeMember(code string, c conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	m := srv.members[code]
	if m == nil {
		return
	}
	delete(m, c.ID())
	if len(m) == 0 {
		if rb := srv.rooms[code]; rb != nil {
			rb.Clear()
			log.Debug().Str("code", code).Msg("reveal listeners cleared")
		}
	}
}

func (srv *Server) broadcast(code, event string, payload any) {
	if srv.out == nil {
		return
	}
	srv.out.BroadcastToRoom("/", code, event, payload)
}

// emitStateTo sends the room's current state to one connection.
func (srv *Server) emitStateTo(s conn, code string) {
	r, err := srv.RM.Get(code)
	if err != nil {
		return
	}
	payload := statePayload(code, r.Controller.Snapshot())
	payload["you"] = gin.H{"role": connCtx(s).Role}
	s.Emit("game:state", payload)
}

func statePayload(code string, snap game.Snapshot) gin.H {
	return gin.H{"sessionCode": code, "session": snap}
}

// fail maps a domain error to an error ack.
func (srv *Server) fail(s conn, err error) map[string]any {
	code, message := errorCode(err)
	return srv.err(s, code, message)
}

func (srv *Server) err(s conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}

func errorCode(err error) (string, string) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return "session_not_found", "Session not found"
	case errors.Is(err, game.ErrNotHost):
		return "unauthorized", "Invalid host token"
	case errors.Is(err, game.ErrInvalidSlot):
		return "bad_request", "Unknown player"
	case errors.Is(err, game.ErrCaptureDisabled):
		return "capture_disabled", "That player cannot take a photo right now"
	case errors.Is(err, game.ErrConsentPending):
		return "consent_pending", "Another player is being asked"
	case errors.Is(err, game.ErrResetUnavailable):
		return "reset_unavailable", "Wait for scoring to finish"
	case errors.Is(err, game.ErrNoPendingConsent):
		return "no_pending_consent", "Nothing to answer"
	case errors.Is(err, game.ErrDecisionAlreadySubmitted):
		return "already_answered", "Already answered"
	case errors.Is(err, camera.ErrNoPendingCapture):
		return "no_pending_capture", "No photo was requested"
	case errors.Is(err, camera.ErrNotAnImage), errors.Is(err, game.ErrNoPhoto):
		return "bad_photo", "Upload a photo"
	default:
		return "bad_request", err.Error()
	}
}
