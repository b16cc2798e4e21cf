// Package api serves the HTTP side of the game: session lookup, host
// session creation, photo uploads from player devices and join QR codes.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/faceoff/internal/camera"
	"github.com/kiliankoe/faceoff/internal/config"
	"github.com/kiliankoe/faceoff/internal/game"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// Sessions creates rooms and finds their cameras.
type Sessions interface {
	CreateSession() (code string, hostToken string, err error)
	Camera(code string) (*camera.Remote, error)
}

type API struct {
	RM       *game.RoomManager
	Sessions Sessions
	cfg      config.Config
}

func New(rm *game.RoomManager, sessions Sessions, cfg config.Config) *API {
	return &API{RM: rm, Sessions: sessions, cfg: cfg}
}

// RequestLogger logs every non socket request with its status and duration.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		log.Info().Str("method", c.Request.Method).Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	}
}

// HostAuth returns the basic auth middleware for host pages, or nil when no
// credentials are configured.
func (a *API) HostAuth() gin.HandlerFunc {
	if !a.cfg.HostAuth() {
		return nil
	}
	return gin.BasicAuth(gin.Accounts{a.cfg.HostUser: a.cfg.HostPass})
}

func (a *API) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	r.GET("/api/session/active", a.active)
	if auth := a.HostAuth(); auth != nil {
		r.POST("/api/host/create", auth, a.create)
	}
	r.GET("/api/session/:code/photo/:player", a.photo)
	r.GET("/api/session/:code/qr", a.qr)
	r.POST("/api/session/:code/capture/:player", a.upload)
}

func (a *API) active(c *gin.Context) {
	if code, r := a.RM.Active(); r != nil {
		c.JSON(http.StatusOK, gin.H{"sessionCode": code, "session": r.Controller.Snapshot()})
		return
	}
	c.Status(http.StatusNotFound)
}

func (a *API) create(c *gin.Context) {
	code, hostToken, err := a.Sessions.CreateSession()
	if err != nil {
		log.Error().Err(err).Msg("create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	log.Info().Str("code", code).Msg("host create")
	c.JSON(http.StatusOK, gin.H{"sessionCode": code, "hostToken": hostToken})
}

func (a *API) photo(c *gin.Context) {
	r, slot, ok := a.lookup(c)
	if !ok {
		return
	}
	p, ok := r.Controller.Photo(slot)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no_photo"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, p.ContentType, p.Data)
}

// qr encodes the join URL of the session as a PNG.
func (a *API) qr(c *gin.Context) {
	code := c.Param("code")
	if _, err := a.RM.Get(code); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
		return
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	png, err := qrcode.Encode(scheme+"://"+c.Request.Host+"/join/"+code, qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr_failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// upload answers a pending capture with the multipart "photo" field.
func (a *API) upload(c *gin.Context) {
	_, slot, ok := a.lookup(c)
	if !ok {
		return
	}
	cam, err := a.Sessions.Camera(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
		return
	}
	if !cam.Pending(slot) {
		c.JSON(http.StatusConflict, gin.H{"error": "no_pending_capture"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.cfg.MaxPhotoBytes)
	fh, err := c.FormFile("photo")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo_too_large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_photo"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_photo"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_photo"})
		return
	}

	img, err := cam.Deliver(slot, data)
	switch {
	case errors.Is(err, camera.ErrNotAnImage):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not_an_image"})
		return
	case errors.Is(err, camera.ErrNoPendingCapture):
		c.JSON(http.StatusConflict, gin.H{"error": "no_pending_capture"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}
	log.Info().Str("code", c.Param("code")).Stringer("slot", slot).Str("type", img.ContentType).Int("bytes", len(data)).Msg("photo uploaded")
	c.JSON(http.StatusOK, gin.H{"photoId": img.ID, "contentType": img.ContentType})
}

func (a *API) lookup(c *gin.Context) (*game.Room, game.Slot, bool) {
	r, err := a.RM.Get(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
		return nil, 0, false
	}
	n, err := strconv.Atoi(c.Param("player"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_player"})
		return nil, 0, false
	}
	slot, err := game.ParseSlot(n)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_player"})
		return nil, 0, false
	}
	return r, slot, true
}
