package ws

import (
	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/faceoff/internal/camera"
	"github.com/kiliankoe/faceoff/internal/game"
)

// room is the presentation bridge of one session: every notification is a
// broadcast to the sockets in the session's room.
type room struct {
	*game.Readiness
	code   string
	srv    *Server
	camera *camera.Remote
}

func (r *room) emit(event string, payload gin.H) { r.srv.broadcast(r.code, event, payload) }

func (r *room) ConsentRequested(slot game.Slot, title, message string) {
	r.emit("alert:consent", gin.H{"player": slot.Number(), "title": title, "message": message})
}

func (r *room) MultipleFacesDetected() { r.emit("alert:multipleFaces", gin.H{}) }

func (r *room) NoCameraAvailable() { r.emit("alert:noCamera", gin.H{}) }

func (r *room) RevealPhoto(slot game.Slot) {
	r.emit("reveal:photo", gin.H{"player": slot.Number()})
}

func (r *room) RevealScoreButton(slot game.Slot) {
	r.emit("reveal:score", gin.H{"player": slot.Number()})
}

func (r *room) AllResultsRequested(slot game.Slot, text string) {
	r.emit("alert:results", gin.H{"player": slot.Number(), "results": text})
}

func (r *room) SessionChanged(snap game.Snapshot) {
	r.emit("game:state", statePayload(r.code, snap))
}

func (r *room) PhotoRevealReady(slot game.Slot) <-chan struct{} {
	return r.Ready(game.RevealPhoto, slot)
}

func (r *room) ScoreRevealReady(slot game.Slot) <-chan struct{} {
	return r.Ready(game.RevealScore, slot)
}
