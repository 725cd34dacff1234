package main

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"basavo/apperr"
	"basavo/authz"
	"basavo/confirm"
	"basavo/services/contact"
	"basavo/services/export"
	"basavo/services/ledger"
	"basavo/services/member"
	"basavo/services/schedule"
	"basavo/services/session"
	"basavo/services/stats"
	"basavo/services/user"
	"basavo/validator"

	"github.com/gin-gonic/gin"
)

const confirmHeader = "X-Confirm-Token"

// StatsStream opens a live dashboard stream; main wires it to the
// collection listeners.
type StatsStream func(ctx context.Context) (<-chan stats.Overview, func())

type Server struct {
	Sessions      session.Service
	Users         user.Service
	Members       member.Service
	Ledger        ledger.Service
	Schedule      schedule.Service
	Contacts      contact.Service
	Stats         stats.Service
	Export        export.Service
	Stream        StatsStream
	Confirmations *confirm.Manager
}

func NewServer(
	sessions session.Service,
	users user.Service,
	members member.Service,
	book ledger.Service,
	agenda schedule.Service,
	contacts contact.Service,
	figures stats.Service,
	backups export.Service,
) *Server {
	return &Server{
		Sessions:      sessions,
		Users:         users,
		Members:       members,
		Ledger:        book,
		Schedule:      agenda,
		Contacts:      contacts,
		Stats:         figures,
		Export:        backups,
		Confirmations: confirm.NewManager(),
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsRemote(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream failure"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// resolve turns the verified bearer identity into a Session. Handlers under
// the authenticated group can rely on a non-nil session.
func (s *Server) resolve(c *gin.Context) (*session.Session, bool) {
	id, ok := validator.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return nil, false
	}
	sess, err := s.Sessions.Resolve(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return sess, true
}

// confirmed redeems the confirmation header, if present, against the exact
// action and target of this request.
func (s *Server) confirmed(c *gin.Context, sess *session.Session, action authz.Action, targetID string) bool {
	token := c.GetHeader(confirmHeader)
	if token == "" {
		return false
	}
	return s.Confirmations.Confirm(token, sess.UID, action, targetID)
}

// pending answers a destructive request that arrived without a valid token:
// the mutation did not run, and the issued token confirms exactly this
// action on this target.
func (s *Server) pending(c *gin.Context, sess *session.Session, action authz.Action, targetID string) {
	token := s.Confirmations.Request(sess.UID, action, targetID)
	c.JSON(http.StatusAccepted, gin.H{
		"confirmToken": token,
		"expiresIn":    int(confirm.TokenTTL.Seconds()),
	})
}

func (s *Server) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// --- public reads ---

func (s *Server) ListSchedule(c *gin.Context) {
	events, err := s.Schedule.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ListMembers serves the public roster. Emails are always masked here; the
// admin panel uses the authenticated variant.
func (s *Server) ListMembers(c *gin.Context) {
	members, err := s.Members.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if c.Query("official") == "true" {
		members = member.Official(members)
	}
	members = member.Filter(members, c.Query("q"))
	c.JSON(http.StatusOK, member.Masked(members))
}

func (s *Server) SubmitContact(c *gin.Context) {
	var input contact.NewMessage
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	m, err := s.Contacts.Submit(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// --- authenticated ---

func (s *Server) Login(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) Logout(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	if err := s.Sessions.SignOut(c.Request.Context(), sess.UID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signedOut": true})
}

func (s *Server) Me(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) GetStats(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	overview, err := s.Stats.Overview(c.Request.Context(), sess.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// StreamStats serves the dashboard figures as a server-sent event stream,
// recomputed on every collection snapshot. The stream stays open until the
// client disconnects or the listeners fail terminally.
func (s *Server) StreamStats(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	if !authz.Can(sess.Role, authz.ActionViewAdminStats) {
		writeError(c, apperr.Authorization(string(authz.ActionViewAdminStats)))
		return
	}

	ctx := c.Request.Context()
	out, release := s.Stream(ctx)
	defer release()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case overview, open := <-out:
			if !open {
				return false
			}
			c.SSEvent("stats", overview)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// ListMembersFull serves the roster with emails unmasked when the viewer
// holds the grant, masked otherwise.
func (s *Server) ListMembersFull(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	members, err := s.Members.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if !authz.Can(sess.Role, authz.ActionViewFullEmail) {
		members = member.Masked(members)
	}
	c.JSON(http.StatusOK, members)
}

// --- members ---

func (s *Server) CreateMember(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	var input member.NewMember
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	m, err := s.Members.Create(c.Request.Context(), sess.Actor, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) UpdateMember(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	var input member.NewMember
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := s.Members.Update(c.Request.Context(), sess.Actor, c.Param("id"), input); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("id")})
}

func (s *Server) SetMemberOfficial(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	id := c.Param("id")
	done, err := s.Members.SetOfficial(c.Request.Context(), sess.Actor, id,
		s.confirmed(c, sess, authz.ActionSetMemberOfficial, id))
	if err != nil {
		writeError(c, err)
		return
	}
	if !done {
		s.pending(c, sess, authz.ActionSetMemberOfficial, id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"official": id})
}

func (s *Server) DeleteMember(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	id := c.Param("id")
	done, err := s.Members.Delete(c.Request.Context(), sess.Actor, id,
		s.confirmed(c, sess, authz.ActionDeleteMember, id))
	if err != nil {
		writeError(c, err)
		return
	}
	if !done {
		s.pending(c, sess, authz.ActionDeleteMember, id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// --- kas ---

func (s *Server) ListLedger(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	entries, err := s.Ledger.GetAll(c.Request.Context(), sess.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) CreateLedgerEntry(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	var input ledger.NewEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	e, err := s.Ledger.Create(c.Request.Context(), sess.Actor, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) DeleteLedgerEntry(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	id := c.Param("id")
	done, err := s.Ledger.Delete(c.Request.Context(), sess.Actor, id,
		s.confirmed(c, sess, authz.ActionManageLedger, id))
	if err != nil {
		writeError(c, err)
		return
	}
	if !done {
		s.pending(c, sess, authz.ActionManageLedger, id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// --- jadwal ---

func (s *Server) CreateEvent(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	var input schedule.NewEvent
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	e, err := s.Schedule.Create(c.Request.Context(), sess.Actor, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) UpdateEvent(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	var input schedule.NewEvent
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := s.Schedule.Update(c.Request.Context(), sess.Actor, c.Param("id"), input); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("id")})
}

func (s *Server) DeleteEvent(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	id := c.Param("id")
	done, err := s.Schedule.Delete(c.Request.Context(), sess.Actor, id,
		s.confirmed(c, sess, authz.ActionManageSchedule, id))
	if err != nil {
		writeError(c, err)
		return
	}
	if !done {
		s.pending(c, sess, authz.ActionManageSchedule, id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// --- users ---

func (s *Server) ListUsers(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	users, err := s.Users.GetAll(c.Request.Context(), sess.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) UpdateUserRole(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := s.Users.UpdateRole(c.Request.Context(), sess.Actor, c.Param("id"), body.Role); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("id")})
}

func (s *Server) DeleteUser(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	id := c.Param("id")
	done, err := s.Users.Delete(c.Request.Context(), sess.Actor, id,
		s.confirmed(c, sess, authz.ActionManageUsers, id))
	if err != nil {
		writeError(c, err)
		return
	}
	if !done {
		s.pending(c, sess, authz.ActionManageUsers, id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// --- contact inbox ---

func (s *Server) ListContacts(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	messages, err := s.Contacts.List(c.Request.Context(), sess.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) DeleteContact(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	id := c.Param("id")
	done, err := s.Contacts.Delete(c.Request.Context(), sess.Actor, id,
		s.confirmed(c, sess, authz.ActionManageContacts, id))
	if err != nil {
		writeError(c, err)
		return
	}
	if !done {
		s.pending(c, sess, authz.ActionManageContacts, id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// --- confirmations & export ---

// ConfirmPending redeems a token issued by an earlier destructive request
// and runs the action it was bound to. Only destructive actions ever issue
// tokens, so each action maps to its delete (or promote) unambiguously.
func (s *Server) ConfirmPending(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	action, target, ok := s.Confirmations.Redeem(c.Param("token"), sess.UID)
	if !ok {
		c.JSON(http.StatusGone, gin.H{"error": "token expired or unknown"})
		return
	}

	var (
		done bool
		err  error
	)
	switch action {
	case authz.ActionSetMemberOfficial:
		done, err = s.Members.SetOfficial(c.Request.Context(), sess.Actor, target, true)
	case authz.ActionDeleteMember:
		done, err = s.Members.Delete(c.Request.Context(), sess.Actor, target, true)
	case authz.ActionManageLedger:
		done, err = s.Ledger.Delete(c.Request.Context(), sess.Actor, target, true)
	case authz.ActionManageSchedule:
		done, err = s.Schedule.Delete(c.Request.Context(), sess.Actor, target, true)
	case authz.ActionManageUsers:
		done, err = s.Users.Delete(c.Request.Context(), sess.Actor, target, true)
	case authz.ActionManageContacts:
		done, err = s.Contacts.Delete(c.Request.Context(), sess.Actor, target, true)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unconfirmable action"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"done": done, "target": target})
}

// CancelPending dismisses a pending confirmation without running it.
func (s *Server) CancelPending(c *gin.Context) {
	if _, ok := s.resolve(c); !ok {
		return
	}
	s.Confirmations.Cancel(c.Param("token"))
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (s *Server) RunExport(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	object, err := s.Export.Run(c.Request.Context(), sess.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"object": object})
}

// FetchExport serves a previously written backup object back to the admin.
func (s *Server) FetchExport(c *gin.Context) {
	sess, ok := s.resolve(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.Export.Fetch(c.Request.Context(), sess.Actor, c.Param("object"), &buf); err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// Register wires every route onto the engine. Public routes come first;
// everything under the authenticated group requires a verified bearer
// identity, and the services enforce the role gate themselves.
func (s *Server) Register(r *gin.Engine, v *validator.Verifier) {
	r.GET("/ping", s.Ping)
	r.GET("/jadwal", s.ListSchedule)
	r.GET("/members", s.ListMembers)
	r.POST("/contact", s.SubmitContact)

	authed := r.Group("/", validator.Middleware(v))
	authed.POST("/login", s.Login)
	authed.POST("/logout", s.Logout)
	authed.GET("/me", s.Me)
	authed.GET("/stats", s.GetStats)
	authed.GET("/stats/stream", s.StreamStats)
	authed.GET("/members/full", s.ListMembersFull)

	authed.POST("/members", s.CreateMember)
	authed.PUT("/members/:id", s.UpdateMember)
	authed.POST("/members/:id/official", s.SetMemberOfficial)
	authed.DELETE("/members/:id", s.DeleteMember)

	authed.GET("/kas", s.ListLedger)
	authed.POST("/kas", s.CreateLedgerEntry)
	authed.DELETE("/kas/:id", s.DeleteLedgerEntry)

	authed.POST("/jadwal", s.CreateEvent)
	authed.PUT("/jadwal/:id", s.UpdateEvent)
	authed.DELETE("/jadwal/:id", s.DeleteEvent)

	authed.GET("/users", s.ListUsers)
	authed.PUT("/users/:id/role", s.UpdateUserRole)
	authed.DELETE("/users/:id", s.DeleteUser)

	authed.GET("/contact", s.ListContacts)
	authed.DELETE("/contact/:id", s.DeleteContact)

	authed.POST("/confirmations/:token", s.ConfirmPending)
	authed.DELETE("/confirmations/:token", s.CancelPending)

	authed.POST("/export", s.RunExport)
	authed.GET("/export/:object", s.FetchExport)
}
