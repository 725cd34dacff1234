package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"basavo/clients/gcp"
	"basavo/envvars"
	"basavo/notify"
	"basavo/services/contact"
	"basavo/services/export"
	"basavo/services/ledger"
	"basavo/services/member"
	"basavo/services/schedule"
	"basavo/services/session"
	"basavo/services/stats"
	"basavo/services/user"
	"basavo/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	env := envvars.GetEnv()
	ctx := context.Background()

	db := gcp.CreateFirestore(ctx, env.GCPProject)
	defer db.Close()

	states, err := session.NewRedisStore(env.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer states.Close()

	notifier := notify.NewLogNotifier()

	memberStore := member.NewFirestoreStore(db)
	ledgerStore := ledger.NewFirestoreStore(db)
	scheduleStore := schedule.NewFirestoreStore(db)

	users := user.NewService(user.NewFirestoreStore(db), notifier)
	sessions := session.NewService(users, states)
	members := member.NewService(memberStore, notifier)
	book := ledger.NewService(ledgerStore, notifier)
	agenda := schedule.NewService(scheduleStore, notifier)
	figures := stats.NewService(memberStore, ledgerStore, scheduleStore)
	backups := export.NewService(memberStore, ledgerStore, env.BackupBucket)

	var mailer contact.Mailer
	if env.ResendAPIKey != "" && env.ContactInbox != "" {
		mailer = contact.NewResendMailer(env.ResendAPIKey, "noreply@basavo.id", env.ContactInbox)
	} else {
		slog.Warn("contact mail forwarding disabled, RESEND_API_KEY or CONTACT_INBOX unset")
	}
	contacts := contact.NewService(contact.NewFirestoreStore(db), mailer, notifier)

	server := NewServer(sessions, users, members, book, agenda, contacts, figures, backups)
	server.Stream = func(ctx context.Context) (<-chan stats.Overview, func()) {
		return stats.Track(ctx, memberStore, ledgerStore, scheduleStore)
	}

	if envvars.IsProd(env) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.Default())

	v := validator.NewVerifier(env.GoogleClientID)
	server.Register(r, v)

	s := &http.Server{
		Handler: r,
		Addr:    env.Addr,
	}

	slog.With("addr", env.Addr).Info("starting HTTP server")
	log.Fatal(s.ListenAndServe())
}
