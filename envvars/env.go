package envvars

import (
	"log"
	"os"
)

const (
	GCPProject     = "GCP_PROJECT_ID"
	GoogleClientID = "GOOGLE_CLIENT_ID"
	RedisURL       = "REDIS_URL"
	ResendAPIKey   = "RESEND_API_KEY"
	ContactInbox   = "CONTACT_INBOX"
	BackupBucket   = "BACKUP_BUCKET"
	Environment    = "ENVIRONMENT"
	Addr           = "ADDR"
)

const (
	ProductionEnv = "production"
	DevEnv        = "dev"
)

type Env struct {
	GCPProject     string
	GoogleClientID string
	RedisURL       string
	ResendAPIKey   string
	ContactInbox   string
	BackupBucket   string
	Environment    string
	Addr           string
}

func GetEnv() Env {
	project, ok := os.LookupEnv(GCPProject)
	if !ok {
		log.Fatalf("%s required", GCPProject)
	}
	clientID, ok := os.LookupEnv(GoogleClientID)
	if !ok {
		log.Fatalf("%s required", GoogleClientID)
	}
	return Env{
		GCPProject:     project,
		GoogleClientID: clientID,
		RedisURL:       getenv(RedisURL, "redis://localhost:6379/0"),
		ResendAPIKey:   os.Getenv(ResendAPIKey),
		ContactInbox:   os.Getenv(ContactInbox),
		BackupBucket:   getenv(BackupBucket, "basavo-backups"),
		Environment:    getenv(Environment, DevEnv),
		Addr:           getenv(Addr, "0.0.0.0:8080"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func IsProd(e Env) bool {
	return e.Environment == ProductionEnv
}

func IsDev(e Env) bool {
	return e.Environment == DevEnv
}
