package envvars

import (
	"os"
	"reflect"
	"testing"
)

func TestGetEnv(t *testing.T) {
	// Backup and defer restore of environment variables
	backup := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range backup {
			pair := splitEnv(env)
			os.Setenv(pair[0], pair[1])
		}
	}()

	t.Run("all env vars set", func(t *testing.T) {
		os.Clearenv()
		os.Setenv(GCPProject, "test-project")
		os.Setenv(GoogleClientID, "test-client-id")
		os.Setenv(RedisURL, "redis://test:6379/1")
		os.Setenv(ResendAPIKey, "re_test")
		os.Setenv(ContactInbox, "pengurus@basavo.id")
		os.Setenv(BackupBucket, "test-backups")
		os.Setenv(Environment, "production")
		os.Setenv(Addr, "0.0.0.0:9090")

		expected := Env{
			GCPProject:     "test-project",
			GoogleClientID: "test-client-id",
			RedisURL:       "redis://test:6379/1",
			ResendAPIKey:   "re_test",
			ContactInbox:   "pengurus@basavo.id",
			BackupBucket:   "test-backups",
			Environment:    ProductionEnv,
			Addr:           "0.0.0.0:9090",
		}

		if got := GetEnv(); !reflect.DeepEqual(got, expected) {
			t.Errorf("GetEnv() = %v, want %v", got, expected)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		os.Clearenv()
		os.Setenv(GCPProject, "test-project")
		os.Setenv(GoogleClientID, "test-client-id")

		got := GetEnv()
		if got.Environment != DevEnv {
			t.Errorf("Expected environment to default to dev, got %s", got.Environment)
		}
		if got.Addr != "0.0.0.0:8080" {
			t.Errorf("Expected addr to default to 0.0.0.0:8080, got %s", got.Addr)
		}
		if got.RedisURL != "redis://localhost:6379/0" {
			t.Errorf("Expected default redis url, got %s", got.RedisURL)
		}
	})
}

func TestIsProd(t *testing.T) {
	tests := []struct {
		name string
		env  Env
		want bool
	}{
		{"production env", Env{Environment: ProductionEnv}, true},
		{"dev env", Env{Environment: DevEnv}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsProd(tt.env); got != tt.want {
				t.Errorf("IsProd() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDev(t *testing.T) {
	tests := []struct {
		name string
		env  Env
		want bool
	}{
		{"production env", Env{Environment: ProductionEnv}, false},
		{"dev env", Env{Environment: DevEnv}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDev(tt.env); got != tt.want {
				t.Errorf("IsDev() = %v, want %v", got, tt.want)
			}
		})
	}
}

func splitEnv(env string) []string {
	var s []string
	for i := 0; i < len(env); i++ {
		if env[i] == '=' {
			s = append(s, env[:i])
			s = append(s, env[i+1:])
			return s
		}
	}
	// Return slice with empty strings if no '=' is found
	return []string{"", ""}
}
