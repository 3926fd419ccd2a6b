package docker_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type ComposeFile struct {
	Services map[string]Service `yaml:"services"`
}

type Service struct {
	Image       string         `yaml:"image"`
	Build       *Build         `yaml:"build"`
	Ports       []string       `yaml:"ports"`
	Environment []string       `yaml:"environment"`
	DependsOn   map[string]any `yaml:"depends_on"`
	Healthcheck *Healthcheck   `yaml:"healthcheck"`
	Restart     string         `yaml:"restart"`
}

type Build struct {
	Context string `yaml:"context"`
}

type Healthcheck struct {
	Test     []string `yaml:"test"`
	Interval string   `yaml:"interval"`
	Timeout  string   `yaml:"timeout"`
	Retries  int      `yaml:"retries"`
}

func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	// From internal/docker/ go up 2 levels to project root
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

func readCompose(t *testing.T) ComposeFile {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(projectRoot(), "docker-compose.yml"))
	if err != nil {
		t.Fatalf("failed to read docker-compose.yml: %v", err)
	}
	var compose ComposeFile
	if err := yaml.Unmarshal(data, &compose); err != nil {
		t.Fatalf("failed to parse docker-compose.yml: %v", err)
	}
	return compose
}

func TestComposeHasAllServices(t *testing.T) {
	compose := readCompose(t)

	for _, name := range []string{"backend", "redis"} {
		if _, ok := compose.Services[name]; !ok {
			t.Errorf("expected service %q in docker-compose.yml", name)
		}
	}
}

func TestComposeBackendConfig(t *testing.T) {
	compose := readCompose(t)
	backend := compose.Services["backend"]

	if backend.Build == nil {
		t.Fatal("expected backend to be built from the repo")
	}

	foundRedis := false
	for _, env := range backend.Environment {
		if strings.HasPrefix(env, "REDIS_ADDR=") {
			foundRedis = true
			if !strings.Contains(env, "redis:6379") {
				t.Errorf("expected REDIS_ADDR to point at the redis service, got %q", env)
			}
		}
	}
	if !foundRedis {
		t.Error("expected backend to carry REDIS_ADDR")
	}

	if _, ok := backend.DependsOn["redis"]; !ok {
		t.Error("expected backend to depend on redis")
	}
}

func TestComposeRedisHealthcheck(t *testing.T) {
	compose := readCompose(t)
	redis := compose.Services["redis"]

	if !strings.HasPrefix(redis.Image, "redis:") {
		t.Errorf("expected a redis image, got %q", redis.Image)
	}
	if redis.Healthcheck == nil {
		t.Fatal("expected redis to have a healthcheck")
	}
	if len(redis.Healthcheck.Test) == 0 || !strings.Contains(strings.Join(redis.Healthcheck.Test, " "), "redis-cli") {
		t.Errorf("expected redis-cli healthcheck, got %v", redis.Healthcheck.Test)
	}
}
