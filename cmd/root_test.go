package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/knowledge"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDecodeConfigDefaults(t *testing.T) {
	config, err := decodeConfig(newTestViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Analyze.Workers != 4 || config.Analyze.Output != outputCard {
		t.Fatalf("unexpected analyze defaults: %+v", config.Analyze)
	}
	if config.Server.Listen != ":5000" || config.Server.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected server defaults: %+v", config.Server)
	}
	if config.Server.ShutdownTimeout != 10*time.Second || config.Server.ResponseDelay != 0 {
		t.Fatalf("unexpected server timings: %+v", config.Server)
	}
	if len(config.Server.AllowedOrigins) != 1 || config.Server.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected allowed origins: %v", config.Server.AllowedOrigins)
	}
	if config.AI.Gemini.Model != "gemini-2.5-flash" || config.AI.Gemini.MaxRetries != 3 {
		t.Fatalf("unexpected gemini defaults: %+v", config.AI.Gemini)
	}
}

func TestDecodeConfigFromYAML(t *testing.T) {
	v := newTestViper()
	v.SetConfigType("yaml")

	config := `
analyze:
  workers: 8
  output: json
screening:
  minimum-score: 70
  roles: [Backend Developer]
  exclude-paths: [/tmp/old.pdf]
server:
  listen: 127.0.0.1:8080
  response-delay: 2s
`
	if err := v.ReadConfig(strings.NewReader(config)); err != nil {
		t.Fatalf("read config: %v", err)
	}

	got, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Analyze.Workers != 8 || got.Analyze.Output != outputJSON {
		t.Fatalf("unexpected analyze config: %+v", got.Analyze)
	}
	if got.Screening.MinimumScore != 70 || len(got.Screening.Roles) != 1 || len(got.Screening.ExcludePaths) != 1 {
		t.Fatalf("unexpected screening config: %+v", got.Screening)
	}
	if got.Server.Listen != "127.0.0.1:8080" || got.Server.ResponseDelay != 2*time.Second {
		t.Fatalf("unexpected server config: %+v", got.Server)
	}
}

func TestDecodeConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "no workers", key: "analyze.workers", value: 0},
		{name: "unknown output", key: "analyze.output", value: "xml"},
		{name: "score above 100", key: "screening.minimum-score", value: 101},
		{name: "empty listen", key: "server.listen", value: ""},
		{name: "zero upload limit", key: "server.max-upload-bytes", value: 0},
		{name: "unknown provider", key: "ai.provider", value: "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := newTestViper()
			v.Set(tt.key, tt.value)

			if _, err := decodeConfig(v); err == nil {
				t.Fatalf("expected validation error for %s=%v", tt.key, tt.value)
			}
		})
	}
}

func TestCollectPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.docx", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	single := filepath.Join(dir, "b.pdf")

	paths, err := collectPaths([]string{single, dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{single, filepath.Join(dir, "a.docx"), filepath.Join(dir, "b.pdf")}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, paths)
	}

	if _, err := collectPaths([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for a missing path")
	}
}

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.txt")
	if err := os.WriteFile(path, []byte("Experience and education"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := readDocument(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MediaType != "text/plain" || doc.Filename != "cv.txt" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	doc, err = readDocument(path, " application/pdf ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MediaType != "application/pdf" {
		t.Fatalf("expected the given media type, got %q", doc.MediaType)
	}
}

func TestDetectMediaType(t *testing.T) {
	if got := detectMediaType([]byte("%PDF-1.7\n%âãÏÓ\n")); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got)
	}
	if got := detectMediaType([]byte("plain words")); got != "text/plain" {
		t.Fatalf("expected parameters to be stripped, got %q", got)
	}
}

func TestKnowledgeCommandRoundTrip(t *testing.T) {
	var out bytes.Buffer
	knowledgeCmd.SetOut(&out)
	t.Cleanup(func() { knowledgeCmd.SetOut(nil) })

	if err := knowledgeCmd.RunE(knowledgeCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kb, err := knowledge.Parse(out.Bytes())
	if err != nil {
		t.Fatalf("dumped knowledge does not parse: %v\n%s", err, out.String())
	}

	def := knowledge.Default()
	if len(kb.Roles()) != len(def.Roles()) || len(kb.Skills()) != len(def.Skills()) {
		t.Fatalf("round trip lost data: %d roles, %d skills", len(kb.Roles()), len(kb.Skills()))
	}
	if kb.DefaultRole().Name != def.DefaultRole().Name {
		t.Fatalf("default role changed to %q", kb.DefaultRole().Name)
	}
}

func TestActions(t *testing.T) {
	if got := actions(""); len(got) != 4 || got[len(got)-1] != PromptExit {
		t.Fatalf("unexpected actions without exclude file: %v", got)
	}
	if got := actions("exclude.json"); len(got) != 5 || got[3] != PromptAppendToExcludeFile {
		t.Fatalf("unexpected actions with exclude file: %v", got)
	}
}

func newNopLogger() *zap.Logger {
	return zap.NewNop()
}
