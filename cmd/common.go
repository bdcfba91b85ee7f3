package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/extract"
	"github.com/spigell/resume-scorer/internal/knowledge"
	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/pipeline"
)

// newLogger builds the command logger. Commands printing data on stdout
// log to stderr.
func newLogger(toStderr bool) (*zap.Logger, error) {
	if toStderr {
		return logger.NewWithOutput(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
	}
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

// bindFlags binds flags of the running command only. Several commands share
// config keys, so binding them all in init would let the last one win.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s to %s: %w", name, key, err)
		}
	}
	return nil
}

func loadKnowledge(path string) (*knowledge.Base, error) {
	if strings.TrimSpace(path) == "" {
		return knowledge.Default(), nil
	}
	return knowledge.Load(path)
}

func newPipeline(config *Config, log *zap.Logger) (*pipeline.Pipeline, error) {
	kb, err := loadKnowledge(config.KnowledgeFile)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}

	log.Debug("knowledge base loaded",
		zap.Int("roles", len(kb.Roles())),
		zap.Int("skills", len(kb.Skills())),
		zap.String("default_role", kb.DefaultRole().Name),
	)

	return pipeline.New(kb, extract.New(nil, nil), log), nil
}

// readDocument loads a file. The media type is sniffed from the content
// unless contentType is given.
func readDocument(path, contentType string) (*pipeline.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	mediaType := strings.TrimSpace(contentType)
	if mediaType == "" {
		mediaType = detectMediaType(data)
	}

	return &pipeline.Document{
		Content:   data,
		MediaType: mediaType,
		Filename:  filepath.Base(path),
	}, nil
}

func detectMediaType(data []byte) string {
	detected := mimetype.Detect(data).String()
	if mt, _, err := mime.ParseMediaType(detected); err == nil {
		return mt
	}
	return detected
}

// collectPaths expands directories one level deep. Hidden files are skipped.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			paths = append(paths, filepath.Clean(arg))
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}

		var files []string
		for _, entry := range entries {
			if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			files = append(files, filepath.Join(arg, entry.Name()))
		}
		sort.Strings(files)
		paths = append(paths, files...)
	}
	return paths, nil
}
