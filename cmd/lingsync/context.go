package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"lingsync/internal/config"
	"lingsync/internal/logging"
	"lingsync/internal/services/anki"
	"lingsync/internal/services/lingq"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		format := cfg.Logging.Format
		if c.logFormatFlag != nil && strings.TrimSpace(*c.logFormatFlag) != "" {
			format = strings.TrimSpace(*c.logFormatFlag)
		}
		logger, err := logging.New(logging.Options{Level: level, Format: format})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) ankiClient() (*anki.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: time.Duration(cfg.Anki.RequestTimeout) * time.Second}
	return anki.New(cfg.Anki.URL, anki.WithHTTPClient(httpClient))
}

func (c *commandContext) lingqClient() (*lingq.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: time.Duration(cfg.LingQ.RequestTimeout) * time.Second}
	return lingq.New(cfg.LingQ.BaseURL, lingq.WithHTTPClient(httpClient))
}

// connectAnki builds the AnkiConnect client and runs the version probe every
// Anki-touching command starts with. The probe failing means AnkiConnect is
// not reachable, which aborts the command outright.
func (c *commandContext) connectAnki(ctx context.Context) (*anki.Client, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	client, err := c.ankiClient()
	if err != nil {
		return nil, err
	}
	version, err := client.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to AnkiConnect: %w", err)
	}
	logger.Info("connected to AnkiConnect", logging.Int("version", version))
	return client, nil
}
