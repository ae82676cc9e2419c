package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"clipwatch/internal/catalog"
	"clipwatch/internal/config"
	"clipwatch/internal/ipc"
	"clipwatch/internal/sessionaccess"
)

type commandContext struct {
	socketFlag  *string
	configFlag  *string
	envFileFlag *string

	envOnce sync.Once
	envErr  error

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag, envFileFlag *string) *commandContext {
	return &commandContext{
		socketFlag:  socketFlag,
		configFlag:  configFlag,
		envFileFlag: envFileFlag,
	}
}

// ensureEnv applies the env file once so CLIPWATCH_* overrides are visible
// to config loading.
func (c *commandContext) ensureEnv() error {
	c.envOnce.Do(func() {
		_, _, err := config.LoadEnvFile(flagValue(c.envFileFlag))
		c.envErr = err
	})
	return c.envErr
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) socketPath() string {
	if socket := flagValue(c.socketFlag); socket != "" {
		return socket
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.SocketPath()
	}
	return defaultSocketPath()
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

// openSessions prefers the running daemon and falls back to the catalog file.
func (c *commandContext) openSessions() (sessionaccess.Handle, error) {
	return sessionaccess.OpenWithFallback(
		func() (*ipc.Client, error) { return ipc.Dial(c.socketPath()) },
		func() (*catalog.Store, error) {
			cfg, err := c.ensureConfig()
			if err != nil {
				return nil, err
			}
			return catalog.Open(cfg)
		},
	)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `clipwatch daemon start`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func defaultSocketPath() string {
	cfg := config.Default()
	if logDir, err := config.ExpandPath(cfg.Paths.LogDir); err == nil {
		cfg.Paths.LogDir = logDir
	}
	return cfg.SocketPath()
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
