package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yml
var defaults []byte

// Configuration is a key/value settings store addressed by dotted keys.
// Values come from the bundled defaults, the user file, the environment and runtime overrides, in increasing priority.
type Configuration struct {
	mu       sync.RWMutex
	v        *viper.Viper
	userFile string
}

// New creates an empty configuration. Call Load to populate it.
func New() *Configuration {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Configuration{v: v}
}

// Load reads the bundled defaults and merges the user file over them, creating the user file if it does not exist.
func (c *Configuration) Load(userFile string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("failed to read bundled config: %w", err)
	}

	c.userFile = userFile
	if userFile == "" {
		return nil
	}

	if _, err := os.Stat(userFile); errors.Is(err, os.ErrNotExist) {
		f, err := os.Create(userFile)
		if err != nil {
			logrus.Errorf("failed to create config file %s: %v", userFile, err)
			return nil
		}
		if err = f.Close(); err != nil {
			logrus.Errorf("failed to close config file %s: %v", userFile, err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check if config file exists: %w", err)
	}

	b, err := os.ReadFile(userFile)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", userFile, err)
	}

	if err = c.v.MergeConfig(bytes.NewReader(b)); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", userFile, err)
	}

	return nil
}

// ApplyAutoConnect copies the auto-connect server into the runtime server and port keys when enabled.
func (c *Configuration) ApplyAutoConnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.v.GetBool("launcher.autoConnectServer.connect") {
		return false
	}

	c.v.Set(KeyServer, c.v.GetString("launcher.autoConnectServer.ip"))
	c.v.Set(KeyPort, c.v.GetString("launcher.autoConnectServer.port"))

	return true
}

func (c *Configuration) GetString(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(key)
}

func (c *Configuration) GetBool(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(key)
}

func (c *Configuration) GetInt(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt(key)
}

func (c *Configuration) GetStringList(key string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetStringSlice(key)
}

// IsSet reports whether the key has a non-default value from any source.
func (c *Configuration) IsSet(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.IsSet(key)
}

// Set overrides a key for the lifetime of the process. The user file is not touched.
func (c *Configuration) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(key, value)
}

// Persist sets the key and writes it into the user file, keeping every other entry of the file.
func (c *Configuration) Persist(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.v.Set(key, value)

	if c.userFile == "" {
		return nil
	}

	doc := map[string]any{}
	b, err := os.ReadFile(c.userFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read config file %s: %w", c.userFile, err)
	}
	if len(b) > 0 {
		if err = yaml.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", c.userFile, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}

	setNested(doc, strings.Split(key, "."), value)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config file: %w", err)
	}

	if err = os.WriteFile(c.userFile, out, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", c.userFile, err)
	}

	return nil
}

// UserFile returns the path of the user-editable file.
func (c *Configuration) UserFile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userFile
}

func setNested(doc map[string]any, path []string, value any) {
	if len(path) == 1 {
		doc[path[0]] = value
		return
	}

	child, ok := doc[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		doc[path[0]] = child
	}

	setNested(child, path[1:], value)
}
