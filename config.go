package syren

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"golang.org/x/text/cases"

	"github.com/gogpu/syren/backend"
)

// DefaultConfigPath is the file Initialise reads when no path is given.
const DefaultConfigPath = "render.cfg"

// Configuration errors.
var (
	// ErrInvalidAPI is returned when the config names an unknown graphics API.
	ErrInvalidAPI = errors.New("syren: invalid graphics API")

	// ErrConfigUnavailable is returned when the config file cannot be read.
	ErrConfigUnavailable = errors.New("syren: config unavailable")
)

// Config is the renderer configuration read from render.cfg.
type Config struct {
	// API is the requested graphics API. It is BackendEmpty when the
	// file has no api entry.
	API gputypes.Backend
}

// apiNames maps the case-folded tokens of the api entry to graphics APIs.
var apiNames = map[string]gputypes.Backend{
	"directx": gputypes.BackendDX12,
	"opengl":  gputypes.BackendGL,
	"vulkan":  gputypes.BackendVulkan,
}

// LoadConfig reads the config file at path.
//
// It strong-succeeds when an api entry names a known API, weak-succeeds
// when there is no api entry, and fails when the file cannot be opened or
// an entry is invalid.
func LoadConfig(path string) (Config, backend.Result) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, backend.Fail(ErrConfigUnavailable, "Error opening file: "+path,
			fmt.Errorf("Error details: %w", err))
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig reads a configuration from r.
//
// Each line is "key: value". A line whose key contains "api" selects the
// graphics API from the first word of its value; the last such line wins.
// Keys and values are compared case-insensitively.
func ParseConfig(r io.Reader) (Config, backend.Result) {
	fold := cases.Fold()
	var cfg Config

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		key, value, found := strings.Cut(line, ":")
		if !found {
			value = line
		}
		if !strings.Contains(fold.String(key), "api") {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return Config{}, backend.Fail(ErrInvalidAPI, "invalid graphics API entry in render.config.", nil)
		}
		api, ok := apiNames[fold.String(fields[0])]
		if !ok {
			return Config{}, backend.Fail(ErrInvalidAPI, "invalid graphics API entry in render.config.", nil)
		}
		cfg.API = api
	}
	if err := sc.Err(); err != nil {
		return Config{}, backend.Fail(ErrConfigUnavailable, "Error reading the render config.", err)
	}

	if cfg.API == gputypes.BackendEmpty {
		return cfg, backend.Weak("missing graphics API entry in render.config.")
	}
	return cfg, backend.Success("config file loaded successfully.")
}
