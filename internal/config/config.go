// Package config loads the configuration of the three hops.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iliamunaev/order-chain/internal/logging"
)

// Hop names.
const (
	Customers = "customers"
	Orders    = "orders"
	Tracking  = "tracking"
)

// HopNames lists the hops in chain order.
var HopNames = []string{Customers, Orders, Tracking}

// maxInFlightLimit mirrors pool.MaxSize.
const maxInFlightLimit = 256

// Duration is a time.Duration written as a string such as "12s".
type Duration time.Duration

// UnmarshalYAML parses the duration with time.ParseDuration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", value.Line, err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration back as a string.
func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the whole configuration file.
type Config struct {
	Log  Log  `yaml:"log"`
	Hops Hops `yaml:"hops"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Hops holds one section per hop.
type Hops struct {
	Customers Hop `yaml:"customers"`
	Orders    Hop `yaml:"orders"`
	Tracking  Hop `yaml:"tracking"`
}

// Hop configures one hop.
type Hop struct {
	Listen         string      `yaml:"listen"`
	RequestTimeout Duration    `yaml:"request_timeout"`
	Downstream     Downstream  `yaml:"downstream"`
	FanOut         FanOut      `yaml:"fanout"`
	Store          Store       `yaml:"store"`
	Tracking       TrackingGen `yaml:"tracking"`
}

// Downstream is the next hop and its timeout boundary.
type Downstream struct {
	BaseURL  string   `yaml:"base_url"`
	Timeouts Timeouts `yaml:"timeouts"`
}

// Timeouts are applied to every connection to the next hop.
type Timeouts struct {
	Connect Duration `yaml:"connect"`
	Read    Duration `yaml:"read"`
	Write   Duration `yaml:"write"`
}

// FanOut bounds concurrent tracking calls of the orders hop: MaxInFlight
// per request, PoolSize across all requests.
type FanOut struct {
	MaxInFlight int `yaml:"max_in_flight"`
	PoolSize    int `yaml:"pool_size"`
}

// Store selects the entity store.
type Store struct {
	Driver string `yaml:"driver"` // memory or redis
	Seed   bool   `yaml:"seed"`   // load the sample customers and orders
	Redis  Redis  `yaml:"redis"`
}

// Redis addresses the redis store.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// TrackingGen seeds the tracking hop. Zero draws unseeded.
type TrackingGen struct {
	Seed uint64 `yaml:"seed"`
}

func uniform(d time.Duration) Timeouts {
	return Timeouts{Connect: Duration(d), Read: Duration(d), Write: Duration(d)}
}

func defaultHop(listen string) Hop {
	return Hop{
		Listen:         listen,
		RequestTimeout: Duration(30 * time.Second),
		FanOut:         FanOut{MaxInFlight: 8, PoolSize: 64},
		Store: Store{
			Driver: "memory",
			Seed:   true,
			Redis:  Redis{Addr: "localhost:6379", Prefix: "chain:"},
		},
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{
		Log: Log{Level: "info", Format: "text"},
		Hops: Hops{
			Customers: defaultHop(":8080"),
			Orders:    defaultHop(":8081"),
			Tracking:  defaultHop(":8082"),
		},
	}
	c.Hops.Customers.Downstream = Downstream{BaseURL: "http://localhost:8081", Timeouts: uniform(12 * time.Second)}
	c.Hops.Orders.Downstream = Downstream{BaseURL: "http://localhost:8082", Timeouts: uniform(10 * time.Second)}
	return c
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, c.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Hop returns the section of the hop called name.
func (c *Config) Hop(name string) (*Hop, error) {
	switch strings.ToLower(name) {
	case Customers:
		return &c.Hops.Customers, nil
	case Orders:
		return &c.Hops.Orders, nil
	case Tracking:
		return &c.Hops.Tracking, nil
	default:
		return nil, fmt.Errorf("unknown hop %q (want one of %s)", name, strings.Join(HopNames, ", "))
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	var errs []error
	for _, name := range HopNames {
		h, _ := c.Hop(name)
		if err := h.validate(name != Tracking); err != nil {
			errs = append(errs, fmt.Errorf("hops.%s: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	// Orders must answer, possibly without a stalled tracking branch, before
	// customers gives up on it.
	if up, down := c.Hops.Customers.Downstream.Timeouts.Read, c.Hops.Orders.Downstream.Timeouts.Read; up <= down {
		return fmt.Errorf("hops.customers: downstream.timeouts.read (%s) must exceed hops.orders downstream.timeouts.read (%s)",
			up.Std(), down.Std())
	}
	return nil
}

func (h *Hop) validate(hasDownstream bool) error {
	if h.Listen == "" {
		return errors.New("listen is required")
	}
	if h.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}

	if hasDownstream {
		u, err := url.Parse(h.Downstream.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("downstream.base_url must be an http(s) url, got %q", h.Downstream.BaseURL)
		}
		t := h.Downstream.Timeouts
		if t.Connect <= 0 || t.Read <= 0 || t.Write <= 0 {
			return errors.New("downstream.timeouts must all be positive")
		}
	}

	if h.FanOut.MaxInFlight < 1 || h.FanOut.MaxInFlight > maxInFlightLimit {
		return fmt.Errorf("fanout.max_in_flight must be between 1 and %d", maxInFlightLimit)
	}
	if h.FanOut.PoolSize < 1 || h.FanOut.PoolSize > maxInFlightLimit {
		return fmt.Errorf("fanout.pool_size must be between 1 and %d", maxInFlightLimit)
	}

	switch h.Store.Driver {
	case "memory":
	case "redis":
		if h.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis driver")
		}
		if h.Store.Redis.DB < 0 {
			return errors.New("store.redis.db must be non-negative")
		}
	default:
		return fmt.Errorf("store.driver must be memory or redis, got %q", h.Store.Driver)
	}
	return nil
}
