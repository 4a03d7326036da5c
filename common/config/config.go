// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package config

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"strings"

	jaegerconfig "github.com/uber/jaeger-client-go/config"
	jaegermetrics "github.com/uber/jaeger-lib/metrics"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
	"gopkg.in/yaml.v2"
)

// Version is the current version of the config format.
// This will change whenever we make breaking changes to the config format.
const Version = 0

const (
	defaultTimeoutSeconds = 15
	// read + update + create + delete + share
	defaultSharePermissions = 31
	defaultCacheTTLSeconds  = 3600
	defaultListenAddress    = ":8090"
)

var config *Watcha

// Watcha contains all the config used by a watcha integration process.
type Watcha struct {
	// The version of the configuration file.
	Version int `yaml:"version"`

	// How to reach the homeserver the rooms live on.
	Matrix struct {
		ServerName    string `yaml:"server_name"`
		HomeserverURL string `yaml:"homeserver_url"`
		// Account used for state writes that have no requester, e.g. clearing
		// a calendar share when its owner leaves the room.
		ServiceUserID      string `yaml:"service_user_id"`
		ServiceAccessToken string `yaml:"service_access_token"`
		InstanceID         int64  `yaml:"instance_id"`
		TimeoutSeconds     int64  `yaml:"timeout_seconds"`
	} `yaml:"matrix"`

	// The identity provider admin API.
	Keycloak struct {
		URL            string `yaml:"url"`
		Realm          string `yaml:"realm"`
		ClientID       string `yaml:"client_id"`
		ClientSecret   string `yaml:"client_secret"`
		TimeoutSeconds int64  `yaml:"timeout_seconds"`
	} `yaml:"keycloak"`

	// The file sharing admin API.
	Nextcloud struct {
		URL              string `yaml:"url"`
		Username         string `yaml:"username"`
		Password         string `yaml:"password"`
		TimeoutSeconds   int64  `yaml:"timeout_seconds"`
		SharePermissions int    `yaml:"share_permissions"`
	} `yaml:"nextcloud"`

	Settings struct {
		// When false, partners have no external account and are never added
		// to nextcloud groups.
		ExternalAuthenticationForPartners bool   `yaml:"external_authentication_for_partners"`
		HookSecret                        string `yaml:"hook_secret"`
	} `yaml:"watcha"`

	Database struct {
		Driver     string `yaml:"driver"`
		Addresses  string `yaml:"addresses"`
		LogQueries bool   `yaml:"log_queries"`
	} `yaml:"database"`

	Redis struct {
		Uris       []string `yaml:"uris"`
		TTLSeconds int      `yaml:"ttl_seconds"`
	} `yaml:"redis"`

	Nats struct {
		Uri               string `yaml:"uri"`
		MembershipSubject string `yaml:"membership_subject"`
		RoomNameSubject   string `yaml:"room_name_subject"`
	} `yaml:"nats"`

	Listen struct {
		Address        string `yaml:"address"`
		MetricsAddress string `yaml:"metrics_address"`
	} `yaml:"listen"`

	Log struct {
		Level         string   `yaml:"level"`
		Files         []string `yaml:"files"`
		Underlying    string   `yaml:"underlying"`
		WriteToStdout bool     `yaml:"write_to_stdout"`
		RotateConfig  struct {
			MaxSize    int  `yaml:"max_size"`
			MaxBackups int  `yaml:"max_backups"`
			MaxAge     int  `yaml:"max_age"`
			LocalTime  bool `yaml:"localtime"`
			Compress   bool `yaml:"compress"`
			JsonFormat bool `yaml:"json_format"`
		} `yaml:"rotate_config"`
	} `yaml:"log"`

	Tracing struct {
		// The config for the jaeger opentracing reporter.
		Jaeger jaegerconfig.Configuration `yaml:"jaeger"`
	} `yaml:"tracing"`
}

// An Error indicates a problem parsing the config.
type Error struct {
	// List of problems encountered parsing the config.
	Problems []string
}

// Error returns a string detailing how many errors were contained within an
// Error type.
func (e Error) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0]
	}
	return fmt.Sprintf(
		"%s (and %d other problems)", e.Problems[0], len(e.Problems)-1,
	)
}

func GetConfig() *Watcha {
	return config
}

func SetConfig(cfg *Watcha) {
	config = cfg
}

// Load a yaml config file, apply environment overrides and check it.
func Load(configPath string) error {
	configData, err := ioutil.ReadFile(configPath)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configData, os.Getenv)
	if err != nil {
		return err
	}
	config = cfg
	return nil
}

func loadConfig(configData []byte, getenv func(string) string) (*Watcha, error) {
	cfg := new(Watcha)
	if err := yaml.Unmarshal(configData, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv(getenv)
	cfg.setDefaults()

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets secrets stay out of the yaml file.
func (cfg *Watcha) applyEnv(getenv func(string) string) {
	override := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.Matrix.ServiceAccessToken, "MATRIX_SERVICE_ACCESS_TOKEN")
	override(&cfg.Keycloak.ClientSecret, "KEYCLOAK_CLIENT_SECRET")
	override(&cfg.Nextcloud.Password, "NEXTCLOUD_PASSWORD")
	override(&cfg.Settings.HookSecret, "WATCHA_HOOK_SECRET")
	override(&cfg.Database.Addresses, "DATABASE_ADDRESSES")
}

// setDefaults sets default config values if they are not explicitly set.
func (cfg *Watcha) setDefaults() {
	if cfg.Matrix.TimeoutSeconds == 0 {
		cfg.Matrix.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.Keycloak.TimeoutSeconds == 0 {
		cfg.Keycloak.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.Nextcloud.TimeoutSeconds == 0 {
		cfg.Nextcloud.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.Nextcloud.SharePermissions == 0 {
		cfg.Nextcloud.SharePermissions = defaultSharePermissions
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = defaultCacheTTLSeconds
	}
	if cfg.Nats.MembershipSubject == "" {
		cfg.Nats.MembershipSubject = "watcha.membership"
	}
	if cfg.Nats.RoomNameSubject == "" {
		cfg.Nats.RoomNameSubject = "watcha.room_name"
	}
	if cfg.Listen.Address == "" {
		cfg.Listen.Address = defaultListenAddress
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Tracing.Jaeger.ServiceName == "" {
		cfg.Tracing.Jaeger.ServiceName = "watcha-nextcloud"
	}
}

// check returns an error type containing all errors found within the config
// file.
func (cfg *Watcha) check() error {
	var problems []string

	if cfg.Version != Version {
		return Error{[]string{fmt.Sprintf(
			"unknown config version %d, expected %d", cfg.Version, Version,
		)}}
	}

	checkNotEmpty := func(key string, value string) {
		if value == "" {
			problems = append(problems, fmt.Sprintf("missing config key %q", key))
		}
	}

	checkURL := func(key string, value string) {
		if value == "" {
			return
		}
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid url for config key %q: %s", key, value))
		}
	}

	checkNotEmpty("matrix.server_name", cfg.Matrix.ServerName)
	checkNotEmpty("matrix.homeserver_url", cfg.Matrix.HomeserverURL)
	checkURL("matrix.homeserver_url", cfg.Matrix.HomeserverURL)
	checkNotEmpty("matrix.service_user_id", cfg.Matrix.ServiceUserID)
	checkNotEmpty("matrix.service_access_token", cfg.Matrix.ServiceAccessToken)

	checkNotEmpty("keycloak.url", cfg.Keycloak.URL)
	checkURL("keycloak.url", cfg.Keycloak.URL)
	checkNotEmpty("keycloak.realm", cfg.Keycloak.Realm)
	checkNotEmpty("keycloak.client_id", cfg.Keycloak.ClientID)
	checkNotEmpty("keycloak.client_secret", cfg.Keycloak.ClientSecret)

	checkNotEmpty("nextcloud.url", cfg.Nextcloud.URL)
	checkURL("nextcloud.url", cfg.Nextcloud.URL)
	checkNotEmpty("nextcloud.username", cfg.Nextcloud.Username)
	checkNotEmpty("nextcloud.password", cfg.Nextcloud.Password)

	checkNotEmpty("watcha.hook_secret", cfg.Settings.HookSecret)
	checkNotEmpty("database.addresses", cfg.Database.Addresses)

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unsupported database.driver %q", cfg.Database.Driver))
	}

	for _, uri := range cfg.Redis.Uris {
		if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
			problems = append(problems, fmt.Sprintf("invalid redis uri %q", uri))
		}
	}

	if problems != nil {
		return Error{problems}
	}
	return nil
}

func (cfg *Watcha) LogConfig() *log.LogConfig {
	lc := &log.LogConfig{
		Level:         cfg.Log.Level,
		Files:         cfg.Log.Files,
		Underlying:    cfg.Log.Underlying,
		WriteToStdout: cfg.Log.WriteToStdout,
	}
	lc.RotateConfig.MaxSize = cfg.Log.RotateConfig.MaxSize
	lc.RotateConfig.MaxBackups = cfg.Log.RotateConfig.MaxBackups
	lc.RotateConfig.MaxAge = cfg.Log.RotateConfig.MaxAge
	lc.RotateConfig.LocalTime = cfg.Log.RotateConfig.LocalTime
	lc.RotateConfig.Compress = cfg.Log.RotateConfig.Compress
	lc.RotateConfig.JsonFormat = cfg.Log.RotateConfig.JsonFormat
	return lc
}

// SetupTracing configures the opentracing using the supplied configuration.
func (cfg *Watcha) SetupTracing() (closer io.Closer, err error) {
	return cfg.Tracing.Jaeger.InitGlobalTracer(
		cfg.Tracing.Jaeger.ServiceName,
		jaegerconfig.Logger(Logger{}),
		jaegerconfig.Metrics(jaegermetrics.NullFactory),
	)
}

// Logger adapts the skunkworks logger to the jaeger logger interface.
type Logger struct{}

func (l Logger) Error(msg string) {
	log.Errorf("%s", msg)
}

func (l Logger) Infof(msg string, args ...interface{}) {
	log.Infof(msg, args...)
}

// GetDBConfig returns the connection settings of the named database. All
// databases of the process share one connection string.
func (cfg *Watcha) GetDBConfig(name string) (driver, address string, logQueries bool) {
	return cfg.Database.Driver, cfg.Database.Addresses, cfg.Database.LogQueries
}
