// Package config resolves the tool configuration from command-line flags,
// environment variables, and an optional YAML file. Precedence is fixed,
// highest first: explicit flag, environment variable, config file, built-in
// default.
package config

import (
	"fmt"
	"os"
	"strconv"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized for Elasticsearch settings
const (
	EnvAddress     = "ELASTICSEARCH_ADDRESS"
	EnvRepository  = "ELASTICSEARCH_REPOSITORY"
	EnvIndexFilter = "ELASTICSEARCH_INDEX_FILTER"
	EnvKeepDays    = "ELASTICSEARCH_KEEP_DAYS"
)

// Built-in defaults
const (
	DefaultAddress   = "http://localhost:9200"
	DefaultKeepDays  = 15
	DefaultLocalPort = 19200
	DefaultPort      = 9200
)

// Config is the effective, validated configuration of a run
type Config struct {
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch" validate:"required"`
	Kubernetes    KubernetesConfig    `yaml:"kubernetes"`
}

// ElasticsearchConfig holds the cluster connection and retirement settings
type ElasticsearchConfig struct {
	Address     string `yaml:"address" validate:"required,url"`
	Repository  string `yaml:"repository" validate:"required"`
	IndexFilter string `yaml:"indexFilter" validate:"required"`
	KeepDays    int    `yaml:"keepDays" validate:"min=0"`
}

// KubernetesConfig holds optional port-forward settings. When Namespace is
// set the cluster is reached through a service port-forward instead of the
// configured address.
type KubernetesConfig struct {
	Namespace   string `yaml:"namespace"`
	Kubeconfig  string `yaml:"kubeconfig"`
	ServiceName string `yaml:"serviceName" validate:"required_with=Namespace"`
	ServicePort int    `yaml:"servicePort" validate:"omitempty,min=1,max=65535"`
	LocalPort   int    `yaml:"localPort" validate:"omitempty,min=1,max=65535"`
}

// CLIConfig carries the raw flag values bound by cobra
type CLIConfig struct {
	ConfigFile           string
	Address              string
	Repository           string
	IndexFilter          string
	KeepDays             int
	Namespace            string
	Kubeconfig           string
	ServiceName          string
	Debug                bool
	Quiet                bool
	OutputFormat         string // table, json
	DryRun               bool
	StrictSnapshotErrors bool
	Schedule             string
	MetricsAddr          string
}

// Context is passed to every command constructor
type Context struct {
	Config *CLIConfig
}

// NewContext creates an empty CLI context
func NewContext() *Context {
	return &Context{
		Config: &CLIConfig{},
	}
}

func defaults() *Config {
	return &Config{
		Elasticsearch: ElasticsearchConfig{
			Address:  DefaultAddress,
			KeepDays: DefaultKeepDays,
		},
		Kubernetes: KubernetesConfig{
			ServicePort: DefaultPort,
			LocalPort:   DefaultLocalPort,
		},
	}
}

// Resolve builds the effective configuration from the four sources. flagSet
// reports whether a flag was explicitly given on the command line (cobra's
// Changed); only explicit flags override environment variables.
func Resolve(cli *CLIConfig, flagSet func(name string) bool) (*Config, error) {
	config := defaults()

	// Layer 1: optional YAML config file over defaults
	if cli.ConfigFile != "" {
		data, err := os.ReadFile(cli.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", cli.ConfigFile, err)
		}
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", cli.ConfigFile, err)
		}
		if err := mergo.Merge(config, fileConfig, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	// Layer 2: environment variables
	if v, ok := os.LookupEnv(EnvAddress); ok {
		config.Elasticsearch.Address = v
	}
	if v, ok := os.LookupEnv(EnvRepository); ok {
		config.Elasticsearch.Repository = v
	}
	if v, ok := os.LookupEnv(EnvIndexFilter); ok {
		config.Elasticsearch.IndexFilter = v
	}
	if v, ok := os.LookupEnv(EnvKeepDays); ok {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value '%s': %w", EnvKeepDays, v, err)
		}
		config.Elasticsearch.KeepDays = days
	}

	// Layer 3: explicit flags
	if flagSet("address") {
		config.Elasticsearch.Address = cli.Address
	}
	if flagSet("repository") {
		config.Elasticsearch.Repository = cli.Repository
	}
	if flagSet("index-filter") {
		config.Elasticsearch.IndexFilter = cli.IndexFilter
	}
	if flagSet("keep-days") {
		config.Elasticsearch.KeepDays = cli.KeepDays
	}
	if flagSet("namespace") {
		config.Kubernetes.Namespace = cli.Namespace
	}
	if flagSet("kubeconfig") {
		config.Kubernetes.Kubeconfig = cli.Kubeconfig
	}
	if flagSet("service") {
		config.Kubernetes.ServiceName = cli.ServiceName
	}

	// Validate the merged configuration
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
