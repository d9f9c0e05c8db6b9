package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"path/filepath"
	"time"

	"github.com/hjson/hjson-go/v4"
)

const (
	DefaultListen          = "127.0.0.1:8000"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
)

var errNoDataset = errors.New("dataset is not set")

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal duration: %w", err)
	}

	vv, ok := v.(string)
	if !ok {
		return fmt.Errorf("incorrect duration: %v", v)
	}

	dur, err := time.ParseDuration(vv)
	if err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	d.Duration = dur

	return nil
}

type config struct {
	Listen          string          `json:"listen"`
	Dataset         string          `json:"dataset"`
	HasHeader       bool            `json:"has_header"`
	StrictLoad      bool            `json:"strict_load"`
	CountryFilter   []string        `json:"country_filter"`
	WorkerPoolSize  uint            `json:"worker_pool_size"`
	RequestTimeout  duration        `json:"request_timeout"`
	ShutdownTimeout duration        `json:"shutdown_timeout"`
	BasicAuth       configBasicAuth `json:"basic_auth"`
}

func (c config) GetListen() string {
	if c.Listen != "" {
		return c.Listen
	}

	return DefaultListen
}

func (c config) GetDataset() string {
	return c.Dataset
}

func (c config) GetCountryFilter() []string {
	return c.CountryFilter
}

func (c config) GetWorkerPoolSize() int {
	return int(c.WorkerPoolSize)
}

func (c config) GetRequestTimeout() time.Duration {
	if c.RequestTimeout.Duration == 0 {
		return DefaultRequestTimeout
	}

	return c.RequestTimeout.Duration
}

func (c config) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout.Duration == 0 {
		return DefaultShutdownTimeout
	}

	return c.ShutdownTimeout.Duration
}

type configBasicAuth struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (c configBasicAuth) Enabled() bool {
	return c.User != "" || c.Password != ""
}

func parseConfig(path string) (*config, error) {
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	return parseConfigBytes(content, filepath.Dir(path))
}

// parseConfigBytes parses hjson config. Relative dataset path is
// resolved against baseDir.
func parseConfigBytes(content []byte, baseDir string) (*config, error) {
	conf := config{}
	rawMap := map[string]interface{}{}

	if err := hjson.Unmarshal(content, &rawMap); err != nil {
		return nil, fmt.Errorf("cannot parse json: %w", err)
	}

	rawBytes, _ := json.Marshal(rawMap)

	if err := json.Unmarshal(rawBytes, &conf); err != nil {
		return nil, fmt.Errorf("incorrect config structure: %w", err)
	}

	if _, _, err := net.SplitHostPort(conf.GetListen()); err != nil {
		return nil, fmt.Errorf("incorrect host:port for listen: %w", err)
	}

	if conf.Dataset == "" {
		return nil, errNoDataset
	}

	if !filepath.IsAbs(conf.Dataset) {
		conf.Dataset = filepath.Join(baseDir, conf.Dataset)
	}

	dataset, err := filepath.Abs(conf.Dataset)
	if err != nil {
		return nil, fmt.Errorf("incorrect dataset path: %w", err)
	}

	conf.Dataset = dataset

	return &conf, nil
}
