// Package config loads and validates the TOML application configuration.
package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/skyhawk-aero/wxbrief/internal/weather"
)

// Config is the main application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`  // HTTP server settings
	Logging LoggingConfig `toml:"logging"` // Application logging settings
	Storage StorageConfig `toml:"storage"` // Data persistence settings
	Station StationConfig `toml:"station"` // Home station settings
	Wx      WxConfig      `toml:"wx"`      // Weather fetching and caching settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Keep-alive idle timeout
	StaticFilesDir   string `toml:"static_files_dir"`      // Directory to serve static files from (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type           string `toml:"type"`             // Storage backend type (currently only "sqlite" is supported)
	SQLiteBasePath string `toml:"sqlite_base_path"` // Directory for the snapshot database file
}

// StationConfig identifies the home station. Latitude, longitude and
// elevation are resolved from the airports CSV, not the config file.
type StationConfig struct {
	Latitude       float64 // Latitude in decimal degrees (derived from airports.csv)
	Longitude      float64 // Longitude in decimal degrees (derived from airports.csv)
	ElevationFeet  int     // Elevation above sea level in feet (derived from airports.csv)
	AirportCode    string  `toml:"airport_code"`     // ICAO code of the home airport (e.g., "KBOS")
	AirportsDBPath string  `toml:"airports_db_path"` // Path to airport database CSV file (OurAirports format)
}

// WxConfig groups the weather source client and orchestrator settings
type WxConfig struct {
	Client  weather.ClientConfig  `toml:"client"`
	Service weather.ServiceConfig `toml:"service"`
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Load station details from airports.csv
	if err := config.loadStationFromCSV(); err != nil {
		return nil, fmt.Errorf("failed to load station details from CSV: %w", err)
	}

	return &config, nil
}

// loadStationFromCSV parses the airports.csv file to find the station coordinates
func (c *Config) loadStationFromCSV() error {
	if c.Station.AirportsDBPath == "" {
		return fmt.Errorf("airports_db_path is required")
	}
	if c.Station.AirportCode == "" {
		return fmt.Errorf("airport_code is required")
	}

	file, err := os.Open(c.Station.AirportsDBPath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		return err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return err
	}

	found := false
	for _, record := range records {
		if len(record) < 7 {
			continue
		}

		// Check ident (index 1)
		if record[1] == c.Station.AirportCode {
			lat, err := strconv.ParseFloat(record[4], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude in CSV for %s: %w", c.Station.AirportCode, err)
			}
			c.Station.Latitude = lat

			lon, err := strconv.ParseFloat(record[5], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude in CSV for %s: %w", c.Station.AirportCode, err)
			}
			c.Station.Longitude = lon

			// Elevation might be empty or valid float
			if record[6] != "" {
				elev, err := strconv.ParseFloat(record[6], 64)
				if err == nil {
					c.Station.ElevationFeet = int(elev)
				}
			}

			found = true
			break
		}
	}

	if !found {
		return fmt.Errorf("airport code %s not found in %s", c.Station.AirportCode, c.Station.AirportsDBPath)
	}

	return nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Validate storage config
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("invalid storage type: %s (only 'sqlite' is supported)", c.Storage.Type)
	}
	if c.Storage.SQLiteBasePath == "" {
		return fmt.Errorf("sqlite_base_path is required when storage type is sqlite")
	}

	if err := c.ValidateWx(); err != nil {
		return err
	}

	return nil
}

// ValidateWx validates the weather section, defaulting missing values
func (c *Config) ValidateWx() error {
	defaults := weather.DefaultClientConfig()

	if c.Wx.Client.AviationWeatherBaseURL == "" {
		c.Wx.Client.AviationWeatherBaseURL = defaults.AviationWeatherBaseURL
	}
	if c.Wx.Client.DATISBaseURL == "" {
		c.Wx.Client.DATISBaseURL = defaults.DATISBaseURL
	}
	if c.Wx.Client.MOSBaseURL == "" {
		c.Wx.Client.MOSBaseURL = defaults.MOSBaseURL
	}
	if c.Wx.Client.RunwaysCSVURL == "" {
		c.Wx.Client.RunwaysCSVURL = defaults.RunwaysCSVURL
	}
	if c.Wx.Client.WindsAloftRegion == "" {
		c.Wx.Client.WindsAloftRegion = defaults.WindsAloftRegion
	}
	if c.Wx.Client.RequestTimeoutSeconds <= 0 {
		c.Wx.Client.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
	if c.Wx.Client.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be 0 or greater")
	}

	if c.Wx.Service.HomeStation == "" {
		c.Wx.Service.HomeStation = c.Station.AirportCode
	}
	if c.Wx.Service.RefreshIntervalMinutes <= 0 {
		c.Wx.Service.RefreshIntervalMinutes = 10
	}

	return c.Wx.Service.Validate()
}
