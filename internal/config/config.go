package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"trackgen/internal/core/model"
)

const envPrefix = "TRACKGEN"

// SimulatorConfig holds the constants of a simulated device. The defaults
// reproduce the reference generator exactly.
type SimulatorConfig struct {
	DeviceID     string        `mapstructure:"device_id"`
	Address      string        `mapstructure:"address"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	Period       time.Duration `mapstructure:"period"`
	Step         float64       `mapstructure:"step"`
	Speed        float64       `mapstructure:"speed"`
	DriverID     string        `mapstructure:"driver_id"`
	Format       string        `mapstructure:"format"`
	Reports      int           `mapstructure:"reports"`
	ReadPoll     time.Duration `mapstructure:"read_poll"`
	TrackGeoJSON string        `mapstructure:"track_geojson"`
	Waypoints    [][]float64   `mapstructure:"waypoints"` // [lat, lon] pairs
}

// ServerConfig configures the development sink.
type ServerConfig struct {
	TCPAddress    string `mapstructure:"tcp_address"`
	HTTPAddress   string `mapstructure:"http_address"`
	MongoURI      string `mapstructure:"mongodb_uri"`
	MongoDatabase string `mapstructure:"mongodb_database"`
	RedisURL      string `mapstructure:"redis_url"`
	Debug         bool   `mapstructure:"debug"`
}

type Config struct {
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Server    ServerConfig    `mapstructure:"server"`
}

var defaultWaypoints = [][]float64{
	{48.853780, 2.344347},
	{48.855235, 2.345852},
	{48.857238, 2.347153},
	{48.858509, 2.342563},
	{48.856066, 2.340432},
	{48.854780, 2.342230},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulator.device_id", "1234567890123")
	v.SetDefault("simulator.address", "localhost:5001")
	v.SetDefault("simulator.dial_timeout", 10*time.Second)
	v.SetDefault("simulator.period", time.Second)
	v.SetDefault("simulator.step", 0.001)
	v.SetDefault("simulator.speed", 40.0)
	v.SetDefault("simulator.driver_id", "123456")
	v.SetDefault("simulator.format", "reference")
	v.SetDefault("simulator.reports", 0)
	v.SetDefault("simulator.read_poll", 500*time.Millisecond)
	v.SetDefault("simulator.track_geojson", "")
	v.SetDefault("simulator.waypoints", defaultWaypoints)

	v.SetDefault("server.tcp_address", "0.0.0.0:5001")
	v.SetDefault("server.http_address", "0.0.0.0:8000")
	v.SetDefault("server.mongodb_uri", "")
	v.SetDefault("server.mongodb_database", "tracking")
	v.SetDefault("server.redis_url", "")
	v.SetDefault("server.debug", false)
}

// LoadConfig reads defaults, then the optional YAML file at path, then
// TRACKGEN_* environment variables (TRACKGEN_SIMULATOR_ADDRESS and so on).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// WaypointLoop converts the configured [lat, lon] pairs.
func (c SimulatorConfig) WaypointLoop() ([]model.GeoPoint, error) {
	loop := make([]model.GeoPoint, 0, len(c.Waypoints))
	for i, pair := range c.Waypoints {
		if len(pair) != 2 {
			return nil, fmt.Errorf("waypoint %d: want [lat, lon], got %v", i, pair)
		}
		loop = append(loop, model.GeoPoint{Lat: pair[0], Lon: pair[1]})
	}
	return loop, nil
}
