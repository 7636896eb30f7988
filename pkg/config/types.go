package config

import "time"

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gte=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	MaxConcurrent  int           `yaml:"max_concurrent" validate:"gte=0"` // 0 = 2 x NumCPU
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// RoutingConfig holds routing settings used when the input data carries none
type RoutingConfig struct {
	BusVelocity float64 `yaml:"bus_velocity" validate:"gt=0"`  // km/h
	BusWaitTime float64 `yaml:"bus_wait_time" validate:"gt=0"` // minutes
}

// SnapConfig bounds coordinate snapping to the nearest stop
type SnapConfig struct {
	MaxDistanceMeters float64 `yaml:"max_distance_meters" validate:"gt=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	Routing RoutingConfig `yaml:"routing"`
	Snap    SnapConfig    `yaml:"snap"`
}
