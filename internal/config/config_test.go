package config

import "testing"

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid minimal config",
			cfg:     Config{Symbol: "BTCUSDT", Venue: VenueBinanceUSDTFutures, CandleCapacity: 500, DepthLimit: 1000},
			wantErr: false,
		},
		{
			name:    "missing symbol",
			cfg:     Config{Venue: VenueBinanceUSDTFutures, CandleCapacity: 500, DepthLimit: 1000},
			wantErr: true,
		},
		{
			name:    "unknown venue",
			cfg:     Config{Symbol: "BTCUSDT", Venue: "kraken-spot", CandleCapacity: 500, DepthLimit: 1000},
			wantErr: true,
		},
		{
			name:    "zero candle capacity",
			cfg:     Config{Symbol: "BTCUSDT", Venue: VenueBinanceUSDTFutures, CandleCapacity: 0, DepthLimit: 1000},
			wantErr: true,
		},
		{
			name:    "zero depth limit",
			cfg:     Config{Symbol: "BTCUSDT", Venue: VenueBinanceUSDTFutures, CandleCapacity: 500, DepthLimit: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCredentialsFor(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Binance:   VenueCredentials{AccessKey: "binance-key", SecretKey: "binance-secret"},
		BinanceUS: VenueCredentials{AccessKey: "us-key", SecretKey: "us-secret"},
		GateIO:    VenueCredentials{AccessKey: "gateio-key", SecretKey: "gateio-secret"},
	}

	tests := []struct {
		name  string
		venue string
		want  VenueCredentials
	}{
		{name: "usdt futures shares binance creds", venue: VenueBinanceUSDTFutures, want: cfg.Binance},
		{name: "spot shares binance creds", venue: VenueBinanceSpot, want: cfg.Binance},
		{name: "binance us has its own creds", venue: VenueBinanceUSSpot, want: cfg.BinanceUS},
		{name: "gateio has its own creds", venue: VenueGateIOUSDFutures, want: cfg.GateIO},
		{name: "unknown venue is unauthenticated", venue: "kraken-spot", want: VenueCredentials{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cfg.CredentialsFor(tt.venue); got != tt.want {
				t.Fatalf("CredentialsFor(%q) = %+v, want %+v", tt.venue, got, tt.want)
			}
		})
	}
}

func TestLoadDefaultsWithNoPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v, want nil", err)
	}

	if cfg.Venue != VenueBinanceUSDTFutures {
		t.Errorf("Venue = %q, want %q", cfg.Venue, VenueBinanceUSDTFutures)
	}
	if cfg.CandleCapacity != 500 {
		t.Errorf("CandleCapacity = %d, want 500", cfg.CandleCapacity)
	}
	if cfg.DepthLimit != 1000 {
		t.Errorf("DepthLimit = %d, want 1000", cfg.DepthLimit)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want {info text}", cfg.Logging)
	}
	if cfg.API.Enabled {
		t.Errorf("API.Enabled = true, want false")
	}
	if cfg.API.Port != 8787 {
		t.Errorf("API.Port = %d, want 8787", cfg.API.Port)
	}
}

func TestLoadBindsCredentialEnvVars(t *testing.T) {
	t.Setenv("BINANCE_ACCESS_KEY", "ba-key")
	t.Setenv("BINANCE_SECRET_KEY", "ba-secret")
	t.Setenv("BINANCE_US_ACCESS_KEY", "bus-key")
	t.Setenv("BINANCE_US_SECRET_KEY", "bus-secret")
	t.Setenv("GATEIO_ACCESS_KEY", "g-key")
	t.Setenv("GATEIO_SECRET_KEY", "g-secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v, want nil", err)
	}

	want := Config{
		Binance:   VenueCredentials{AccessKey: "ba-key", SecretKey: "ba-secret"},
		BinanceUS: VenueCredentials{AccessKey: "bus-key", SecretKey: "bus-secret"},
		GateIO:    VenueCredentials{AccessKey: "g-key", SecretKey: "g-secret"},
	}
	if cfg.Binance != want.Binance {
		t.Errorf("Binance = %+v, want %+v", cfg.Binance, want.Binance)
	}
	if cfg.BinanceUS != want.BinanceUS {
		t.Errorf("BinanceUS = %+v, want %+v", cfg.BinanceUS, want.BinanceUS)
	}
	if cfg.GateIO != want.GateIO {
		t.Errorf("GateIO = %+v, want %+v", cfg.GateIO, want.GateIO)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want {debug json}", cfg.Logging)
	}
}

func TestLoadMissingConfigFileIsNotFatal(t *testing.T) {
	if _, err := Load("/nonexistent/path/does-not-exist.yaml"); err != nil {
		t.Fatalf("Load() with missing file error = %v, want nil", err)
	}
}
