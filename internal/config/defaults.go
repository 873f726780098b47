package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "sqlite"
	}
	if cfg.Index.Table == "" {
		cfg.Index.Table = "places"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/revgeo/data/db/places.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/revgeo/data/indices/bleve"
	}
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.User == "" {
		cfg.Postgres.User = "postgres"
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = "revgeo"
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = 50
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = 25
	}
	if cfg.Search.InitialDelta == 0 {
		cfg.Search.InitialDelta = 0.0004
	}
	if cfg.Search.MaxDelta == 0 {
		cfg.Search.MaxDelta = 180
	}
	if cfg.Search.MaxIterations == 0 {
		cfg.Search.MaxIterations = 20
	}
	if cfg.Search.DefaultCount == 0 {
		cfg.Search.DefaultCount = 20
	}
	if cfg.Search.MaxCount == 0 {
		cfg.Search.MaxCount = 100
	}
	if cfg.Attributes.Names == nil {
		cfg.Attributes.Names = []string{"country_code", "class"}
	}
	if cfg.Attributes.MaxValues == 0 {
		cfg.Attributes.MaxValues = 1000
	}
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = "localhost:6379"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 3600
	}
	if cfg.Cache.GeohashPrecision == 0 {
		cfg.Cache.GeohashPrecision = 12
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".tsv", ".gz"}
	}
	if cfg.Import.BatchSize == 0 {
		cfg.Import.BatchSize = 1000
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
}
