package config

func loadDevelopmentConfig(cfg *Config) {
	cfg.DatabaseDebug = true
	if cfg.DatabaseFilePath == "" {
		cfg.DatabaseFilePath = "./tmp/library.sqlite"
	}
	if cfg.ServerHost == "0.0.0.0" {
		cfg.ServerHost = "127.0.0.1"
	}
}
