package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/nursedesk/data/knowledge.db"
	}
	if cfg.Bot.MaxHistory == 0 {
		cfg.Bot.MaxHistory = 10
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".md", ".txt", ".pdf", ".docx", ".xlsx"}
	}
	if cfg.Ingest.DefaultDepartment == "" {
		cfg.Ingest.DefaultDepartment = "general"
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Ingest.Directories) > 0 && cfg.Ingest.Recursive == nil {
		t := true
		cfg.Ingest.Recursive = &t
	}
}
