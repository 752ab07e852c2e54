package config

import (
	"fmt"
	"time"

	coreconfig "github.com/go-core-fx/config"
)

const (
	DefaultAPIBaseURL     = "https://kofa-backend-eu-2bb681b4e51a.herokuapp.com"
	DefaultUploadBaseURL  = "https://api.cloudinary.com/v1_1"
	DefaultCloudName      = "demo"
	DefaultUploadPreset   = "docs_upload_example_us_preset"
	DefaultUploadFolder   = "kofa_products"
	DefaultCacheTTL       = 5 * time.Second
	DefaultRequestTimeout = 20 * time.Second
)

type Config struct {
	APIBaseURL     string        `koanf:"api_base_url"`
	APIToken       string        `koanf:"api_token"`
	Timeout        time.Duration `koanf:"timeout"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
	CacheRedisURL  string        `koanf:"cache_redis_url"`
	UploadBaseURL  string        `koanf:"cloudinary_base_url"`
	CloudName      string        `koanf:"cloudinary_cloud_name"`
	UploadPreset   string        `koanf:"cloudinary_upload_preset"`
	UploadFolder   string        `koanf:"upload_folder"`
	CompressImages bool          `koanf:"compress_images"`
	ChatUserID     string        `koanf:"chat_user_id"`
	LLMBaseURL     string        `koanf:"llm_base_url"`
	LLMAPIKey      string        `koanf:"llm_api_key"`
	LLMModel       string        `koanf:"llm_model"`
	LogFile        string        `koanf:"log_file"`
	Debug          bool          `koanf:"debug"`
}

// Default returns the configuration used when nothing is set in the
// environment or config files.
func Default() Config {
	return Config{
		APIBaseURL:     DefaultAPIBaseURL,
		Timeout:        DefaultRequestTimeout,
		CacheTTL:       DefaultCacheTTL,
		UploadBaseURL:  DefaultUploadBaseURL,
		CloudName:      DefaultCloudName,
		UploadPreset:   DefaultUploadPreset,
		UploadFolder:   DefaultUploadFolder,
		CompressImages: true,
		LogFile:        "./kofa-admin.log",
	}
}

func New() (Config, error) {
	cfg := Default()

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	cfg.applyFallbacks()

	return cfg, nil
}

// applyFallbacks restores demo defaults for values the loader left blank.
func (c *Config) applyFallbacks() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.UploadBaseURL == "" {
		c.UploadBaseURL = DefaultUploadBaseURL
	}
	if c.CloudName == "" {
		c.CloudName = DefaultCloudName
	}
	if c.UploadPreset == "" {
		c.UploadPreset = DefaultUploadPreset
	}
	if c.UploadFolder == "" {
		c.UploadFolder = DefaultUploadFolder
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultRequestTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
}
