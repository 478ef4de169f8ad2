package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecordStore()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeImages()
	c.normalizeSite()
	c.normalizeAdmin()
	c.normalizeContact()
	if err := c.normalizeBlob(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeRecordStore() {
	c.RecordStore.Driver = strings.ToLower(strings.TrimSpace(c.RecordStore.Driver))
	if c.RecordStore.Driver == "" {
		c.RecordStore.Driver = defaultRecordStoreDriver
	}
	c.RecordStore.BaseURL = strings.TrimRight(strings.TrimSpace(c.RecordStore.BaseURL), "/")
	if c.RecordStore.BaseURL == "" {
		if value, ok := os.LookupEnv("SEBASITE_RECORD_STORE_URL"); ok {
			c.RecordStore.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.RecordStore.APIKey = strings.TrimSpace(c.RecordStore.APIKey)
	if c.RecordStore.APIKey == "" {
		if value, ok := os.LookupEnv("SEBASITE_RECORD_STORE_API_KEY"); ok {
			c.RecordStore.APIKey = strings.TrimSpace(value)
		}
	}
	c.RecordStore.DSN = strings.TrimSpace(c.RecordStore.DSN)
	if c.RecordStore.DSN == "" {
		if value, ok := os.LookupEnv("SEBASITE_RECORD_STORE_DSN"); ok {
			c.RecordStore.DSN = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DATABASE_URL"); ok {
			c.RecordStore.DSN = strings.TrimSpace(value)
		}
	}
	if c.RecordStore.TimeoutSeconds <= 0 {
		c.RecordStore.TimeoutSeconds = defaultRecordStoreTimeout
	}
	if c.RecordStore.NewsLimit <= 0 {
		c.RecordStore.NewsLimit = defaultNewsLimit
	}
}

func (c *Config) normalizeCache() error {
	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	if c.Cache.Driver == "" {
		c.Cache.Driver = defaultCacheDriver
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		name := "cache.json"
		if c.Cache.Driver == CacheDriverSQLite {
			name = "cache.db"
		}
		c.Cache.Path = filepath.Join(c.Paths.DataDir, name)
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeImages() {
	if c.Images.MaxDimension <= 0 {
		c.Images.MaxDimension = defaultImageMaxDimension
	}
	if c.Images.Quality == 0 {
		c.Images.Quality = defaultImageQuality
	}
	if c.Images.MaxUploadMiB <= 0 {
		c.Images.MaxUploadMiB = defaultImageMaxUploadMiB
	}
	if c.Images.Workers <= 0 {
		c.Images.Workers = defaultImageWorkers
	}
	if c.Gallery.SampleSize <= 0 {
		c.Gallery.SampleSize = defaultGallerySampleSize
	}
	if c.Ticker.SecondsPerItem <= 0 {
		c.Ticker.SecondsPerItem = defaultTickerSecondsPerItem
	}
}

func (c *Config) normalizeSite() {
	c.Site.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Site.DefaultLanguage))
	if c.Site.DefaultLanguage == "" {
		c.Site.DefaultLanguage = defaultLanguage
	}
}

func (c *Config) normalizeAdmin() {
	if value, ok := os.LookupEnv("SEBASITE_ADMIN_PASSWORD"); ok && strings.TrimSpace(value) != "" {
		c.Admin.Password = value
	}
	if c.Admin.Password == "" {
		c.Admin.Password = defaultAdminPassword
	}
	c.Admin.APIToken = strings.TrimSpace(c.Admin.APIToken)
	if c.Admin.APIToken == "" {
		if value, ok := os.LookupEnv("SEBASITE_ADMIN_API_TOKEN"); ok {
			c.Admin.APIToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeContact() {
	c.Contact.NtfyTopic = strings.TrimSpace(c.Contact.NtfyTopic)
	if c.Contact.NtfyTopic == "" {
		if value, ok := os.LookupEnv("SEBASITE_CONTACT_NTFY_TOPIC"); ok {
			c.Contact.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Contact.RequestTimeout <= 0 {
		c.Contact.RequestTimeout = defaultContactRequestTimeout
	}
}

func (c *Config) normalizeBlob() error {
	c.Blob.Driver = strings.ToLower(strings.TrimSpace(c.Blob.Driver))
	if c.Blob.Driver == "" {
		c.Blob.Driver = defaultBlobDriver
	}
	if strings.TrimSpace(c.Blob.Dir) == "" {
		c.Blob.Dir = filepath.Join(c.Paths.DataDir, "exports")
	}
	var err error
	if c.Blob.Dir, err = expandPath(c.Blob.Dir); err != nil {
		return fmt.Errorf("blob.dir: %w", err)
	}
	c.Blob.Bucket = strings.TrimSpace(c.Blob.Bucket)
	c.Blob.Endpoint = strings.TrimSpace(c.Blob.Endpoint)
	c.Blob.Region = strings.TrimSpace(c.Blob.Region)
	if c.Blob.Region == "" {
		c.Blob.Region = defaultBlobRegion
	}
	c.Blob.AccessKeyID = strings.TrimSpace(c.Blob.AccessKeyID)
	c.Blob.SecretAccessKey = strings.TrimSpace(c.Blob.SecretAccessKey)
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
