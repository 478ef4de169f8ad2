package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRecordStore(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateBlob(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"record_store.timeout_seconds": c.RecordStore.TimeoutSeconds,
		"record_store.news_limit":      c.RecordStore.NewsLimit,
		"gallery.sample_size":          c.Gallery.SampleSize,
		"ticker.seconds_per_item":      c.Ticker.SecondsPerItem,
		"contact.request_timeout":      c.Contact.RequestTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRecordStore() error {
	switch c.RecordStore.Driver {
	case RecordStoreDriverREST:
		if c.RecordStore.BaseURL == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("record_store.base_url is required for the rest driver. Set SEBASITE_RECORD_STORE_URL or edit %s (create with 'sebasite config init'), or set record_store.driver = \"offline\"", defaultPath)
		}
		if !strings.HasPrefix(c.RecordStore.BaseURL, "http://") && !strings.HasPrefix(c.RecordStore.BaseURL, "https://") {
			return errors.New("record_store.base_url must start with http:// or https://")
		}
	case RecordStoreDriverPostgres:
		if c.RecordStore.DSN == "" {
			return errors.New("record_store.dsn must be set when record_store.driver is postgres (or set SEBASITE_RECORD_STORE_DSN)")
		}
	case RecordStoreDriverOffline:
	default:
		return fmt.Errorf("record_store.driver must be one of rest, postgres, offline (got %q)", c.RecordStore.Driver)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Driver {
	case CacheDriverJSON, CacheDriverSQLite:
	default:
		return fmt.Errorf("cache.driver must be json or sqlite (got %q)", c.Cache.Driver)
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set")
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.MaxDimension <= 0 {
		return errors.New("images.max_dimension must be positive")
	}
	if c.Images.Quality <= 0 || c.Images.Quality > 1 {
		return errors.New("images.quality must be in (0, 1]")
	}
	if c.Images.MaxUploadMiB <= 0 {
		return errors.New("images.max_upload_mib must be positive")
	}
	if c.Images.Workers <= 0 {
		return errors.New("images.workers must be positive")
	}
	return nil
}

func (c *Config) validateSite() error {
	switch c.Site.DefaultLanguage {
	case "en", "tr":
		return nil
	default:
		return fmt.Errorf("site.default_language must be en or tr (got %q)", c.Site.DefaultLanguage)
	}
}

func (c *Config) validateBlob() error {
	switch c.Blob.Driver {
	case BlobDriverFS:
		if c.Blob.Dir == "" {
			return errors.New("blob.dir must be set when blob.driver is fs")
		}
	case BlobDriverS3:
		if c.Blob.Bucket == "" {
			return errors.New("blob.bucket must be set when blob.driver is s3")
		}
		if (c.Blob.AccessKeyID == "") != (c.Blob.SecretAccessKey == "") {
			return errors.New("blob.access_key_id and blob.secret_access_key must be set together")
		}
	default:
		return fmt.Errorf("blob.driver must be fs or s3 (got %q)", c.Blob.Driver)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
