package config

const (
	defaultConfigPath            = "~/.config/sebasite/config.toml"
	defaultLogDir                = "~/.local/share/sebasite/logs"
	defaultAPIBind               = "127.0.0.1:8080"
	defaultRecordStoreDriver     = RecordStoreDriverREST
	defaultRecordStoreTimeout    = 10
	defaultNewsLimit             = 6
	defaultCacheDriver           = CacheDriverJSON
	defaultImageMaxDimension     = 1920
	defaultImageQuality          = 0.7
	defaultImageMaxUploadMiB     = 20
	defaultImageWorkers          = 4
	defaultGallerySampleSize     = 6
	defaultTickerSecondsPerItem  = 5
	defaultLanguage              = "tr"
	defaultAdminPassword         = "admin123"
	defaultContactRequestTimeout = 10
	defaultBlobDriver            = BlobDriverFS
	defaultBlobRegion            = "us-east-1"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

// Record store drivers.
const (
	RecordStoreDriverREST     = "rest"
	RecordStoreDriverPostgres = "postgres"
	RecordStoreDriverOffline  = "offline"
)

// Local cache drivers.
const (
	CacheDriverJSON   = "json"
	CacheDriverSQLite = "sqlite"
)

// Blob store drivers.
const (
	BlobDriverFS = "fs"
	BlobDriverS3 = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir(),
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		RecordStore: RecordStore{
			Driver:         defaultRecordStoreDriver,
			TimeoutSeconds: defaultRecordStoreTimeout,
			NewsLimit:      defaultNewsLimit,
		},
		Cache: Cache{
			Driver: defaultCacheDriver,
		},
		Images: Images{
			MaxDimension: defaultImageMaxDimension,
			Quality:      defaultImageQuality,
			MaxUploadMiB: defaultImageMaxUploadMiB,
			Workers:      defaultImageWorkers,
		},
		Gallery: Gallery{
			SampleSize: defaultGallerySampleSize,
		},
		Ticker: Ticker{
			SecondsPerItem: defaultTickerSecondsPerItem,
		},
		Site: Site{
			DefaultLanguage: defaultLanguage,
		},
		Admin: Admin{
			Password: defaultAdminPassword,
		},
		Contact: Contact{
			RequestTimeout: defaultContactRequestTimeout,
		},
		Blob: Blob{
			Driver: defaultBlobDriver,
			Region: defaultBlobRegion,
		},
		Metrics: Metrics{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
