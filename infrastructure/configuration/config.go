package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"vidfeed/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Apify       Apify       `json:"apify"`
	Storage     Storage     `json:"storage"`
	Events      Events      `json:"events"`
	Pipeline    Pipeline    `json:"pipeline"`
}

type App struct {
	Port           int      `json:"port"`
	TLSEnabled     bool     `json:"tlsEnabled"`
	TLSCertFile    string   `json:"tlsCertFile"`
	TLSKeyFile     string   `json:"tlsKeyFile"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

type Database struct {
	Vendor string `json:"vendor"`
	Psql   Db     `json:"psql"`
	Mssql  Db     `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

// Apify holds the scraping actor service credentials and actor ids
type Apify struct {
	Token              string `json:"token"`
	BaseURL            string `json:"baseURL"`
	TikTokActor        string `json:"tiktokActor"`
	InstagramActor     string `json:"instagramActor"`
	WaitTimeoutSeconds int    `json:"waitTimeoutSeconds"`
}

// Storage selects the object storage provider and how catalog URLs are built
type Storage struct {
	Provider    string      `json:"provider"`
	URLStrategy string      `json:"urlStrategy"`
	UploadThing UploadThing `json:"uploadThing"`
	S3          S3          `json:"s3"`
}

type UploadThing struct {
	Token   string `json:"token"`
	AppID   string `json:"appId"`
	BaseURL string `json:"baseURL"`
}

type S3 struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"accessKeyID"`
	SecretAccessKey string `json:"secretAccessKey"`
	PublicBaseURL   string `json:"publicBaseURL"`
	UsePathStyle    bool   `json:"usePathStyle"`
}

// Events selects the bus that receives video.published events: pubsub, servicebus or none
type Events struct {
	Provider string `json:"provider"`
}

type Pipeline struct {
	EagerFetchMaxBytes int64 `json:"eagerFetchMaxBytes"`
	UploadMaxBytes     int64 `json:"uploadMaxBytes"`
	StatusTTLHours     int   `json:"statusTTLHours"`
}

const (
	DefaultPort               = 10001
	DefaultApifyBaseURL       = "https://api.apify.com"
	DefaultTikTokActor        = "GdWCkxBtKWOsKjdch"
	DefaultInstagramActor     = "shu8hvrXbJbY3Eb9W"
	DefaultWaitTimeoutSeconds = 300
	DefaultEagerFetchMaxBytes = 50 << 20
	DefaultUploadMaxBytes     = 512 << 20
	DefaultStatusTTLHours     = 24

	URLStrategyDomain = "domain"
	URLStrategySigned = "signed"

	ProviderUploadThing = "uploadthing"
	ProviderS3          = "s3"

	EventsPubSub     = "pubsub"
	EventsServiceBus = "servicebus"
)

var C Config

func init() {
	Reload()
}

// Reload rebuilds C from the config file and the current environment.
func Reload() {
	C = Config{}
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initApify(&C)
	initStorage(&C)
	initEvents(&C)
	initPipeline(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

// envOr fills dst from the environment when it is still empty.
func envOr(dst *string, keys ...string) {
	if *dst != "" {
		return
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
			return
		}
	}
}

func initDatabase(C *Config) {
	envOr(&C.Database.Vendor, "DB_VENDOR")
	envOr(&C.Database.Psql.Name, "DB_NAME")
	envOr(&C.Database.Psql.Host, "DB_HOST")
	envOr(&C.Database.Psql.Port, "DB_PORT")
	envOr(&C.Database.Psql.User, "DB_USER")
	envOr(&C.Database.Psql.Password, "DB_PASSWORD")
	envOr(&C.Database.Psql.SSLMode, "DB_SSLMODE")
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = "5432"
	}
	if C.Database.Psql.SSLMode == "" {
		C.Database.Psql.SSLMode = "disable"
	}

	// Azure SQL in production
	envOr(&C.Database.Mssql.Name, "MSSQL_DB_NAME")
	envOr(&C.Database.Mssql.Host, "MSSQL_HOST")
	envOr(&C.Database.Mssql.Port, "MSSQL_PORT")
	envOr(&C.Database.Mssql.User, "MSSQL_USER")
	envOr(&C.Database.Mssql.Password, "MSSQL_PASSWORD")
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = "1433"
	}

	envOr(&C.RedisClient.Host, "REDIS_HOST")
	envOr(&C.RedisClient.Port, "REDIS_PORT")
	envOr(&C.RedisClient.Username, "REDIS_USERNAME")
	envOr(&C.RedisClient.Password, "REDIS_PASSWORD")
	envOr(&C.RedisClient.DatabaseName, "REDIS_DB")

	logger.GetLogger().WithFields(map[string]interface{}{
		"vendor":    C.Database.Vendor,
		"psqlHost":  C.Database.Psql.Host,
		"mssqlHost": C.Database.Mssql.Host,
		"redisHost": C.RedisClient.Host,
	}).Info("Database configuration")
}

func initApp(C *Config) {
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = DefaultPort
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	envOr(&C.App.TLSCertFile, "TLS_CERT_FILE")
	envOr(&C.App.TLSKeyFile, "TLS_KEY_FILE")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" && len(C.App.AllowedOrigins) == 0 {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				C.App.AllowedOrigins = append(C.App.AllowedOrigins, o)
			}
		}
	}
	if C.App.TLSEnabled {
		logger.GetLogger().WithFields(map[string]interface{}{"cert": C.App.TLSCertFile, "key": C.App.TLSKeyFile}).Info("TLS enabled via configuration")
	}
}

func initApify(C *Config) {
	envOr(&C.Apify.Token, "APIFY_TOKEN", "APIFY_API_TOKEN")
	envOr(&C.Apify.BaseURL, "APIFY_BASE_URL")
	envOr(&C.Apify.TikTokActor, "APIFY_TIKTOK_ACTOR")
	envOr(&C.Apify.InstagramActor, "APIFY_INSTAGRAM_ACTOR")
	if C.Apify.BaseURL == "" {
		C.Apify.BaseURL = DefaultApifyBaseURL
	}
	if C.Apify.TikTokActor == "" {
		C.Apify.TikTokActor = DefaultTikTokActor
	}
	if C.Apify.InstagramActor == "" {
		C.Apify.InstagramActor = DefaultInstagramActor
	}
	if v := os.Getenv("APIFY_WAIT_TIMEOUT_SECONDS"); v != "" && C.Apify.WaitTimeoutSeconds == 0 {
		if s, err := strconv.Atoi(v); err == nil {
			C.Apify.WaitTimeoutSeconds = s
		}
	}
	if C.Apify.WaitTimeoutSeconds <= 0 {
		C.Apify.WaitTimeoutSeconds = DefaultWaitTimeoutSeconds
	}
	if C.Apify.Token == "" {
		logger.GetLogger().Warn("APIFY_TOKEN not set; submissions will fail with a configuration error")
	}
}

func initStorage(C *Config) {
	envOr(&C.Storage.Provider, "STORAGE_PROVIDER")
	envOr(&C.Storage.URLStrategy, "STORAGE_URL_STRATEGY")
	envOr(&C.Storage.UploadThing.Token, "UPLOADTHING_TOKEN", "UPLOADTHING_SECRET")
	envOr(&C.Storage.UploadThing.AppID, "UPLOADTHING_APP_ID")
	envOr(&C.Storage.UploadThing.BaseURL, "UPLOADTHING_BASE_URL")
	envOr(&C.Storage.S3.Bucket, "S3_BUCKET")
	envOr(&C.Storage.S3.Region, "S3_REGION", "AWS_REGION")
	envOr(&C.Storage.S3.Endpoint, "S3_ENDPOINT")
	envOr(&C.Storage.S3.AccessKeyID, "S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	envOr(&C.Storage.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	envOr(&C.Storage.S3.PublicBaseURL, "S3_PUBLIC_BASE_URL")
	if v := os.Getenv("S3_USE_PATH_STYLE"); v == "true" || v == "1" {
		C.Storage.S3.UsePathStyle = true
	}
	C.Storage.Provider = strings.ToLower(C.Storage.Provider)
	if C.Storage.Provider == "" {
		C.Storage.Provider = ProviderUploadThing
	}
	C.Storage.URLStrategy = strings.ToLower(C.Storage.URLStrategy)
	if C.Storage.URLStrategy == "" {
		C.Storage.URLStrategy = URLStrategyDomain
	}
}

func initEvents(C *Config) {
	envOr(&C.Events.Provider, "EVENTS_PROVIDER")
	envOr(&C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID")
	envOr(&C.Pubsub.Topic, "PUBSUB_TOPIC")
	envOr(&C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE")
	envOr(&C.ServiceBus.Queue, "SERVICEBUS_QUEUE")
	C.Events.Provider = strings.ToLower(C.Events.Provider)
	if C.Pubsub.Topic == "" {
		C.Pubsub.Topic = "video-published"
	}
	if C.ServiceBus.Queue == "" {
		C.ServiceBus.Queue = "video-published"
	}
}

func initPipeline(C *Config) {
	if C.Pipeline.EagerFetchMaxBytes <= 0 {
		C.Pipeline.EagerFetchMaxBytes = DefaultEagerFetchMaxBytes
	}
	if C.Pipeline.UploadMaxBytes <= 0 {
		C.Pipeline.UploadMaxBytes = DefaultUploadMaxBytes
	}
	if C.Pipeline.StatusTTLHours <= 0 {
		C.Pipeline.StatusTTLHours = DefaultStatusTTLHours
	}
}
