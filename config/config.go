package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultDBName = "college_events_db"

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	Port        int    `env:"PORT" envDefault:"5000"`
	APIBasePath string `env:"API_BASE_PATH" envDefault:"/api"`

	MongoURI string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017/college_events_db"`
	DBName   string `env:"DB_NAME"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"college-events"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	UploadsDir     string `env:"UPLOADS_DIR" envDefault:"./uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	// Cloudinary replaces local disk uploads when all three are set.
	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	ZeptoAPIURL string `env:"ZEPTO_API_URL"`
	ZeptoAPIKey string `env:"ZEPTO_API_KEY"`
	EmailFrom   string `env:"EMAIL_FROM"`

	MongoClient *mongo.Client `env:"-"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DBName == "" {
		cfg.DBName = dbNameFromURI(cfg.MongoURI)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	cfg.APIBasePath = "/" + strings.Trim(cfg.APIBasePath, "/")
	if cfg.APIBasePath == "/" {
		cfg.APIBasePath = ""
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Connect dials MongoDB and stores the client on the config.
func (c *Config) Connect(ctx context.Context) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	c.MongoClient = client
	return client, nil
}

func (c *Config) Database() *mongo.Database {
	return c.MongoClient.Database(c.DBName)
}

func dbNameFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDBName
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultDBName
}
