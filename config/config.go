package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	ScholarBaseURL string `envconfig:"SCHOLAR_BASE_URL" default:"https://scholar.google.com"`

	// Scrape-Limits gegenüber der externen Quelle
	ScrapeConcurrency int           `envconfig:"SCRAPE_CONCURRENCY" default:"3"`
	ScrapeMinDelay    time.Duration `envconfig:"SCRAPE_MIN_DELAY" default:"500ms"`
	FetchTimeout      time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	PageSize          int           `envconfig:"SCRAPE_PAGE_SIZE" default:"20"`
	MaxPublications   int           `envconfig:"SCRAPE_MAX_PUBLICATIONS" default:"200"`

	// Cache-TTLs für die Analyse-Endpunkte
	AnalysisCacheTTL     time.Duration `envconfig:"ANALYSIS_CACHE_TTL" default:"1h"`
	PublicationsCacheTTL time.Duration `envconfig:"PUBLICATIONS_CACHE_TTL" default:"30m"`

	// Cron-Job zum Auffrischen veralteter Profile
	CronSchedule     string        `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
	ProfileStaleness time.Duration `envconfig:"PROFILE_STALENESS" default:"168h"`

	// Optionales S3-Archiv für rohe Listing-Seiten
	PageArchiveEnabled bool   `envconfig:"PAGE_ARCHIVE_ENABLED" default:"false"`
	StratoS3Key        string `envconfig:"STRATO_S3_KEY"`
	StratoS3Secret     string `envconfig:"STRATO_S3_SECRET"`
	StratoS3URL        string `envconfig:"STRATO_S3_URL"`
	StratoS3Region     string `envconfig:"STRATO_S3_REGION"`
	StratoS3Bucket     string `envconfig:"STRATO_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
