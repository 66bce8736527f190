package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"5"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Gemini struct {
		APIKey      string        `envconfig:"GEMINI_API_KEY"`
		BaseURL     string        `envconfig:"GEMINI_BASE_URL"`
		Model       string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
		VisionModel string        `envconfig:"GEMINI_VISION_MODEL" default:"gemini-2.5-flash"`
		Timeout     time.Duration `envconfig:"GEMINI_TIMEOUT" default:"120s"`
	} `envconfig:""`

	YouTube struct {
		APIKey  string `envconfig:"YOUTUBE_API_KEY"`
		BaseURL string `envconfig:"YOUTUBE_BASE_URL"`
	} `envconfig:""`

	Steam struct {
		BaseURL string `envconfig:"STEAM_BASE_URL"`
	} `envconfig:""`

	Telegram struct {
		Token  string `envconfig:"TG_BOT_TOKEN"`
		ChatID int64  `envconfig:"TG_ADMIN_CHAT_ID"`
	} `envconfig:""`

	Pipeline struct {
		Author       string        `envconfig:"ARTICLE_AUTHOR" default:"Редакция"`
		MaxArticles  int           `envconfig:"MAX_ARTICLES" default:"1"`
		ItemInterval time.Duration `envconfig:"ITEM_INTERVAL" default:"5s"`
		LockTTL      time.Duration `envconfig:"RUN_LOCK_TTL" default:"30m"`
	} `envconfig:""`

	Queues struct {
		Generation string `envconfig:"GENERATION_QUEUE" default:"generation_jobs"`
	} `envconfig:""`

	Scheduler struct {
		Interval time.Duration `envconfig:"SCHEDULE_INTERVAL" default:"24h"`
	} `envconfig:""`

	FeedsFile string `envconfig:"FEEDS_FILE" default:"feeds.yaml"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Feed — одна RSS-лента из файла конфигурации.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type feedsFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// defaultFeeds используется, когда файл лент отсутствует.
var defaultFeeds = []Feed{
	{Name: "4Gamer.net", URL: "https://www.4gamer.net/rss/index.xml"},
	{Name: "AUTOMATON", URL: "https://automaton-media.com/feed/"},
	{Name: "Game*Spark", URL: "https://www.gamespark.jp/feed/index.xml"},
}

// LoadFeeds читает список RSS-лент из YAML-файла.
// Отсутствующий файл не ошибка: возвращается встроенный набор лент.
func LoadFeeds(path string) ([]Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultFeeds, nil
		}
		return nil, fmt.Errorf("чтение файла лент: %w", err)
	}
	var parsed feedsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("разбор файла лент: %w", err)
	}
	if len(parsed.Feeds) == 0 {
		return defaultFeeds, nil
	}
	return parsed.Feeds, nil
}
