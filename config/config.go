package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
)

type Config struct {
	// Observer is the wallet identity every metric is relative to.
	Observer string             `mapstructure:"observer"`
	Ledger   Ledger             `mapstructure:"ledger"`
	Kafka    Kafka              `mapstructure:"kafka"`
	Buffer   Buffer             `mapstructure:"buffer"`
	Web      Web                `mapstructure:"web"`
	Redis    Redis              `mapstructure:"redis"`
	Logger   Logger             `mapstructure:"logger"`
	Simulate Simulate           `mapstructure:"simulate"`
	Restock  []entity.StockItem `mapstructure:"restock"`
}

type Ledger struct {
	// Contract is the ledger contract address commands are addressed to.
	Contract string `mapstructure:"contract"`
}

type Kafka struct {
	Brokers  []string `mapstructure:"brokers"`
	Group    string   `mapstructure:"group"`
	Topics   Topics   `mapstructure:"topics"`
	ClientID string   `mapstructure:"client_id"`
}

type Topics struct {
	InvoiceCreated   string `mapstructure:"invoice_created"`
	InvoicePaid      string `mapstructure:"invoice_paid"`
	InventoryUpdated string `mapstructure:"inventory_updated"`
	Commands         string `mapstructure:"commands"`
}

// Channels maps every ledger channel to its topic.
func (t Topics) Channels() map[entity.Kind]string {
	return map[entity.Kind]string{
		entity.KindInvoiceCreated:   t.InvoiceCreated,
		entity.KindInvoicePaid:      t.InvoicePaid,
		entity.KindInventoryUpdated: t.InventoryUpdated,
	}
}

func (k Kafka) SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = k.ClientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest

	return cfg
}

type Buffer struct {
	Capacity int `mapstructure:"capacity"`
}

type Web struct {
	Addr string `mapstructure:"addr"`
	// Refresh is how often the snapshot is re-pushed so relative times age.
	Refresh time.Duration `mapstructure:"refresh"`
}

type Redis struct {
	// Addr empty disables the snapshot publisher.
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Logger struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Simulate struct {
	// Enabled runs the fake ledger producing random events.
	Enabled   bool          `mapstructure:"enabled"`
	Every     time.Duration `mapstructure:"every"`
	Merchant  string        `mapstructure:"merchant"`
	Customers []string      `mapstructure:"customers"`
}

// Build reads .env, environment variables and an optional baseflow.yaml
// on top of the defaults below. Env names are keys with "." as "_",
// e.g. KAFKA_BROKERS or WEB_ADDR.
func Build(paths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("baseflow")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("observer", "")
	v.SetDefault("ledger.contract", "")

	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.group", "baseflow")
	v.SetDefault("kafka.client_id", "baseflow")
	v.SetDefault("kafka.topics.invoice_created", "invoice-created")
	v.SetDefault("kafka.topics.invoice_paid", "invoice-paid")
	v.SetDefault("kafka.topics.inventory_updated", "inventory-updated")
	v.SetDefault("kafka.topics.commands", "ledger-commands")

	v.SetDefault("buffer.capacity", 10)

	v.SetDefault("web.addr", "127.0.0.1:4242")
	v.SetDefault("web.refresh", time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)

	v.SetDefault("simulate.enabled", false)
	v.SetDefault("simulate.every", 2*time.Second)
	v.SetDefault("simulate.merchant", "")
	v.SetDefault("simulate.customers", []string{})
}

func (c *Config) Validate() error {
	var errs []error

	if c.Observer == "" {
		errs = append(errs, errors.New("observer is required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka brokers cannot be empty"))
	}
	for kind, topic := range c.Kafka.Topics.Channels() {
		if topic == "" {
			errs = append(errs, fmt.Errorf("kafka topic for %s cannot be empty", kind))
		}
	}
	if c.Kafka.Topics.Commands == "" {
		errs = append(errs, errors.New("kafka commands topic cannot be empty"))
	}
	if c.Buffer.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("buffer capacity must be positive, got %d", c.Buffer.Capacity))
	}
	if c.Web.Refresh <= 0 {
		errs = append(errs, errors.New("web refresh must be positive"))
	}
	if c.Simulate.Enabled && c.Simulate.Every <= 0 {
		errs = append(errs, errors.New("simulate every must be positive"))
	}
	for _, item := range c.Restock {
		if _, err := entity.ParseUnits(item.Price); err != nil {
			errs = append(errs, fmt.Errorf("restock %s: %w", item.ID, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
