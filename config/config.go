package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/paperledger/paperledger/internal/entity"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds the runtime configuration of the ledger service.
type Config struct {
	Listen       string
	AccountID    string
	Pair         entity.Pair
	Storage      string
	JournalDir   string
	KafkaBrokers []string
	KafkaTopic   string
}

type configTmp struct {
	Listen       string   `yaml:"listen"`
	AccountID    string   `yaml:"account_id"`
	Pair         string   `yaml:"pair"`
	Storage      string   `yaml:"storage"`
	JournalDir   string   `yaml:"journal_dir,omitempty"`
	KafkaBrokers []string `yaml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `yaml:"kafka_topic,omitempty"`
}

// Get loads configuration from a yaml file when --config is provided,
// otherwise from CLI flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listen := flag.String("listen", ":8080", "http listen address")
	account := flag.String("account", "default", "ledger account identifier")
	pairFlag := flag.String("pair", "BTC_USDT", "trade pair, example: BTC_USDT")
	storageFlag := flag.String("storage", StorageMemory, "balance store backend: memory or postgres")
	journalDir := flag.String("journaldir", "", "trade journal directory, empty disables the journal")
	brokers := flag.String("kafkabrokers", "", "comma-separated kafka brokers, empty disables events")
	topic := flag.String("kafkatopic", "", "kafka topic for trade events")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	pair, err := entity.PairFromString(*pairFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pair provided, --pair=%s: %w", *pairFlag, err)
	}

	cfg := Config{
		Listen:     *listen,
		AccountID:  *account,
		Pair:       pair,
		Storage:    *storageFlag,
		JournalDir: *journalDir,
		KafkaTopic: *topic,
	}
	if *brokers != "" {
		cfg.KafkaBrokers = strings.Split(*brokers, ",")
	}

	return cfg, validate(cfg)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	if tmp.Pair == "" {
		tmp.Pair = "BTC_USDT"
	}
	pair, err := entity.PairFromString(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", tmp.Pair, err)
	}

	cfg := Config{
		Listen:       tmp.Listen,
		AccountID:    tmp.AccountID,
		Pair:         pair,
		Storage:      tmp.Storage,
		JournalDir:   tmp.JournalDir,
		KafkaBrokers: tmp.KafkaBrokers,
		KafkaTopic:   tmp.KafkaTopic,
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.AccountID == "" {
		cfg.AccountID = "default"
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageMemory
	}

	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	switch cfg.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unsupported storage backend %q, expected %q or %q", cfg.Storage, StorageMemory, StoragePostgres)
	}
	return nil
}
