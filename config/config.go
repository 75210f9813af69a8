package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/cfssl/log"
	"github.com/joho/godotenv"
	viper2 "github.com/spf13/viper"
)

// 环境变量前缀，例如 POOL_REDIS_ADDR 覆盖 redis.addr
const EnvPrefix = "POOL"

type Config struct {
	Node   NodeConfig
	Client ClientConfig
	Redis  RedisConfig
	Log    LogConfig
}

type NodeConfig struct {
	DataDir  string // levelDB 目录，为空时使用内存数据库
	Contract string // 合约名称，用来生成合约地址
}

type ClientConfig struct {
	Addr        string
	SSLRedirect bool
	SSLHost     string
	CertFile    string
	KeyFile     string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	EventKey string
}

type LogConfig struct {
	Level string
}

func setDefaults(v *viper2.Viper) {
	v.SetDefault("node.data_dir", "./data")
	v.SetDefault("node.contract", "distribution")
	v.SetDefault("client.addr", ":8080")
	v.SetDefault("client.ssl_redirect", false)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.event_key", "contractEvents")
	v.SetDefault("log.level", "info")
}

// Load 读取 path 指定的 yaml 配置，path 为空时只使用默认值和环境变量
// 当前目录下的 .env 会先被加载到环境变量中（可选）
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env not loaded: ", err)
	}

	viper := viper2.New()
	setDefaults(viper)
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		Node: NodeConfig{
			DataDir:  viper.GetString("node.data_dir"),
			Contract: viper.GetString("node.contract"),
		},
		Client: ClientConfig{
			Addr:        viper.GetString("client.addr"),
			SSLRedirect: viper.GetBool("client.ssl_redirect"),
			SSLHost:     viper.GetString("client.ssl_host"),
			CertFile:    viper.GetString("client.cert_file"),
			KeyFile:     viper.GetString("client.key_file"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
			EventKey: viper.GetString("redis.event_key"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Node.Contract) == "" {
		return errors.New("config: node.contract must not be empty")
	}
	if strings.TrimSpace(c.Client.Addr) == "" {
		return errors.New("config: client.addr must not be empty")
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("config: redis.addr is required when redis is enabled")
	}
	if (c.Client.CertFile == "") != (c.Client.KeyFile == "") {
		return errors.New("config: client.cert_file and client.key_file must be set together")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel 将配置中的日志级别转换为 cfssl log 的级别
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.LevelDebug, nil
	case "", "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarning, nil
	case "error":
		return log.LevelError, nil
	case "critical":
		return log.LevelCritical, nil
	case "fatal":
		return log.LevelFatal, nil
	}
	return 0, fmt.Errorf("config: unknown log level %q", s)
}

// TLS 证书和私钥都配置时使用 https
func (c ClientConfig) TLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}
