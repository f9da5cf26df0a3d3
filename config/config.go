package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "GERADOR"

type Config struct {
	Client    ClientConfig    `mapstructure:"client"`
	Connect   ConnectConfig   `mapstructure:"connect"`
	Log       LogConfig       `mapstructure:"log"`
	Defaults  FormDefaults    `mapstructure:"defaults"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

type ClientConfig struct {
	// page origin, e.g. http://localhost:8000
	Origin string `mapstructure:"origin"`
	// 0 = transport default
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	// headless runner: wait for the socket before submitting, and for the
	// resultado event after the POST settles
	ConnectWait time.Duration `mapstructure:"connect_wait"`
	ResultWait  time.Duration `mapstructure:"result_wait"`
	DownloadDir string        `mapstructure:"download_dir"`
}

type ConnectConfig struct {
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
	File   string `mapstructure:"file"`   // used by the terminal UI
}

type FormDefaults struct {
	LLMProvider   string `mapstructure:"llm_provider"`
	ImageProvider string `mapstructure:"image_provider"`
	MaxIteracoes  int    `mapstructure:"max_iteracoes"`
}

type DevServerConfig struct {
	Bind       string        `mapstructure:"bind"`
	OutputsDir string        `mapstructure:"outputs_dir"`
	StepDelay  time.Duration `mapstructure:"step_delay"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.origin", "http://localhost:8000")
	v.SetDefault("client.request_timeout", time.Duration(0))
	v.SetDefault("client.reconnect_delay", 3*time.Second)
	v.SetDefault("client.handshake_timeout", 10*time.Second)
	v.SetDefault("client.connect_wait", 10*time.Second)
	v.SetDefault("client.result_wait", 30*time.Second)
	v.SetDefault("client.download_dir", "downloads")

	v.SetDefault("connect.write_wait", 10*time.Second)
	v.SetDefault("connect.pong_wait", 60*time.Second)
	v.SetDefault("connect.ping_period", 54*time.Second)
	v.SetDefault("connect.max_message_size", int64(8<<20))
	v.SetDefault("connect.send_buffer", 16)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "gerador.log")

	v.SetDefault("defaults.llm_provider", "anthropic")
	v.SetDefault("defaults.image_provider", "openai")
	v.SetDefault("defaults.max_iteracoes", 3)

	v.SetDefault("devserver.bind", ":8000")
	v.SetDefault("devserver.outputs_dir", "outputs")
	v.SetDefault("devserver.step_delay", 300*time.Millisecond)
}

// Load reads .env, the optional config file and GERADOR_* variables, in
// increasing priority. An empty path searches ./gerador.yaml.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gerador")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Client.Origin) == "" {
		return errors.New("client.origin is required")
	}
	if c.Client.ReconnectDelay <= 0 {
		return errors.Errorf("client.reconnect_delay must be positive, got %s", c.Client.ReconnectDelay)
	}
	if c.Client.ConnectWait <= 0 {
		return errors.Errorf("client.connect_wait must be positive, got %s", c.Client.ConnectWait)
	}
	for _, w := range []struct {
		name string
		d    time.Duration
	}{
		{"connect.write_wait", c.Connect.WriteWait},
		{"connect.pong_wait", c.Connect.PongWait},
		{"connect.ping_period", c.Connect.PingPeriod},
	} {
		if w.d <= 0 {
			return errors.Errorf("%s must be positive, got %s", w.name, w.d)
		}
	}
	if c.Connect.SendBuffer <= 0 {
		return errors.Errorf("connect.send_buffer must be positive, got %d", c.Connect.SendBuffer)
	}
	if c.Connect.PingPeriod >= c.Connect.PongWait {
		return errors.Errorf("connect.ping_period (%s) must be shorter than connect.pong_wait (%s)",
			c.Connect.PingPeriod, c.Connect.PongWait)
	}
	return nil
}
