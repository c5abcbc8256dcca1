package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	BackendConfig struct {
		BaseURL          string
		Token            string
		Timeout          time.Duration
		RateLimit        float64 // requests per second; 0 disables limiting
		RateBurst        int
		RetryMax         int
		RetryBaseDelay   time.Duration
		RetryMaxDelay    time.Duration
		ListCacheTTL     time.Duration
		BreakerThreshold int
		BreakerTimeout   time.Duration
	}

	WizardConfig struct {
		SessionTTL      time.Duration
		FollowUpTimeout time.Duration
		ImageMaxWidth   int
		ImageMaxHeight  int
		MaxUploadSize   int64
	}

	NotifyConfig struct {
		EmailWarnings bool
	}

	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		WorkDir          string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address

		Server  ServerConfig
		Backend BackendConfig
		Wizard  WizardConfig
		Notify  NotifyConfig
	}
)

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
func NewConfig() *Config {
	conf, err := LoadConfig(Getwd())
	if err != nil {
		panic(err)
	}
	return conf
}

// LoadConfig is like NewConfig but looks for the dotenv files under `workDir` and returns errors instead.
func LoadConfig(workDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:        v.GetString("appName"),
		Env:            env,
		Build:          v.GetString("build"),
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		WorkDir:        workDir,
		SecretKey:      v.GetString("secretKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Backend: BackendConfig{
			BaseURL:          strings.TrimRight(v.GetString("backend.baseURL"), "/"),
			Token:            v.GetString("backend.token"),
			Timeout:          v.GetDuration("backend.timeout"),
			RateLimit:        v.GetFloat64("backend.rateLimit"),
			RateBurst:        v.GetInt("backend.rateBurst"),
			RetryMax:         v.GetInt("backend.retryMax"),
			RetryBaseDelay:   v.GetDuration("backend.retryBaseDelay"),
			RetryMaxDelay:    v.GetDuration("backend.retryMaxDelay"),
			ListCacheTTL:     v.GetDuration("backend.listCacheTTL"),
			BreakerThreshold: v.GetInt("backend.breakerThreshold"),
			BreakerTimeout:   v.GetDuration("backend.breakerTimeout"),
		},
		Wizard: WizardConfig{
			SessionTTL:      v.GetDuration("wizard.sessionTTL"),
			FollowUpTimeout: v.GetDuration("wizard.followUpTimeout"),
			ImageMaxWidth:   v.GetInt("wizard.imageMaxWidth"),
			ImageMaxHeight:  v.GetInt("wizard.imageMaxHeight"),
			MaxUploadSize:   v.GetInt64("wizard.maxUploadSize"),
		},
		Notify: NotifyConfig{
			EmailWarnings: v.GetBool("notify.emailWarnings"),
		},
	}
	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Tutordesk")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("backend.baseURL", "http://localhost:5000/api")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.rateLimit", 20.0)
	v.SetDefault("backend.rateBurst", 10)
	v.SetDefault("backend.retryMax", 2)
	v.SetDefault("backend.retryBaseDelay", 100*time.Millisecond)
	v.SetDefault("backend.retryMaxDelay", 2*time.Second)
	v.SetDefault("backend.listCacheTTL", 30*time.Second)
	v.SetDefault("backend.breakerThreshold", 5)
	v.SetDefault("backend.breakerTimeout", 30*time.Second)

	v.SetDefault("wizard.sessionTTL", 2*time.Hour)
	v.SetDefault("wizard.followUpTimeout", 10*time.Minute)
	v.SetDefault("wizard.imageMaxWidth", 1920)
	v.SetDefault("wizard.imageMaxHeight", 1080)
	v.SetDefault("wizard.maxUploadSize", int64(512<<20))

	v.SetDefault("notify.emailWarnings", false)
}
