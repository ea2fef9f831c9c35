package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del gateway de registro.
type Config struct {
	HTTPPort          string `env:"HTTP_PORT" envDefault:"8080"`
	OAuthClientID     string `env:"OAUTH_CLIENT_ID,required"`
	OAuthClientSecret string `env:"OAUTH_CLIENT_SECRET,required"`
	OAuthRefreshToken string `env:"OAUTH_REFRESH_TOKEN,required"`
	OAuthTokenURL     string `env:"OAUTH_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	VerificationCode  string `env:"VERIFICATION_CODE,required"`
	EmailDomainSuffix string `env:"EMAIL_DOMAIN_SUFFIX,required"`
	RegistrationLimit int    `env:"REGISTRATION_LIMIT" envDefault:"100"`
	BotVerifySiteKey  string `env:"BOT_VERIFY_SITE_KEY"`
	BotVerifySecret   string `env:"BOT_VERIFY_SECRET_KEY"`
	BotVerifyURL      string `env:"BOT_VERIFY_URL" envDefault:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	DirectoryAPIURL   string `env:"DIRECTORY_API_URL" envDefault:"https://admin.googleapis.com/admin/directory/v1/users"`
	RedisAddr         string `env:"REDIS_ADDR"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisDB           int    `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL       string `env:"DATABASE_URL"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	// Un limite no positivo equivale a no configurado.
	if cfg.RegistrationLimit <= 0 {
		cfg.RegistrationLimit = 100
	}
	return &cfg, nil
}
