package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

const (
	DefaultChunkSize        = 64 * 1024
	DefaultRefreshSchedule  = "@every 5m"
	DefaultReconnectInitial = 500 * time.Millisecond
	DefaultReconnectMax     = 30 * time.Second
)

var validate = validator.New()

// Settings is a fully resolved and validated profile.
type Settings struct {
	Profile          string        `validate:"required"`
	SocketURL        string        `validate:"required,url"`
	APIBaseURL       string        `validate:"required,url"`
	FileBaseURL      string        `validate:"required,url"`
	UserID           string        `validate:"required"`
	UserName         string
	Token            string        `validate:"required"`
	ChunkSize        int           `validate:"min=1024,max=8388608"`
	RefreshSchedule  string        `validate:"required"`
	ReconnectInitial time.Duration `validate:"gt=0"`
	ReconnectMax     time.Duration `validate:"gtefield=ReconnectInitial"`
}

// Resolve merges the named profile from cfg (may be nil), an optional .env file
// and CRMCHAT_* environment variables, fills defaults and validates the result.
func Resolve(cfg *Config, name, envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	p := cfg.Profile(name)
	applyEnv(&p)

	s := &Settings{
		Profile:         name,
		SocketURL:       p.SocketURL,
		APIBaseURL:      withSlash(p.APIBaseURL),
		FileBaseURL:     withSlash(p.FileBaseURL),
		UserID:          p.UserID,
		UserName:        p.UserName,
		Token:           strings.TrimPrefix(p.Token, "Bearer "),
		ChunkSize:       p.ChunkSize,
		RefreshSchedule: p.RefreshSchedule,
	}
	if s.FileBaseURL == "" {
		s.FileBaseURL = s.APIBaseURL
	}
	if s.ChunkSize == 0 {
		s.ChunkSize = DefaultChunkSize
	}
	if s.RefreshSchedule == "" {
		s.RefreshSchedule = DefaultRefreshSchedule
	}

	var err error
	if s.ReconnectInitial, err = parseDuration(p.ReconnectInitial, DefaultReconnectInitial); err != nil {
		return nil, fmt.Errorf("reconnect_initial: %w", err)
	}
	if s.ReconnectMax, err = parseDuration(p.ReconnectMax, DefaultReconnectMax); err != nil {
		return nil, fmt.Errorf("reconnect_max: %w", err)
	}

	if s.UserID == "" && s.Token != "" {
		if id, err := UserIDFromToken(s.Token); err == nil {
			s.UserID = id
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings against their struct tags.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			first := vErrs[0]
			return fmt.Errorf("invalid setting %s: failed %q", first.Field(), first.Tag())
		}
		return err
	}
	return nil
}

// UserIDFromToken reads the user identity from a bearer token without verifying it.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	for _, key := range []string{"id", "_id", "userId", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", errors.New("token carries no user id claim")
}

func applyEnv(p *Profile) {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv("CRMCHAT_" + key); ok && v != "" {
			*dst = v
		}
	}
	str("SOCKET_URL", &p.SocketURL)
	str("API_BASE_URL", &p.APIBaseURL)
	str("FILE_BASE_URL", &p.FileBaseURL)
	str("USER_ID", &p.UserID)
	str("USER_NAME", &p.UserName)
	str("TOKEN", &p.Token)
	str("REFRESH_SCHEDULE", &p.RefreshSchedule)
	str("RECONNECT_INITIAL", &p.ReconnectInitial)
	str("RECONNECT_MAX", &p.ReconnectMax)
	if v := os.Getenv("CRMCHAT_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.ChunkSize = n
		}
	}
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func withSlash(u string) string {
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
