package config

import (
	"time"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/irsalhamdi/e-learning/rate"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Web     Web
	Storage Storage
	DB      database.Config
	Session Session
	Cors    Cors
	Auth    Auth
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Storage struct {
	Backend string `conf:"default:memory,help:memory or postgres"`
	Seed    bool   `conf:"default:true,help:load the demo catalog into an empty store"`
}

type Session struct {
	Lifetime     time.Duration `conf:"default:24h"`
	SecureCookie bool          `conf:"default:false"`
}

type Cors struct {
	Origin string `conf:"default:http://localhost:3000"`
}

type Auth struct {
	Login rate.Config
}
