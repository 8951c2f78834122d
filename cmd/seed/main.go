// Seeds the default staff accounts (one admin, one asesor, two matrizadores)
// and creates the tables the API expects. Safe to run repeatedly: existing
// usernames are left untouched.
package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cboderot1/turnos2/internal/config"
	"github.com/cboderot1/turnos2/internal/database"
	"github.com/cboderot1/turnos2/internal/models"
	"github.com/cboderot1/turnos2/internal/repository/postgres"
	"github.com/cboderot1/turnos2/internal/utils"
	"github.com/cboderot1/turnos2/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	username     TEXT UNIQUE NOT NULL,
	display_name TEXT NOT NULL,
	role         TEXT NOT NULL,
	password_h   TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS completed_tickets (
	ticket_id         BIGINT PRIMARY KEY,
	client_name       TEXT NOT NULL,
	client_identifier TEXT NOT NULL,
	motive            TEXT NOT NULL,
	client_type       TEXT NOT NULL,
	service_type      TEXT NOT NULL,
	priority          BOOLEAN NOT NULL,
	assigned_to       TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	completed_at      TIMESTAMPTZ NOT NULL
);
`

type userDef struct {
	username    string
	password    string
	role        models.Role
	displayName string
}

var defaults = []userDef{
	{"admin", "Admin1234!", models.RoleAdmin, "Administrador"},
	{"asesor", "Asesor1234!", models.RoleAsesor, "Asesor"},
	{"matrizador1", "Matrizador1234!", models.RoleMatrizador, "Matrizador 1"},
	{"matrizador2", "Matrizador1234!", models.RoleMatrizador, "Matrizador 2"},
}

func main() {
	cfg := config.Load()
	l := logger.New(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Open(ctx, cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	if err := migrate(ctx, pool); err != nil {
		l.Fatal().Err(err).Msg("migration failed")
	}

	users := postgres.NewUserRepo(pool)
	for _, d := range defaults {
		existing, _, err := users.GetByUsername(ctx, d.username)
		if err != nil {
			l.Fatal().Err(err).Str("username", d.username).Msg("lookup failed")
		}
		if existing != nil {
			l.Info().Str("username", d.username).Str("id", existing.ID).Msg("user exists")
			continue
		}
		hash, err := utils.HashPassword(d.password)
		if err != nil {
			l.Fatal().Err(err).Msg("hash failed")
		}
		u, err := users.Create(ctx, d.username, d.displayName, d.role, hash)
		if err != nil {
			l.Fatal().Err(err).Str("username", d.username).Msg("create failed")
		}
		l.Info().Str("username", u.Username).Str("role", string(u.Role)).Str("id", u.ID).Msg("user created")
	}
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
