package postgres

//nolint:revive
import (
	"fmt"
	"net"
	"time"

	"feastline/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
	postgresConnMaxLifetime   = 30 * time.Minute
)

// Connection keeps separate pools for the primary and the read replica.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

type endpoint struct {
	role     string
	username string
	password string
	host     string
	port     string
	name     string
	sslMode  string
}

func New(config *config.Config) *Connection {
	pg := config.DB.Postgres

	write := endpoint{"write", pg.Write.Username, pg.Write.Password, pg.Write.Host, pg.Write.Port, pg.Prefix + pg.Write.Name, pg.Write.SSLMode}
	read := endpoint{"read", pg.Read.Username, pg.Read.Password, pg.Read.Host, pg.Read.Port, pg.Prefix + pg.Read.Name, pg.Read.SSLMode}

	conn := &Connection{
		Write: connect(write, pg.MaxRetry, pg.RetryWaitTime),
	}

	// Without a dedicated replica reads go to the primary pool.
	if read.host == "" {
		conn.Read = conn.Write
	} else {
		conn.Read = connect(read, pg.MaxRetry, pg.RetryWaitTime)
	}

	if conn.Write == nil || conn.Read == nil {
		log.Fatal().Msg("Failed to connect to postgres after all retries")
	}

	return conn
}

// DSN renders the connection URL for the write endpoint; the migrate runner uses it.
func DSN(config *config.Config) string {
	pg := config.DB.Postgres

	return endpoint{"write", pg.Write.Username, pg.Write.Password, pg.Write.Host, pg.Write.Port, pg.Prefix + pg.Write.Name, pg.Write.SSLMode}.dsn()
}

func (e endpoint) dsn() string {
	sslMode := e.sslMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s", e.username, e.password, net.JoinHostPort(e.host, e.port), e.name, sslMode)
}

func connect(e endpoint, maxRetry, waitTime int) *sqlx.DB {
	maxRetry = max(maxRetry, 1)

	for retry := range maxRetry {
		sqlDB, err := sqlx.Connect("postgres", e.dsn())
		if err == nil {
			log.Info().
				Str("role", e.role).
				Str("host", e.host).
				Str("dbName", e.name).
				Msg("Connected to database")

			sqlDB.SetMaxIdleConns(postgresMaxIdleConnection)
			sqlDB.SetMaxOpenConns(postgresMaxOpenConnection)
			sqlDB.SetConnMaxLifetime(postgresConnMaxLifetime)

			return sqlDB
		}

		log.Error().
			Err(err).
			Str("role", e.role).
			Str("host", e.host).
			Int("attempt", retry+1).
			Msg("Failed connecting to database, retrying")

		time.Sleep(time.Duration(waitTime) * time.Second)
	}

	return nil
}

func (c *Connection) Close() {
	if c.Write != nil {
		if err := c.Write.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close write pool")
		}
	}

	if c.Read != nil && c.Read != c.Write {
		if err := c.Read.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close read pool")
		}
	}
}
