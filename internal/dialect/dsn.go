package dialect

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	go_ora "github.com/sijms/go-ora/v2"
)

// ConnParams are the discrete connection settings the CLI collects.
type ConnParams struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	SSLMode  string // postgres only
}

// Drivers lists the database/sql driver names BuildDSN understands.
var Drivers = []string{"postgres", "pgx", "mysql", "sqlserver", "oracle"}

// BuildDSN renders p as a connection string for driver.
func BuildDSN(driver string, p ConnParams) (string, error) {
	addr := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))

	switch driver {
	case "postgres", "pgx":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(p.User, p.Password),
			Host:   addr,
			Path:   "/" + p.Database,
		}
		if p.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {p.SSLMode}}.Encode()
		}
		return u.String(), nil
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = p.User
		cfg.Passwd = p.Password
		cfg.Net = "tcp"
		cfg.Addr = addr
		cfg.DBName = p.Database
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	case "sqlserver", "mssql":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(p.User, p.Password),
			Host:     addr,
			RawQuery: url.Values{"database": {p.Database}}.Encode(),
		}
		return u.String(), nil
	case "oracle":
		return go_ora.BuildUrl(p.Host, p.Port, p.Database, p.User, p.Password, nil), nil
	default:
		return "", fmt.Errorf("unsupported driver %q (want one of %v)", driver, Drivers)
	}
}
