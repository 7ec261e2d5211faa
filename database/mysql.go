package database

import (
	"fmt"

	"github.com/SusheelSathyaraj/TableReplicator/config"
	"github.com/go-sql-driver/mysql"
)

// MySQLDSN returns cfg.DSN when set, otherwise builds one from the discrete fields.
// format: user:password@tcp(host:port)/name?parseTime=true
func MySQLDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	return mc.FormatDSN()
}

// create a MySQL store from config
func NewMySQLStoreFromConfig(cfg config.DatabaseConfig, tables Tables, policy ConflictPolicy) (*SQLStore, error) {
	return NewSQLStore("mysql", MySQLDSN(cfg), tables, policy)
}
