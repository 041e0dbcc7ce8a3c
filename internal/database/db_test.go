package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "buddysign"})

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "app", parsed.User)
	require.Equal(t, "pw", parsed.Passwd)
	require.Equal(t, "db:3306", parsed.Addr)
	require.Equal(t, "buddysign", parsed.DBName)
	require.True(t, parsed.ParseTime)
}
