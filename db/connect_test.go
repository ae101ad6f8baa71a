package db

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConnectDb_MissingRowIsNotLogged(t *testing.T) {
	var out bytes.Buffer
	logger := utils.NewNopLogger()
	logger.SetOutput(&out)

	conn, err := ConnectDb(DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	require.NoError(t, Migrate(conn, logger))
	out.Reset()

	var user models.User
	err = conn.Where("username = ?", "nobody").First(&user).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	require.NotContains(t, out.String(), "record not found")

	// Real failures still reach the log.
	require.Error(t, conn.Exec("SELECT * FROM no_such_table").Error)
	require.Contains(t, out.String(), "no_such_table")
}

func TestConnectDb_UnknownDriver(t *testing.T) {
	_, err := ConnectDb("mysql", "", utils.NewNopLogger())
	require.Error(t, err)
}
