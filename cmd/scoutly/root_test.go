package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"scoutly/internal/common/database"
	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRootCmd_ReleasesAppWhenCommandFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	builds := 0
	root, release := newRootCmd(func(ctx context.Context, configPath string) (*app, error) {
		builds++
		log := logger.NewTestLogger(t)
		return &app{
			zap:  zap.NewNop(),
			log:  log,
			errs: apperrors.NewErrorHandler(log),
			pg:   &database.PostgresClient{DB: db},
		}, nil
	})
	root.AddCommand(&cobra.Command{
		Use: "fail",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("query failed")
		},
	})
	root.SetArgs([]string{"fail"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	require.Error(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, 1, builds)

	release()
	assert.NoError(t, mock.ExpectationsWereMet(), "postgres pool must be closed after a failed command")

	release()
}
