package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRevocationStore_Revoke(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisRevocationStore(db)

	mock.ExpectSet("session:revoked:jti-1", "1", 10*time.Minute).SetVal("OK")

	require.NoError(t, store.Revoke(context.Background(), "jti-1", 10*time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRevocationStore_RevokeExpiredIsNoop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisRevocationStore(db)

	require.NoError(t, store.Revoke(context.Background(), "jti-1", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRevocationStore_IsRevoked(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock redismock.ClientMock)
		want    bool
		wantErr bool
	}{
		{
			name:  "revoked",
			setup: func(mock redismock.ClientMock) { mock.ExpectExists("session:revoked:jti-1").SetVal(1) },
			want:  true,
		},
		{
			name:  "not revoked",
			setup: func(mock redismock.ClientMock) { mock.ExpectExists("session:revoked:jti-1").SetVal(0) },
			want:  false,
		},
		{
			name:    "redis down",
			setup:   func(mock redismock.ClientMock) { mock.ExpectExists("session:revoked:jti-1").SetErr(errors.New("dial tcp: connection refused")) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			tt.setup(mock)

			got, err := NewRedisRevocationStore(db).IsRevoked(context.Background(), "jti-1")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
