package postgres

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Josczesny/BancoBrasil/internal/apperrors"
	"github.com/Josczesny/BancoBrasil/internal/repository"
	"github.com/Josczesny/BancoBrasil/internal/testutil"
)

func TestStorage_InTx(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := NewStorage(pg.Pool)

	t.Run("commit when fn returns nil", func(t *testing.T) {
		err := storage.InTx(t.Context(), func(st repository.Storage) error {
			_, err := st.User().CreateUser(t.Context(), "Committed User", "committed@test.dev", "hash")
			return err
		})
		require.NoError(t, err)

		user, err := storage.User().GetUserByEmail(t.Context(), "committed@test.dev")
		require.NoError(t, err, "committed write should be visible outside the transaction")
		require.Equal(t, "Committed User", user.Name)
	})

	t.Run("rollback when fn returns error", func(t *testing.T) {
		wantErr := errors.New("nope")

		err := storage.InTx(t.Context(), func(st repository.Storage) error {
			_, err := st.User().CreateUser(t.Context(), "Rolled Back User", "rolledback@test.dev", "hash")
			require.NoError(t, err)
			return wantErr
		})
		require.ErrorIs(t, err, wantErr, "fn error should be returned as is")

		_, err = storage.User().GetUserByEmail(t.Context(), "rolledback@test.dev")
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrUserNotFound, "failed transaction should leave no trace")
	})

	t.Run("rollback when fn panics", func(t *testing.T) {
		require.Panics(t, func() {
			_ = storage.InTx(t.Context(), func(st repository.Storage) error {
				_, err := st.User().CreateUser(t.Context(), "Panicked User", "panicked@test.dev", "hash")
				require.NoError(t, err)
				panic("boom")
			})
		}, "panic should propagate to the caller")

		_, err := storage.User().GetUserByEmail(t.Context(), "panicked@test.dev")
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrUserNotFound, "panicked transaction must not commit")
	})
}
