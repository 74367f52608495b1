package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/repository"
)

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{
		reset: func() store { return repository.NewMemoryStore() },
	})
}

func TestMemoryStoreSaveProfileSetsRole(t *testing.T) {
	st := repository.NewMemoryStore()
	st.SaveProfile(models.Profile{ID: "admin", Email: "admin@example.com", Role: models.RoleAdmin})
	st.SaveProfile(models.Profile{ID: "plain"})

	p, err := st.GetProfile(context.Background(), "admin")
	require.NoError(t, err)
	require.True(t, p.IsAdmin())

	// EnsureProfile must not demote an existing admin.
	p, err = st.EnsureProfile(context.Background(), models.CurrentUser{ID: "admin", Email: "new@example.com"})
	require.NoError(t, err)
	require.True(t, p.IsAdmin())

	p, err = st.GetProfile(context.Background(), "plain")
	require.NoError(t, err)
	require.Equal(t, models.RoleParticipant, p.Role)
}
