package localstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/shadowspace/internal/client"
	"github.com/sujalbistaa/shadowspace/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	return store
}

func TestSaveAndListPosts(t *testing.T) {
	store := openStore(t)

	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, store.SavePost(models.Post{
			ID:         "p" + content,
			Content:    content,
			FakeRegion: "Mystic Shore",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	posts, err := store.RecentPosts()
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "newest", posts[0].Content)
	assert.Equal(t, "oldest", posts[2].Content)
	assert.True(t, posts[0].Synced)

	n, err := store.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestClearWipesEverything(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.SavePost(models.Post{ID: "p1", Content: "hello"}))
	require.NoError(t, store.SaveCredentials(&client.Credentials{Token: "tok"}))

	require.NoError(t, store.Clear())

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	creds, err := store.LoadCredentials()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestCredentialsRoundTrip(t *testing.T) {
	store := openStore(t)

	// Empty store: logged out, not an error.
	creds, err := store.LoadCredentials()
	require.NoError(t, err)
	assert.Nil(t, creds)

	saved := &client.Credentials{
		User:  models.User{ID: "u1", Username: "alice", AnonymousName: "Ghost_Echo_77"},
		Token: "bearer-token",
	}
	require.NoError(t, store.SaveCredentials(saved))

	creds, err = store.LoadCredentials()
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "alice", creds.User.Username)
	assert.Equal(t, "bearer-token", creds.Token)

	require.NoError(t, store.ClearCredentials())
	creds, err = store.LoadCredentials()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestSessionLifecycleOverStore(t *testing.T) {
	store := openStore(t)

	session := client.NewSession(store)
	require.NoError(t, session.Init())
	assert.Empty(t, session.Token())

	require.NoError(t, session.Login(client.Credentials{
		User:  models.User{ID: "u1", Username: "alice"},
		Token: "tok-1",
	}))
	assert.Equal(t, "tok-1", session.Token())

	// A new session over the same store picks the login up.
	restored := client.NewSession(store)
	require.NoError(t, restored.Init())
	assert.Equal(t, "tok-1", restored.Token())
	user, ok := restored.User()
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username)

	// Logout tears it down everywhere.
	require.NoError(t, restored.Logout())
	assert.Empty(t, restored.Token())

	again := client.NewSession(store)
	require.NoError(t, again.Init())
	assert.Empty(t, again.Token())
	_, ok = again.User()
	assert.False(t, ok)
}
