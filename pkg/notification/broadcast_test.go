package notification_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

type fakeDirectory struct {
	users map[string][]notification.Role
}

func (d *fakeDirectory) ActiveUserIDs(ctx context.Context, roles ...notification.Role) ([]string, error) {
	var ids []string
	for id, userRoles := range d.users {
		if len(roles) == 0 {
			ids = append(ids, id)
			continue
		}
		for _, r := range roles {
			if slices.Contains(userRoles, r) {
				ids = append(ids, id)
				break
			}
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (d *fakeDirectory) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := d.users[id]
	return ok, nil
}

func classDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string][]notification.Role{
		"student-1":    {notification.RoleStudent},
		"student-2":    {notification.RoleStudent},
		"instructor-1": {notification.RoleInstructor},
		"admin-1":      {notification.RoleAdmin},
	}}
}

func broadcastParams() notification.CreateParams {
	return notification.CreateParams{
		SenderID: "admin-1",
		Type:     notification.TypeSystemAnnouncement,
		Title:    "Scheduled maintenance",
		Message:  "The platform will be unavailable on Saturday night",
	}
}

func TestBroadcastSelectorValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, notification.WithUserDirectory(classDirectory()))

	t.Run("empty selector", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Broadcast(context.Background(), notification.RecipientSelector{}, broadcastParams())
		assert.ErrorIs(t, err, notification.ErrInvalidSelector)
	})

	t.Run("two audience kinds", func(t *testing.T) {
		t.Parallel()

		sel := notification.RecipientSelector{All: true, IDs: []string{"student-1"}}
		_, err := svc.Broadcast(context.Background(), sel, broadcastParams())
		assert.ErrorIs(t, err, notification.ErrInvalidSelector)
	})

	t.Run("unknown role", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Broadcast(context.Background(), notification.ByRole("janitor"), broadcastParams())
		assert.Error(t, err)
	})
}

func TestBroadcastAllUsers(t *testing.T) {
	t.Parallel()

	svc, storage := newTestService(t, notification.WithUserDirectory(classDirectory()))

	result, err := svc.Broadcast(context.Background(), notification.AllUsers(), broadcastParams())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Recipients)
	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 0, result.Failed)

	page, err := svc.List(context.Background(), "student-1", notification.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, notification.TypeSystemAnnouncement, page.Items[0].Type)

	// Each recipient got an independent record.
	n, err := storage.Get(context.Background(), page.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "student-1", n.RecipientID)
}

func TestBroadcastByRole(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, notification.WithUserDirectory(classDirectory()))

	result, err := svc.Broadcast(context.Background(), notification.ByRole(notification.RoleStudent), broadcastParams())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Recipients)
	assert.Equal(t, 2, result.Created)

	page, err := svc.List(context.Background(), "instructor-1", notification.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "instructors are outside the student audience")
}

func TestBroadcastExplicitIDs(t *testing.T) {
	t.Parallel()

	t.Run("nonexistent recipients are counted as failed", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, notification.WithUserDirectory(classDirectory()))

		sel := notification.ToUsers("student-1", "student-2", "ghost")
		result, err := svc.Broadcast(context.Background(), sel, broadcastParams())
		require.NoError(t, err)
		assert.Equal(t, 3, result.Recipients)
		assert.Equal(t, 2, result.Created)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("explicit ids work without a directory", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		result, err := svc.Broadcast(context.Background(), notification.ToUsers("student-1"), broadcastParams())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
	})
}

func TestBroadcastWithoutDirectory(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.Broadcast(context.Background(), notification.AllUsers(), broadcastParams())
	assert.ErrorIs(t, err, notification.ErrDirectoryNotConfigured)

	_, err = svc.Broadcast(context.Background(), notification.ByRole(notification.RoleStudent), broadcastParams())
	assert.ErrorIs(t, err, notification.ErrDirectoryNotConfigured)
}

func TestBroadcastTemplateValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, notification.WithUserDirectory(classDirectory()))

	p := broadcastParams()
	p.Title = ""

	_, err := svc.Broadcast(context.Background(), notification.AllUsers(), p)
	assert.Error(t, err)
}
