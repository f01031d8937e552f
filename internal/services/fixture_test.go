package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studiorit/internal/authz"
	"studiorit/internal/clock"
	"studiorit/internal/models"
	"studiorit/internal/repositories"
	"studiorit/internal/repositories/memory"
)

// tick makes clock.Now advance one second per call.
func tick(t *testing.T) {
	t.Helper()
	var mu sync.Mutex
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	clock.NowFunc = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
	t.Cleanup(func() { clock.NowFunc = func() time.Time { return time.Now().UTC() } })
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(_ context.Context, userID, subject, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, userID+":"+subject)
}

type world struct {
	store    *repositories.Store
	tasks    TaskService
	projects ProjectService
	notifier *recordingNotifier

	admin, creator, coord, member, assignee, junior, outsider authz.Actor
	project                                                   *models.Project
}

func newWorld(t *testing.T) *world {
	t.Helper()
	tick(t)
	ctx := context.Background()
	store := memory.NewStore()
	n := &recordingNotifier{}
	locks := NewKeyedLocker()

	w := &world{
		store:    store,
		tasks:    NewTaskService(store, NewApprovalRouter(store.Users), n, locks),
		projects: NewProjectService(store, n, locks),
		notifier: n,
	}

	mk := func(id, name string, role models.Role) authz.Actor {
		u := &models.User{ID: id, Name: name, Email: id + "@example.com", Role: role, IsActive: true}
		require.NoError(t, store.Users.Create(ctx, u))
		return authz.ActorFromUser(u)
	}
	w.admin = mk("admin", "Ada", models.RoleAdmin)
	w.creator = mk("creator", "Cleo", models.RoleCoordinator)
	w.coord = mk("coord", "Cora", models.RoleCoordinator)
	w.member = mk("member", "Milo", models.RoleVolunteer)
	w.assignee = mk("assignee", "Ash", models.RoleVolunteer)
	w.junior = mk("junior", "Jude", models.RoleJuniorCore)
	w.outsider = mk("outsider", "Otto", models.RoleSeniorCore)

	w.project = &models.Project{
		ID:          "p1",
		Title:       "Spring campaign",
		Status:      models.ProjectInProgress,
		CreatedBy:   w.creator.ID,
		Coordinator: w.coord.ID,
		TeamMembers: []models.TeamMember{
			{UserID: w.member.ID, Role: models.MemberDesigner},
			{UserID: w.assignee.ID, Role: models.MemberEditor},
			{UserID: w.junior.ID, Role: models.MemberDeveloper},
		},
		CreatedAt: clock.Now(),
	}
	require.NoError(t, store.Projects.Create(ctx, w.project))
	return w
}

func (w *world) newTask(t *testing.T) *models.TaskDetail {
	t.Helper()
	d, err := w.tasks.CreateTask(context.Background(), w.coord, models.CreateTaskRequest{
		Title:       "Poster",
		Description: "A2 poster for the launch",
		ProjectID:   w.project.ID,
		AssignedTo:  w.assignee.ID,
		DueDate:     clock.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)
	return d
}

func (w *world) stored(t *testing.T, id string) *models.Task {
	t.Helper()
	task, err := w.store.Tasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	return task
}
