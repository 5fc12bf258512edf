package service

import (
	"context"

	"github.com/google/uuid"

	"flowfix/internal/model"
)

// resolveTeam loads the users behind ids, keeping request order and dropping
// duplicates. Any unknown id fails the whole resolution.
func resolveTeam(ctx context.Context, users UserStore, ids []uuid.UUID) ([]model.User, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	found, err := users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	team := make([]model.User, 0, len(unique))
	for _, id := range unique {
		u, ok := byID[id]
		if !ok {
			return nil, notFound(msgTeamNotFound)
		}
		team = append(team, u)
	}
	return team, nil
}

func activeMembers(team []model.User) []model.User {
	var active []model.User
	for _, u := range team {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active
}

func userNames(users []model.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	return names
}

func otherNames(users []model.User, self uuid.UUID) []string {
	var names []string
	for _, u := range users {
		if u.ID != self {
			names = append(names, u.Name)
		}
	}
	return names
}

// notifyMembers writes one notice per recipient, worded by text from the
// names of the other recipients. With refs set the task is also added to
// every recipient's task back-references.
func notifyMembers(
	ctx context.Context,
	r Repositories,
	taskID uuid.UUID,
	recipients []model.User,
	text func(others []string) string,
	refs bool,
) error {
	for _, member := range recipients {
		id := taskID
		notice := &model.Notice{
			Text:     text(otherNames(recipients, member.ID)),
			TaskID:   &id,
			NotiType: model.NoticeDefault,
			Team:     []model.User{{ID: member.ID}},
		}
		if err := r.Notices.Create(ctx, notice); err != nil {
			return err
		}
		if refs {
			if err := r.Users.AddTaskRef(ctx, member.ID, taskID); err != nil {
				return err
			}
		}
	}
	return nil
}
