package service

import (
	"context"
	"strings"

	"flowfix/internal/model"
)

// EscalationRule turns a posted activity into an alert notice. Match decides
// whether the rule fires and Recipients who receives the alert. A rule with
// no recipients is skipped.
type EscalationRule struct {
	Name       string
	Match      func(activity *model.Activity) bool
	Recipients func(ctx context.Context, users UserStore) ([]model.User, error)
	Text       func(author string, task *model.Task, activity *model.Activity) string
}

// BugReportRule alerts every administrator when an activity is typed "bug"
// or mentions a bug in its text.
func BugReportRule() EscalationRule {
	return EscalationRule{
		Name: "bug-report",
		Match: func(a *model.Activity) bool {
			return a.Type == model.ActivityBug || strings.Contains(strings.ToLower(a.Text), "bug")
		},
		Recipients: func(ctx context.Context, users UserStore) ([]model.User, error) {
			return users.ListAdmins(ctx)
		},
		Text: func(author string, task *model.Task, a *model.Activity) string {
			return bugAlertText(author, task.Title, a.Text)
		},
	}
}

// DefaultEscalations is the rule set the server runs with.
func DefaultEscalations() []EscalationRule {
	return []EscalationRule{BugReportRule()}
}

func escalate(ctx context.Context, r Repositories, rules []EscalationRule, actor Actor, task *model.Task, activity *model.Activity) (int, error) {
	var author string
	sent := 0
	for _, rule := range rules {
		if !rule.Match(activity) {
			continue
		}
		recipients, err := rule.Recipients(ctx, r.Users)
		if err != nil {
			return sent, err
		}
		if len(recipients) == 0 {
			continue
		}

		if author == "" {
			u, err := r.Users.GetByID(ctx, actor.ID)
			if err != nil {
				return sent, err
			}
			author = "Alguém"
			if u != nil {
				author = u.Name
			}
		}

		team := make([]model.User, len(recipients))
		for i, u := range recipients {
			team[i] = model.User{ID: u.ID}
		}
		id := task.ID
		notice := &model.Notice{
			Text:     rule.Text(author, task, activity),
			TaskID:   &id,
			NotiType: model.NoticeAlert,
			Team:     team,
		}
		if err := r.Notices.Create(ctx, notice); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
