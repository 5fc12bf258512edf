package service

import (
	"fmt"
	"strings"
	"time"

	"flowfix/internal/model"
)

const (
	msgPersistence      = "Erro ao acessar o banco de dados."
	msgTaskNotFound     = "Tarefa não encontrada."
	msgSubTaskNotFound  = "Subtarefa não encontrada."
	msgUserNotFound     = "Usuário não encontrado."
	msgTeamNotFound     = "Um ou mais membros da equipe não foram encontrados."
	msgTitleRequired    = "O título é obrigatório."
	msgStageInvalid     = "Etapa inválida. Use todo, in-progress ou completed."
	msgPriorityInvalid  = "Prioridade inválida. Use low, normal, medium ou high."
	msgDateInvalid      = "Data inválida. Use o formato AAAA-MM-DD."
	msgActivityRequired = "O tipo e o texto da atividade são obrigatórios."
	msgNotTeamMember    = "Você não faz parte da equipe desta tarefa."
	msgNotTrashed       = "A tarefa precisa estar na lixeira para ser excluída."

	msgInvalidCredentials = "Email ou senha inválidos."
	msgAccountDisabled    = "Conta desativada. Fale com o administrador."
	msgEmailTaken         = "Este email já está em uso."
	msgPasswordTooShort   = "A senha deve ter pelo menos 6 caracteres."
	msgResetTokenInvalid  = "Link de redefinição inválido ou expirado."
	msgResetMailFailed    = "Não foi possível enviar o e-mail de redefinição."
	msgSelfDelete         = "Você não pode excluir a própria conta."
)

const duplicatePrefix = "Duplicada - "

var priorityLabels = map[string]string{
	model.PriorityLow:    "BAIXA",
	model.PriorityNormal: "NORMAL",
	model.PriorityMedium: "MÉDIA",
	model.PriorityHigh:   "ALTA",
}

// priorityLabel returns the display label of a priority, NORMAL when unknown.
func priorityLabel(priority string) string {
	if label, ok := priorityLabels[strings.ToLower(priority)]; ok {
		return label
	}
	return priorityLabels[model.PriorityNormal]
}

func formatDate(t time.Time) string {
	return t.UTC().Format("02/01/2006")
}

func assignedActivityText(names []string, priority string, due time.Time) string {
	return fmt.Sprintf(
		"Uma nova tarefa foi atribuída a: %s. A prioridade é %s, com data prevista para %s. Verifique e aja de acordo.",
		strings.Join(names, ", "), priorityLabel(priority), formatDate(due),
	)
}

func assignedNoticeText(others []string, priority string, due time.Time) string {
	head := "Uma nova tarefa foi atribuída a você."
	if len(others) > 0 {
		head = fmt.Sprintf("Uma nova tarefa foi atribuída a você e para %s.", strings.Join(others, ", "))
	}
	return fmt.Sprintf("%s A prioridade da tarefa é %s, com data prevista para %s. Verifique e aja de acordo.",
		head, priorityLabel(priority), formatDate(due))
}

func updatedActivityText(names []string, priority string, due time.Time) string {
	return fmt.Sprintf(
		"A tarefa foi atualizada e está atribuída a: %s. A prioridade é %s, com data prevista para %s.",
		strings.Join(names, ", "), priorityLabel(priority), formatDate(due),
	)
}

func updatedNoticeText(title string, others []string, priority string, due time.Time) string {
	head := fmt.Sprintf("A tarefa %q foi atualizada e está atribuída a você.", title)
	if len(others) > 0 {
		head = fmt.Sprintf("A tarefa %q foi atualizada. Ela está atribuída a você e para %s.", title, strings.Join(others, ", "))
	}
	return fmt.Sprintf("%s A prioridade atual é %s, com data prevista para %s.",
		head, priorityLabel(priority), formatDate(due))
}

func bugAlertText(author, title, text string) string {
	return fmt.Sprintf("%s adicionou um problema na tarefa %q: %s", author, title, text)
}
