// Package skill implements the two-state memorization exercise: the user
// first dictates a text to memorize, then retells it and receives a
// similarity percentage.
package skill

import (
	"fmt"

	"github.com/akoreshkov/retell-skill/internal/domain"
	"github.com/akoreshkov/retell-skill/internal/similarity"
)

// Response texts shown to the user. The skill speaks Russian.
const (
	MsgEnterText       = "Введите текст для продолжения."
	MsgOriginalSaved   = "Оригинальный текст сохранён. Теперь расскажите его, как вы запомнили."
	MsgAlreadyEntered  = "Вы уже ввели оригинальный текст. Теперь расскажите его, как вы запомнили."
	MsgOriginalMissing = "Ошибка: Оригинальный текст не найден. Введите текст заново."
	MsgUnknownState    = "Произошла ошибка. Попробуйте снова."
	MsgResetDone       = "Данные сброшены. Введите новый текст."
	MsgResetNotFound   = "Сессия не найдена. Введите новый текст."

	resetButtonLabel = "Сбросить"
)

// Button is a suggestion button attached to a response.
type Button struct {
	Title  string `json:"title"`
	Action Action `json:"action"`
}

// Action describes what pressing a button sends back to the skill.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Result is the outcome of handling one user message.
type Result struct {
	Text       string
	Buttons    []Button
	EndSession bool
	Mutated    bool
}

// Handle advances the session according to the user's message and returns
// the response to speak. The caller persists the session when Mutated is
// set. userMessage must already be trimmed and non-empty; the empty-input
// prompt is handled at the boundary before any session is loaded.
func Handle(sess *domain.Session, userMessage string) Result {
	switch sess.State {
	case domain.StateAwaitingOriginal:
		if sess.HasOriginal {
			return Result{Text: MsgAlreadyEntered}
		}
		sess.SetOriginal(userMessage)
		return Result{Text: MsgOriginalSaved, Mutated: true}

	case domain.StateAwaitingUserInput:
		if !sess.HasOriginal {
			// Stored state contradicts itself; tell the user to start over
			// rather than failing the request.
			return Result{Text: MsgOriginalMissing}
		}
		score := similarity.Ratio(
			similarity.Normalize(sess.OriginalText),
			similarity.Normalize(userMessage),
		)
		text := fmt.Sprintf(
			"Процент совпадения: %d%%\n\nОригинальный текст: %s\n\nВаш текст: %s",
			score, sess.OriginalText, userMessage,
		)
		return Result{
			Text: text,
			Buttons: []Button{{
				Title:  resetButtonLabel,
				Action: Action{Type: "text", Label: resetButtonLabel},
			}},
		}

	default:
		return Result{Text: MsgUnknownState}
	}
}
