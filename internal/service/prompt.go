package service

import (
	"strings"

	"github.com/cloo-solutions/propertybot/internal/domain"
)

// DefaultSystemPrompt sets up the assistant persona and asks the model to
// quote identifiers in the placeholder form the composer substitutes.
const DefaultSystemPrompt = `You are an AI named Bob helping to find ideal properties, which you have in a database.
Your response must be polite, use the same language as the question, and be relevant to the question.
You should always provide ID of the property, so client can find it through the search.
Always answer in the same language as the question.

When you don't know, respond that you don't know the answer and the team will contact the customer directly.

Please, format ids from additional contents in json format: {"id": "UUID from additional content"}, so developer can find it in the database.
Here's an example how it'll look like in a text "ID - 54d5dbc8-f2d1-49a5-985a-bde311a438bd"`

// BuildUserMessage appends the retrieved passages to the question.
func BuildUserMessage(question string, matches []domain.SearchMatch) string {
	if len(matches) == 0 {
		return question
	}

	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\nAnswer using the following information:\n")
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Text)
	}
	return b.String()
}
