package domain

// TurnStage is the last pipeline stage a chat turn reached.
type TurnStage string

const (
	TurnStageReceived  TurnStage = "received"
	TurnStageEmbedded  TurnStage = "embedded"
	TurnStageRetrieved TurnStage = "retrieved"
	TurnStageGenerated TurnStage = "generated"
	TurnStageExtracted TurnStage = "extracted"
	TurnStageResolved  TurnStage = "resolved"
	TurnStageComposed  TurnStage = "composed"
	TurnStageDelivered TurnStage = "delivered"
)

// Greeting is the first message sent on every new chat connection.
const Greeting = "Hello, I'm Bob, how can I help you?"

// ChatRole names the author of a remembered chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one earlier message replayed to the model as conversation
// history.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatTurn is one question/answer exchange. It is never persisted.
type ChatTurn struct {
	ID        string
	Question  string
	Context   []SearchMatch
	RawAnswer string
	IDs       []string
	Records   []ListedProperty
	Answer    string
	Stage     TurnStage
}

// Advance moves the turn to the given stage. Stages only move forward.
func (t *ChatTurn) Advance(stage TurnStage) {
	if stageOrder(stage) > stageOrder(t.Stage) {
		t.Stage = stage
	}
}

func stageOrder(s TurnStage) int {
	switch s {
	case TurnStageReceived:
		return 1
	case TurnStageEmbedded:
		return 2
	case TurnStageRetrieved:
		return 3
	case TurnStageGenerated:
		return 4
	case TurnStageExtracted:
		return 5
	case TurnStageResolved:
		return 6
	case TurnStageComposed:
		return 7
	case TurnStageDelivered:
		return 8
	}
	return 0
}
