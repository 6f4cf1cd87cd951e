package ai

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/brightdesk/chatrelay/internal/config"
	"github.com/brightdesk/chatrelay/internal/model/chat"
)

// historyWindow is how many trailing transcript entries are replayed to
// the model on each generation.
const historyWindow = 10

// Request carries one generation call: rendered system instructions, the
// recent transcript and the current user turn.
type Request struct {
	System  string
	History []chat.Message
	Query   string
}

// Service wraps the Ark chat model behind a compiled eino chain.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the model and compiles the generation chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "create chat model")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compile chat chain")
	}

	return &Service{chatModel: chatModel, chain: runnable}, nil
}

// Generate runs one completion. The returned text may carry control tags;
// decoding them is the caller's job.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	input := map[string]any{
		"system":  req.System,
		"history": historyMessages(req.History),
		"query":   req.Query,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", errors.Wrap(err, "run chat chain")
	}

	log.Debug().Int("length", len(response.Content)).Msg("generated assistant reply")
	return response.Content, nil
}

// historyMessages maps the trailing transcript window onto schema
// messages. Representative, admin and system turns are surfaced as system
// messages so the model sees the whole conversation, not just its own.
func historyMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyWindow {
		startIdx = len(messages) - historyWindow
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		default:
			history = append(history, schema.SystemMessage(string(msg.Role)+": "+msg.Content))
		}
	}

	return history
}
