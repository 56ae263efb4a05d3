package plugins

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lojasmm/wabot/internal/command"
	"github.com/lojasmm/wabot/internal/outbound"
)

// Reply is a canned text answer loaded from the replies file:
//
//	- pattern: hours
//	  reply: We are open 9 to 18, Monday to Friday.
//	  category: store
type Reply struct {
	Pattern     string `yaml:"pattern"`
	Reply       string `yaml:"reply"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	// Listed defaults to true.
	Listed *bool `yaml:"listed"`
}

// LoadReplies reads a YAML list of replies. An empty path yields no replies.
func LoadReplies(path string) ([]Reply, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replies: %w", err)
	}
	return ParseReplies(data)
}

func ParseReplies(data []byte) ([]Reply, error) {
	var replies []Reply
	if err := yaml.Unmarshal(data, &replies); err != nil {
		return nil, fmt.Errorf("parsing replies: %w", err)
	}
	for i, r := range replies {
		if strings.TrimSpace(r.Pattern) == "" || strings.TrimSpace(r.Reply) == "" {
			return nil, fmt.Errorf("reply %d: pattern and reply are required", i+1)
		}
	}
	return replies, nil
}

// RegisterReplies adds one text-reply command per entry, after anything
// already registered on b.
func RegisterReplies(b *command.Builder, replies []Reply) error {
	for _, r := range replies {
		def := command.Definition{
			Pattern:     r.Pattern,
			Description: r.Description,
			Category:    r.Category,
			Unlisted:    r.Listed != nil && !*r.Listed,
		}
		if _, err := b.Register(def, textReply(r.Reply)); err != nil {
			return fmt.Errorf("registering reply %q: %w", r.Pattern, err)
		}
	}
	return nil
}

func textReply(body string) command.Handler {
	return func(ctx context.Context, s *outbound.Session, _ string) error {
		_, err := s.SendText(ctx, body)
		return err
	}
}
