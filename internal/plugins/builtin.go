// Package plugins registers the commands the bot ships with.
package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/lojasmm/wabot/internal/command"
	"github.com/lojasmm/wabot/internal/media"
	"github.com/lojasmm/wabot/internal/outbound"
)

const maxMenuDescription = 60

type builtin struct {
	def     command.Definition
	handler command.Handler
}

// RegisterBuiltins adds the built-in commands to b. Buttons created by the
// demos carry the builder's prefix in their ids, so tapping them runs a command.
func RegisterBuiltins(b *command.Builder) error {
	prefix := b.Prefix()
	all := []builtin{
		{command.Definition{Pattern: "ping", Description: "Check that the bot is alive", Category: "general"}, ping},
		{command.Definition{Pattern: "menu|help", Description: "List the available commands", Category: "general"}, menu},
		{command.Definition{Pattern: "buttontext", Description: "Reply buttons with a text body", Category: "demo"}, buttonText(prefix)},
		{command.Definition{Pattern: "buttonmedia", Description: "Reply buttons under a media header: buttonmedia <url>", Category: "demo"}, buttonMedia(prefix)},
		{command.Definition{Pattern: "listtext", Description: "A list menu with two sections", Category: "demo"}, listText},
		{command.Definition{Pattern: "media", Description: "Send media from a URL: media <url> | caption", Category: "media"}, sendMedia},
		{command.Definition{Pattern: "delmedia", Description: "Delete uploaded media by id", Category: "media", RequiresOwner: true}, deleteMedia},
	}
	for _, c := range all {
		if _, err := b.Register(c.def, c.handler); err != nil {
			return fmt.Errorf("registering %s: %w", c.def.Pattern, err)
		}
	}
	return nil
}

func ping(ctx context.Context, s *outbound.Session, _ string) error {
	_, err := s.SendText(ctx, "pong", outbound.AsReply())
	return err
}

func menu(ctx context.Context, s *outbound.Session, _ string) error {
	reg, ok := command.RegistryFrom(ctx)
	if !ok {
		return fmt.Errorf("menu: no registry in context")
	}
	_, err := s.SendText(ctx, renderMenu(reg))
	return err
}

func renderMenu(reg *command.Registry) string {
	cats, byCategory := reg.Listed()
	var sb strings.Builder
	sb.WriteString("*Commands*\n")
	for _, cat := range cats {
		fmt.Fprintf(&sb, "\n*%s*\n", strings.ToUpper(cat))
		for _, c := range byCategory[cat] {
			fmt.Fprintf(&sb, "%s%s", reg.Prefix(), displayName(c.Pattern))
			if c.Description != "" {
				fmt.Fprintf(&sb, " - %s", truncateText(c.Description, maxMenuDescription))
			}
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// displayName shows the first alternative of a pattern such as "menu|help".
func displayName(pattern string) string {
	name, _, _ := strings.Cut(pattern, "|")
	return name
}

func buttonText(prefix string) command.Handler {
	return func(ctx context.Context, s *outbound.Session, _ string) error {
		_, err := s.SendButtonMenu(ctx, outbound.ButtonMenu{
			Text: "Please choose an option:",
			Buttons: []outbound.Button{
				{ID: prefix + "ping", Title: "Option 1"},
				{ID: prefix + "menu", Title: "Option 2"},
			},
		})
		return err
	}
}

func buttonMedia(prefix string) command.Handler {
	return func(ctx context.Context, s *outbound.Session, tail string) error {
		src := media.FromString(tail)
		if !src.IsURL() {
			_, err := s.SendText(ctx, "Usage: "+prefix+"buttonmedia <url>", outbound.AsReply())
			return err
		}
		_, err := s.SendButtonMenu(ctx, outbound.ButtonMenu{
			Text:  "Please choose an option:",
			Media: src,
			Buttons: []outbound.Button{
				{ID: prefix + "ping", Title: "Option 1"},
				{ID: prefix + "menu", Title: "Option 2"},
			},
			Footer: "This is footer",
		})
		return err
	}
}

func listText(ctx context.Context, s *outbound.Session, _ string) error {
	_, err := s.SendListMenu(ctx, outbound.ListMenu{
		Header: "Choose an option",
		Body:   "Please select an option from the list below:",
		Footer: "Footer text here",
		Button: "View Options",
		Sections: []outbound.ListSection{
			{Title: "Section 1", Rows: []outbound.ListRow{
				{ID: "option1", Title: "Option 1", Description: "Description for option 1"},
				{ID: "option2", Title: "Option 2", Description: "Description for option 2"},
			}},
			{Title: "Section 2", Rows: []outbound.ListRow{
				{ID: "option3", Title: "Option 3", Description: "Description for option 3"},
				{ID: "option4", Title: "Option 4", Description: "Description for option 4"},
			}},
		},
	})
	return err
}

// sendMedia handles "media <url> | caption".
func sendMedia(ctx context.Context, s *outbound.Session, tail string) error {
	url, caption, _ := strings.Cut(tail, "|")
	src := media.FromString(strings.TrimSpace(url))
	if !src.IsURL() {
		_, err := s.SendText(ctx, "Usage: media <url> | caption", outbound.AsReply())
		return err
	}
	_, err := s.SendMedia(ctx, src, outbound.WithCaption(strings.TrimSpace(caption)))
	return err
}

func deleteMedia(ctx context.Context, s *outbound.Session, tail string) error {
	id := strings.TrimSpace(tail)
	if id == "" {
		_, err := s.SendText(ctx, "Usage: delmedia <media id>", outbound.AsReply())
		return err
	}
	ok, err := s.DeleteMedia(ctx, id)
	if err != nil {
		_, _ = s.SendText(ctx, "Could not delete "+id, outbound.AsReply())
		return err
	}
	reply := "Deleted " + id
	if !ok {
		reply = "Media " + id + " was not deleted"
	}
	_, err = s.SendText(ctx, reply, outbound.AsReply())
	return err
}

func truncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}
