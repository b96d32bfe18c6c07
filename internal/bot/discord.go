package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Intents the bot needs to read prefixed commands in guilds and DMs.
const Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

// Discord connects a Handler to a Discord gateway session.
type Discord struct {
	session *discordgo.Session
	handler *Handler
}

func NewDiscord(token string, h *Handler) (*Discord, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = Intents

	d := &Discord{session: s, handler: h}
	s.AddHandler(d.onReady)
	s.AddHandler(d.onMessage)
	return d, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (d *Discord) Run(ctx context.Context) error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	<-ctx.Done()
	log.Println("[INFO] closing discord session")
	if err := d.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

func (d *Discord) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[INFO] logged in as %s, serving %d guilds", r.User.Username, len(r.Guilds))
}

func (d *Discord) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	reply, ok := d.reply(m)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		log.Printf("[ERROR] send reply to %s: %v", m.ChannelID, err)
	}
}

func (d *Discord) reply(m *discordgo.MessageCreate) (string, bool) {
	if m.Message == nil || m.Author == nil || m.Author.Bot {
		return "", false
	}
	reply, ok := d.handler.Handle(Request{
		UserID:   m.Author.ID,
		UserName: displayName(m.Author),
		Text:     m.Content,
	})
	return reply, ok && reply != ""
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
