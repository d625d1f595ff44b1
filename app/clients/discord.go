package clients

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"filemind/app/configs"
)

var _ Interface = &DiscordClient{}

// DiscordClient forwards admin messages from a Discord channel to the
// assistant and posts the replies back.
type DiscordClient struct {
	session   *discordgo.Session
	responder Responder
	channelID string
	adminID   string
}

func NewDiscordClient(cfg configs.DiscordConfig) (*DiscordClient, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	dc := &DiscordClient{
		session:   session,
		channelID: cfg.ChannelID,
		adminID:   cfg.AdminID,
	}
	session.AddHandler(dc.onMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	return dc, nil
}

func (c *DiscordClient) Subscribe(responder Responder) error {
	c.responder = responder
	if err := c.session.Open(); err != nil {
		return err
	}
	log.Println("🤖 Discord client started. Listening for messages...")
	return nil
}

func (c *DiscordClient) Close() error {
	return c.session.Close()
}

func (c *DiscordClient) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if c.adminID != "" && m.Author.ID != c.adminID {
		return
	}
	if c.channelID != "" && m.ChannelID != c.channelID {
		return
	}

	reply := c.responder.Process(context.Background(), m.Content)
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		log.Printf("⚠️ Error sending Discord reply: %v\n", err)
	}
}
