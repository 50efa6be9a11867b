// Package discord implements the chat-platform boundary on Discord.
//
// It owns the gateway session, exposes channel threads through the
// threads.Service interface, and forwards human replies typed inside a thread
// to the bridge's reply handler.
package discord

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
	"github.com/tinyland-inc/bridgeclaw/pkg/threads"
)

const (
	// Discord rejects messages longer than 2000 characters.
	maxMessageLen = 2000

	createReason = "bridgeclaw thread for game-bot stream"
	deleteReason = "bridgeclaw retention sweep"
)

// ReplyHandler receives the content of a non-bot message posted in a thread.
type ReplyHandler func(threadID, content string)

// Client is the production threads.Service backed by a Discord bot session.
type Client struct {
	session            *discordgo.Session
	botUserID          string
	autoArchiveMinutes int
	running            atomic.Bool
	onReply            ReplyHandler
}

// New creates a Discord client from a bot token. The session is not opened
// until Start.
func New(token string, autoArchiveMinutes int) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return &Client{
		session:            session,
		autoArchiveMinutes: autoArchiveMinutes,
	}, nil
}

// SetReplyHandler registers the callback for inbound thread replies. Must be
// called before Start.
func (c *Client) SetReplyHandler(fn ReplyHandler) {
	c.onReply = fn
}

// Start opens the gateway connection and begins receiving events.
func (c *Client) Start(_ context.Context) error {
	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	user, err := c.session.User("@me")
	if err != nil {
		c.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	c.botUserID = user.ID
	c.running.Store(true)
	return nil
}

// Stop closes the gateway connection.
func (c *Client) Stop(_ context.Context) error {
	c.running.Store(false)
	return c.session.Close()
}

// IsRunning reports whether the gateway session is open.
func (c *Client) IsRunning() bool {
	return c.running.Load()
}

func (c *Client) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	logger.InfoCF("discord", "Logged in", map[string]any{
		"username": r.User.Username,
		"id":       r.User.ID,
	})
}

// handleMessage forwards non-bot messages to the reply handler. Whether the
// message actually lives in a bridge thread is decided by the router's
// binding table, not here.
func (c *Client) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == c.botUserID {
		return
	}
	if m.GuildID == "" || m.Content == "" {
		return
	}
	if c.onReply != nil {
		c.onReply(m.ChannelID, m.Content)
	}
}

// ActiveThreads lists the channel's non-archived threads.
func (c *Client) ActiveThreads(_ context.Context, channelID string) ([]threads.Thread, error) {
	list, err := c.session.ThreadsActive(channelID)
	if err != nil {
		return nil, fmt.Errorf("list active threads: %w", err)
	}
	return convertThreads(list.Threads), nil
}

// CreateThread starts a new public thread with the configured auto-archive
// duration.
func (c *Client) CreateThread(_ context.Context, channelID, name string) (threads.Thread, error) {
	ch, err := c.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPublicThread,
		AutoArchiveDuration: c.autoArchiveMinutes,
	}, discordgo.WithAuditLogReason(createReason))
	if err != nil {
		return threads.Thread{}, fmt.Errorf("start thread: %w", err)
	}
	return convertThread(ch), nil
}

// Send posts text into a thread, splitting messages that exceed Discord's
// length limit. The returned id is the one of the first message sent.
func (c *Client) Send(_ context.Context, threadID, text string) (string, error) {
	firstID := ""
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxMessageLen {
			chunk = text[:maxMessageLen]
		}
		text = text[len(chunk):]

		msg, err := c.session.ChannelMessageSend(threadID, chunk)
		if err != nil {
			return firstID, fmt.Errorf("send message: %w", err)
		}
		if firstID == "" {
			firstID = msg.ID
		}
	}
	return firstID, nil
}

// ArchivedThreads lists the channel's archived public threads, following
// pagination until the platform reports no more.
func (c *Client) ArchivedThreads(_ context.Context, channelID string) ([]threads.Thread, error) {
	var all []threads.Thread
	var before *time.Time

	for page := 0; page < 50; page++ {
		list, err := c.session.ThreadsArchived(channelID, before, 100)
		if err != nil {
			return nil, fmt.Errorf("list archived threads: %w", err)
		}
		all = append(all, convertThreads(list.Threads)...)

		if !list.HasMore || len(list.Threads) == 0 {
			break
		}
		last := list.Threads[len(list.Threads)-1]
		if last.ThreadMetadata == nil {
			break
		}
		ts := last.ThreadMetadata.ArchiveTimestamp
		before = &ts
	}
	return all, nil
}

// DeleteThread permanently removes a thread.
func (c *Client) DeleteThread(_ context.Context, threadID string) error {
	if _, err := c.session.ChannelDelete(threadID, discordgo.WithAuditLogReason(deleteReason)); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}

func convertThreads(chs []*discordgo.Channel) []threads.Thread {
	out := make([]threads.Thread, 0, len(chs))
	for _, ch := range chs {
		out = append(out, convertThread(ch))
	}
	return out
}

func convertThread(ch *discordgo.Channel) threads.Thread {
	// Thread ids are snowflakes, which embed the creation time.
	created, err := discordgo.SnowflakeTimestamp(ch.ID)
	if err != nil {
		created = time.Time{}
	}
	return threads.Thread{
		ID:        ch.ID,
		Name:      ch.Name,
		CreatedAt: created,
	}
}

var _ threads.Service = (*Client)(nil)
