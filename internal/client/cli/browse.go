package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/common"
)

const (
	timeLayout    = "2006-01-02 15:04"
	gifPageSize   = 10
	noMessages    = "No messages yet."
	noDMs         = "No conversations."
	noGlytches    = "You have not joined any Glytch."
	noChannels    = "No channels."
	noGifs        = "No GIFs found."
	noResolvedURL = "Attachment could not be resolved."
)

func idArg(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: usage: %s", common.ErrInvalidArgument, usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", common.ErrInvalidArgument, args[0])
	}
	return id, nil
}

// DMs lists the signed-in user's direct-message conversations.
func (a *App) DMs(ctx context.Context) error {
	if err := a.freshSession(ctx); err != nil {
		return err
	}
	convs, err := a.dms.ListDmConversations(ctx, a.accessToken())
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Fprintln(a.out, noDMs)
		return nil
	}

	peers := make([]string, 0, len(convs))
	for _, c := range convs {
		peers = append(peers, c.Peer(a.userID()))
	}
	names := a.usernames(ctx, peers)

	for _, c := range convs {
		peer := c.Peer(a.userID())
		pin := ""
		if c.IsPinned {
			pin = " [pinned]"
		}
		fmt.Fprintf(a.out, "%d\t@%s%s\n", c.ID, names.name(peer), pin)
	}
	return nil
}

// Messages prints the history of one DM conversation with attachment links
// resolved to fetchable URLs.
func (a *App) Messages(ctx context.Context, args []string) error {
	id, err := idArg(args, "messages <conversation id>")
	if err != nil {
		return err
	}
	if err := a.freshSession(ctx); err != nil {
		return err
	}
	msgs, err := a.dms.FetchDmMessages(ctx, a.accessToken(), id)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, noMessages)
		return nil
	}

	refs := make([]string, len(msgs))
	senders := make([]string, 0, len(msgs))
	for i, m := range msgs {
		refs[i] = m.Attachment()
		senders = append(senders, m.SenderID)
	}
	urls := a.media.ResolveMessageAttachments(ctx, a.accessToken(), refs)
	names := a.usernames(ctx, senders)

	for i, m := range msgs {
		line := fmt.Sprintf("[%s] @%s: %s", m.CreatedAt.Local().Format(timeLayout), names.name(m.SenderID), m.Content)
		if m.EditedAt != nil {
			line += " (edited)"
		}
		fmt.Fprintln(a.out, line)
		if i < len(urls) && urls[i] != "" {
			fmt.Fprintf(a.out, "    attachment: %s\n", urls[i])
		}
	}
	return nil
}

// Glytches lists the Glytches the signed-in user belongs to.
func (a *App) Glytches(ctx context.Context) error {
	if err := a.freshSession(ctx); err != nil {
		return err
	}
	gs, err := a.glytches.ListGlytches(ctx, a.accessToken())
	if err != nil {
		return err
	}
	if len(gs) == 0 {
		fmt.Fprintln(a.out, noGlytches)
		return nil
	}
	for _, g := range gs {
		visibility := "private"
		if g.IsPublic != nil && *g.IsPublic {
			visibility = "public"
		}
		fmt.Fprintf(a.out, "%d\t%s\t%s\tinvite: %s\n", g.ID, g.Name, visibility, g.InviteCode)
	}
	return nil
}

// Channels lists the channels of one Glytch.
func (a *App) Channels(ctx context.Context, args []string) error {
	id, err := idArg(args, "channels <glytch id>")
	if err != nil {
		return err
	}
	if err := a.freshSession(ctx); err != nil {
		return err
	}
	chs, err := a.glytches.ListGlytchChannels(ctx, a.accessToken(), id)
	if err != nil {
		return err
	}
	if len(chs) == 0 {
		fmt.Fprintln(a.out, noChannels)
		return nil
	}
	for _, c := range chs {
		detail := string(c.TextPostMode)
		if c.Kind == models.ChannelVoice {
			detail = "no limit"
			if c.VoiceUserLimit != nil {
				detail = fmt.Sprintf("limit %d", *c.VoiceUserLimit)
			}
		}
		fmt.Fprintf(a.out, "%d\t#%s\t%s\t%s\n", c.ID, c.Name, c.Kind, detail)
	}
	return nil
}

// Gifs searches the GIF provider. It works signed out; an empty query
// returns the trending set.
func (a *App) Gifs(ctx context.Context, args []string) error {
	page := a.media.SearchGifs(ctx, strings.Join(args, " "), gifPageSize)
	if len(page.Results) == 0 {
		fmt.Fprintln(a.out, noGifs)
		return nil
	}
	for _, g := range page.Results {
		fmt.Fprintf(a.out, "%s\t%s\n", g.Description, g.URL)
	}
	return nil
}

// Resolve turns a stored attachment reference into a fetchable URL.
func (a *App) Resolve(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: resolve <attachment>", common.ErrInvalidArgument)
	}
	if a.isLoggedIn() {
		if err := a.freshSession(ctx); err != nil {
			return err
		}
	}
	u, ok := a.media.ResolveMessageAttachmentURL(ctx, a.accessToken(), args[0])
	if !ok {
		fmt.Fprintln(a.out, noResolvedURL)
		return nil
	}
	fmt.Fprintln(a.out, u)
	return nil
}

type nameBook map[string]string

func (b nameBook) name(userID string) string {
	if n, ok := b[userID]; ok && n != "" {
		return n
	}
	return userID
}

// usernames looks up handles for ids. A failed lookup is logged and the
// caller falls back to raw ids.
func (a *App) usernames(ctx context.Context, ids []string) nameBook {
	book := nameBook{}
	profiles, err := a.profiles.FetchProfilesByIDs(ctx, a.accessToken(), ids)
	if err != nil {
		a.log.Warn(ctx, "fetch profiles", "error", err)
		return book
	}
	for _, p := range profiles {
		book[p.UserID] = p.Username
	}
	return book
}
