// Package mail handles the email edges of the intake flow: fetching
// enquiry emails over IMAP and sending acknowledgments over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomessage "github.com/emersion/go-message/mail"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// InboundEmail is one enquiry email pulled from the inbox.
type InboundEmail struct {
	Content string    // headers banner plus the plain-text body
	Date    time.Time // from the message envelope
	Sender  string
	CC      []string
}

// Fetcher retrieves the next enquiry email to ingest. Returns (nil, nil)
// when the inbox has no matching unread message.
type Fetcher interface {
	FetchLatest(ctx context.Context) (*InboundEmail, error)
}

// IMAPFetcher fetches the most recent unread email whose subject contains
// the configured filter, and marks it seen so it is ingested once. Each
// FetchLatest dials a fresh session.
type IMAPFetcher struct {
	addr          string
	username      string
	password      string
	subjectFilter string
}

// NewIMAPFetcher creates a fetcher against addr ("host:993").
func NewIMAPFetcher(addr, username, password, subjectFilter string) *IMAPFetcher {
	return &IMAPFetcher{
		addr:          addr,
		username:      username,
		password:      password,
		subjectFilter: subjectFilter,
	}
}

// FetchLatest returns the newest unseen message matching the subject filter.
func (f *IMAPFetcher) FetchLatest(ctx context.Context) (*InboundEmail, error) {
	c, err := imapclient.DialTLS(f.addr, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "mail: dial imap %s", f.addr)
	}
	defer c.Close()

	if err := c.Login(f.username, f.password).Wait(); err != nil {
		return nil, eris.Wrap(err, "mail: imap login")
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", nil).Wait(); err != nil {
		return nil, eris.Wrap(err, "mail: select inbox")
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "Subject", Value: f.subjectFilter},
		},
	}
	searchData, err := c.Search(criteria, nil).Wait()
	if err != nil {
		return nil, eris.Wrap(err, "mail: search inbox")
	}
	nums := searchData.AllSeqNums()
	if len(nums) == 0 {
		zap.L().Debug("mail: no unread enquiry emails",
			zap.String("subject_filter", f.subjectFilter),
		)
		return nil, nil
	}

	var seqSet imap.SeqSet
	seqSet.AddNum(nums...)
	bodySection := &imap.FetchItemBodySection{}
	messages, err := c.Fetch(seqSet, &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}).Collect()
	if err != nil {
		return nil, eris.Wrap(err, "mail: fetch messages")
	}

	var latest *imapclient.FetchMessageBuffer
	for _, msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		if latest == nil || msg.Envelope.Date.After(latest.Envelope.Date) {
			latest = msg
		}
	}
	if latest == nil {
		return nil, nil
	}

	raw := latest.FindBodySection(bodySection)
	if raw == nil {
		return nil, eris.New("mail: fetched message has no body")
	}

	sender := ""
	if len(latest.Envelope.From) > 0 {
		sender = latest.Envelope.From[0].Addr()
	}
	cc := make([]string, 0, len(latest.Envelope.Cc))
	for _, addr := range latest.Envelope.Cc {
		if a := addr.Addr(); a != "" {
			cc = append(cc, a)
		}
	}
	date := latest.Envelope.Date

	body, err := extractPlainText(raw)
	if err != nil {
		return nil, err
	}

	markSeen := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Flags:  []imap.Flag{imap.FlagSeen},
		Silent: true,
	}
	var latestSet imap.SeqSet
	latestSet.AddNum(latest.SeqNum)
	if err := c.Store(latestSet, markSeen, nil).Close(); err != nil {
		zap.L().Warn("mail: failed to mark message seen", zap.Error(err))
	}

	zap.L().Info("mail: fetched enquiry email",
		zap.String("sender", sender),
		zap.Time("date", date),
		zap.Int("cc", len(cc)),
	)

	return &InboundEmail{
		Content: formatContent(sender, date, body),
		Date:    date,
		Sender:  sender,
		CC:      cc,
	}, nil
}

// extractPlainText pulls the text/plain parts out of a raw RFC 822 message.
func extractPlainText(raw []byte) (string, error) {
	mr, err := gomessage.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", eris.Wrap(err, "mail: parse message")
	}

	var b strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", eris.Wrap(err, "mail: read message part")
		}
		if h, ok := part.Header.(*gomessage.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if contentType == "text/plain" || contentType == "" {
				text, err := io.ReadAll(part.Body)
				if err != nil {
					return "", eris.Wrap(err, "mail: read part body")
				}
				b.Write(text)
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}

// formatContent prepends a sender/date banner so extraction sees who wrote
// the email and when.
func formatContent(sender string, date time.Time, body string) string {
	return fmt.Sprintf("**From:** %s\n**Date:** %s\n%s",
		sender, date.Format("2006-01-02 15:04:05 -0700"), body)
}
