// Package imapmail lists and moves mail over IMAP without an external CLI.
package imapmail

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/mikey/clawtools/internal/core"
	"go.uber.org/zap"
)

// DateLayout matches the envelope dates printed by himalaya
const DateLayout = "2006-01-02 15:04-07:00"

// ErrNotConfigured is returned when no server address is set
var ErrNotConfigured = errors.New("imap address is not configured")

// Client implements core.MailClient against a single IMAP account. The
// query's account name is ignored.
type Client struct {
	address  string
	username string
	password string
	useTLS   bool
	location *time.Location
	logger   *zap.Logger
}

// NewClient creates a new IMAP client. Dates are rendered in loc.
func NewClient(address, username, password string, useTLS bool, loc *time.Location, logger *zap.Logger) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		address:  address,
		username: username,
		password: password,
		useTLS:   useTLS,
		location: loc,
		logger:   logger,
	}
}

func (c *Client) connect(folder string) (*imapclient.Client, error) {
	if c.address == "" {
		return nil, ErrNotConfigured
	}

	var (
		conn *imapclient.Client
		err  error
	)
	if c.useTLS {
		conn, err = imapclient.DialTLS(c.address, nil)
	} else {
		conn, err = imapclient.DialInsecure(c.address, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.address, err)
	}

	if err := conn.Login(c.username, c.password).Wait(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if _, err := conn.Select(folder, nil).Wait(); err != nil {
		c.disconnect(conn)
		return nil, fmt.Errorf("failed to select %s: %w", folder, err)
	}
	return conn, nil
}

func (c *Client) disconnect(conn *imapclient.Client) {
	if err := conn.Logout().Wait(); err != nil {
		c.logger.Debug("IMAP logout failed", zap.Error(err))
	}
	conn.Close()
}

// SearchCriteria translates a list query into an IMAP search
func SearchCriteria(q core.ListQuery, loc *time.Location) (*imap.SearchCriteria, error) {
	criteria := &imap.SearchCriteria{}
	if q.On != "" {
		day, err := time.ParseInLocation("2006-01-02", q.On, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", q.On, err)
		}
		criteria.Since = day
		criteria.Before = day.AddDate(0, 0, 1)
	}
	if q.Unseen {
		criteria.NotFlag = []imap.Flag{imap.FlagSeen}
	}
	return criteria, nil
}

// NewestUIDs returns at most n uids, highest first
func NewestUIDs(uids []imap.UID, n int) []imap.UID {
	sorted := append([]imap.UID(nil), uids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// EnvelopeFrom maps a fetched message onto the triage envelope
func EnvelopeFrom(uid imap.UID, env *imap.Envelope, flags []imap.Flag, loc *time.Location) core.Envelope {
	e := core.Envelope{ID: core.MessageID(strconv.FormatUint(uint64(uid), 10))}
	for _, f := range flags {
		e.Flags = append(e.Flags, string(f))
	}
	if env == nil {
		return e
	}
	e.Subject = env.Subject
	if !env.Date.IsZero() {
		e.Date = env.Date.In(loc).Format(DateLayout)
	}
	if len(env.From) > 0 {
		e.From = core.Address{Name: env.From[0].Name, Addr: env.From[0].Addr()}
	}
	return e
}

// ListEnvelopes searches the folder and fetches the newest page of envelopes
func (c *Client) ListEnvelopes(ctx context.Context, q core.ListQuery) ([]core.Envelope, error) {
	criteria, err := SearchCriteria(q, c.location)
	if err != nil {
		return nil, err
	}

	conn, err := c.connect(q.Folder)
	if err != nil {
		return nil, err
	}
	defer c.disconnect(conn)

	data, err := conn.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	uids := NewestUIDs(data.AllUIDs(), q.PageSize)
	if len(uids) == 0 {
		return []core.Envelope{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs, err := conn.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:      true,
		Envelope: true,
		Flags:    true,
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	envelopes := make([]core.Envelope, 0, len(msgs))
	for _, m := range msgs {
		envelopes = append(envelopes, EnvelopeFrom(m.UID, m.Envelope, m.Flags, c.location))
	}
	sort.SliceStable(envelopes, func(i, j int) bool {
		return envelopes[i].Date > envelopes[j].Date
	})

	c.logger.Debug("Listed envelopes",
		zap.String("folder", q.Folder),
		zap.Int("matched", len(data.AllUIDs())),
		zap.Int("count", len(envelopes)))
	return envelopes, nil
}

// MoveMessages moves the uids with a single UID MOVE
func (c *Client) MoveMessages(ctx context.Context, req core.MoveRequest) error {
	if len(req.IDs) == 0 {
		return nil
	}

	uids := make([]imap.UID, 0, len(req.IDs))
	for _, id := range req.IDs {
		n, err := strconv.ParseUint(string(id), 10, 32)
		if err != nil {
			return fmt.Errorf("invalid message id %q: %w", id, err)
		}
		uids = append(uids, imap.UID(n))
	}

	conn, err := c.connect(req.SourceFolder)
	if err != nil {
		return err
	}
	defer c.disconnect(conn)

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := conn.Move(imap.UIDSetNum(uids...), req.TargetFolder).Wait(); err != nil {
		return fmt.Errorf("move to %s failed: %w", req.TargetFolder, err)
	}

	c.logger.Info("Moved messages",
		zap.String("from", req.SourceFolder),
		zap.String("to", req.TargetFolder),
		zap.Int("count", len(uids)))
	return nil
}
