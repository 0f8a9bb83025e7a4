package factory

import (
	"fmt"
	"time"

	"github.com/mikey/clawtools/internal/adapters/himalaya"
	"github.com/mikey/clawtools/internal/adapters/imapmail"
	"github.com/mikey/clawtools/internal/adapters/shell"
	"github.com/mikey/clawtools/internal/adapters/smtpmail"
	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/ports"
	"go.uber.org/zap"
)

// MailFactory creates mail clients and senders
type MailFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailFactory creates a new mail factory
func NewMailFactory(cfg *config.Config, logger *zap.Logger) *MailFactory {
	return &MailFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailClient creates the mail backend selected by mail.backend.
// IMAP dates are rendered in loc.
func (f *MailFactory) CreateMailClient(loc *time.Location) (core.MailClient, error) {
	mc := f.cfg.GetMail()

	switch mc.Backend {
	case "himalaya", "":
		return himalaya.NewClient(mc.HimalayaBin, shell.NewExecRunner(f.logger), f.logger), nil
	case "imap":
		ic := f.cfg.GetIMAP()
		if ic.Address == "" {
			return nil, imapmail.ErrNotConfigured
		}
		return imapmail.NewClient(ic.Address, ic.Username, ic.Password, ic.TLS, loc, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail backend: %s", mc.Backend)
	}
}

// CreateMailSender creates the SMTP sender, or nil when smtp.address is unset
func (f *MailFactory) CreateMailSender() ports.MailSender {
	sc := f.cfg.GetSMTP()
	if sc.Address == "" {
		return nil
	}
	return smtpmail.NewSender(sc.Address, sc.Username, sc.Password, sc.Security, f.logger)
}
