// Package notify delivers down alerts to the operator over e-mail and push.
package notify

import (
	"context"
	"fmt"
	"strings"

	"backuphub/internal/logging"
	"backuphub/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Mail is a fully rendered message.
type Mail struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Mail) error
}

// Pusher delivers a short plaintext message to a list of targets.
type Pusher interface {
	Push(ctx context.Context, targets []string, message string) error
}

// Dispatcher renders alerts and fans them out to the enabled channels.
type Dispatcher struct {
	mailer Mailer
	from   string

	relay  Pusher                 // embedded mode
	remote func(url string) Pusher // remote-relay mode
}

// NewDispatcher returns a Dispatcher. A nil mailer or relay disables that
// transport; remote builds a pusher for an operator-configured relay URL.
func NewDispatcher(mailer Mailer, from string, relay Pusher, remote func(url string) Pusher) *Dispatcher {
	return &Dispatcher{mailer: mailer, from: from, relay: relay, remote: remote}
}

// Dispatch sends one alert naming every alias through each channel the
// recipient enabled. Channels run concurrently and independently; failures
// are logged and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient models.User, aliases []string) {
	if len(aliases) == 0 {
		return
	}
	log := logging.Log.WithFields(logrus.Fields{"recipient": recipient.Username, "repositories": len(aliases)})

	var g errgroup.Group
	if recipient.EmailAlertEnabled {
		g.Go(func() error {
			if err := d.sendMail(ctx, recipient, aliases); err != nil {
				log.Errorf("Alert e-mail failed: %v", err)
				return err
			}
			log.Info("Alert e-mail sent.")
			return nil
		})
	}
	if recipient.PushAlertEnabled {
		g.Go(func() error {
			if err := d.sendPush(ctx, recipient, aliases); err != nil {
				log.Errorf("Alert push failed: %v", err)
				return err
			}
			log.Info("Alert push sent.")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("Alert dispatch finished with errors.")
	}
}

func (d *Dispatcher) sendMail(ctx context.Context, recipient models.User, aliases []string) error {
	if d.mailer == nil {
		return fmt.Errorf("no mail transport configured")
	}
	if recipient.Email == "" {
		return fmt.Errorf("user %s has no e-mail address", recipient.Username)
	}
	msg, err := renderAlertMail(d.from, recipient.Email, aliases)
	if err != nil {
		return err
	}
	return d.mailer.Send(ctx, msg)
}

func (d *Dispatcher) sendPush(ctx context.Context, recipient models.User, aliases []string) error {
	message := PushMessage(aliases)

	switch recipient.PushMode {
	case models.PushModeEmbedded:
		if d.relay == nil {
			return fmt.Errorf("no local push relay configured")
		}
		if len(recipient.PushTargets) == 0 {
			return fmt.Errorf("no push targets configured")
		}
		return d.relay.Push(ctx, recipient.PushTargets, message)
	case models.PushModeRemoteRelay:
		if recipient.PushRelayURL == "" || d.remote == nil {
			return fmt.Errorf("no push relay URL configured")
		}
		return d.remote(recipient.PushRelayURL).Push(ctx, recipient.PushTargets, message)
	default:
		return fmt.Errorf("unknown push mode %q", recipient.PushMode)
	}
}

// PushMessage is the plaintext push body for the given down repositories.
func PushMessage(aliases []string) string {
	return "🔴 Some repositories are down: " + strings.Join(aliases, ", ")
}
