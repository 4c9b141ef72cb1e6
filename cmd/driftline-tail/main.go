// Package main provides driftline-tail, a small terminal utility that
// connects to a Driftline node and prints gateway traffic as it arrives.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/driftline/go-sdk/pkg/client"
	"github.com/driftline/go-sdk/pkg/core/events"
	"github.com/driftline/go-sdk/pkg/models"
	"github.com/driftline/go-sdk/pkg/rest"
)

func main() {
	var (
		apiBase  = flag.String("api", "https://api.driftline.chat", "REST API base URL")
		email    = flag.String("email", "", "account email (paired with -password)")
		password = flag.String("password", "", "account password")
		userID   = flag.String("user", "", "session user id (paired with -token)")
		token    = flag.String("token", "", "existing session token")
		packets  = flag.Bool("packets", false, "print every decoded notification, not just messages")
		debug    = flag.Bool("debug", false, "log raw gateway frames")
	)
	flag.Parse()

	logger := logrus.New()
	if *debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, options{
		apiBase:  *apiBase,
		email:    *email,
		password: *password,
		userID:   *userID,
		token:    *token,
		packets:  *packets,
		debug:    *debug,
	}); err != nil {
		logger.WithError(err).Fatal("driftline-tail failed")
	}
}

type options struct {
	apiBase  string
	email    string
	password string
	userID   string
	token    string
	packets  bool
	debug    bool
}

func run(ctx context.Context, logger *logrus.Logger, opts options) error {
	api, err := rest.New(rest.Config{APIBase: opts.apiBase, Logger: logger})
	if err != nil {
		return err
	}

	session, err := resolveSession(ctx, api, opts)
	if err != nil {
		return err
	}

	config, err := api.NodeInfo(ctx)
	if err != nil {
		return fmt.Errorf("fetching node configuration: %w", err)
	}
	logger.WithField("gateway", config.WS).Info("resolved node")

	c, err := client.New(client.Config{
		Configuration: config,
		Session:       session,
		Hydrator:      api,
		AutoReconnect: true,
		Debug:         opts.debug,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	c.OnReady(func() {
		state := c.State()
		logger.WithFields(logrus.Fields{
			"users":    state.Users().Count(),
			"channels": state.Channels().Count(),
		}).Info("ready")
	})
	c.OnDropped(func(err error) {
		logger.WithError(err).Warn("connection dropped")
	})
	c.OnMessage(func(m *models.Message) {
		channel := m.ChannelID
		if ch, ok := c.State().Channels().Get(m.ChannelID); ok && ch.Name != "" {
			channel = ch.Name
		}
		fmt.Printf("[%s] %s: %s\n", channel, m.Author, m.Content)
	})
	if opts.packets {
		c.OnPacket(func(event events.Event) {
			fmt.Printf("<- %s\n", event.Type())
		})
	}

	if err := c.Connect(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("connecting to gateway: %w", err)
	}

	<-ctx.Done()
	return c.Disconnect()
}

// resolveSession builds the session frame credentials from the flags: either
// an email/password login or a pre-existing token.
func resolveSession(ctx context.Context, api *rest.Client, opts options) (*models.Session, error) {
	switch {
	case opts.email != "" && opts.password != "":
		session, err := api.Login(ctx, opts.email, opts.password, "driftline-tail")
		if err != nil {
			return nil, fmt.Errorf("logging in: %w", err)
		}
		return session, nil
	case opts.userID != "" && opts.token != "":
		session := &models.Session{UserID: opts.userID, Token: opts.token}
		api.UseSession(session)
		return session, nil
	default:
		return nil, errors.New("credentials required: pass -email/-password or -user/-token")
	}
}
