// Package mail pulls candidate messages from Gmail. Fetch runs a query
// cascade so a quiet mailbox still yields something to classify, hydrates
// the matches, and reports token refreshes back to the caller.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/brieflyhq/briefly/internal/common"
	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/service"
)

// hydrateWorkers bounds concurrent messages.get calls per fetch.
const hydrateWorkers = 5

// staleFallbackLimit caps how many undated inbox messages the last-resort
// query may return.
const staleFallbackLimit = 10

// GmailSource implements service.MailSource against the Gmail API.
type GmailSource struct {
	oauthConfig *oauth2.Config
	logger      *slog.Logger
	retryOpts   service.RetryOptions
	now         func() time.Time
}

// NewGmailSource creates a Gmail-backed mail source.
func NewGmailSource(oauthConfig *oauth2.Config, logger *slog.Logger) *GmailSource {
	return &GmailSource{
		oauthConfig: oauthConfig,
		logger:      logger,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     15 * time.Second,
			Multiplier:   2.0,
		},
		now: time.Now,
	}
}

// Fetch pulls messages newer than the window, falling back to broader
// queries when the primary one comes up empty. The refreshed token, if any,
// is returned for the caller to persist.
func (s *GmailSource) Fetch(ctx context.Context, token *oauth2.Token, window time.Duration, limit int) (*service.FetchResult, error) {
	if token == nil {
		return nil, common.ErrNoCredential
	}
	if limit <= 0 {
		limit = 50
	}

	tokenSource := s.oauthConfig.TokenSource(ctx, token)
	current, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	}

	result := &service.FetchResult{}
	if current.AccessToken != token.AccessToken {
		s.logger.Info("refreshed Gmail credential")
		result.RefreshedToken = current
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	lister := func(ctx context.Context, query string, limit int) ([]string, error) {
		return s.list(ctx, svc, query, limit)
	}
	ids, usedFallback, err := s.listWithFallback(ctx, lister, window, limit)
	if err != nil {
		return nil, err
	}
	result.UsedFallback = usedFallback

	result.Messages = s.hydrate(ctx, svc, ids)
	return result, nil
}

// listFunc runs one mailbox search and returns matching message IDs.
type listFunc func(ctx context.Context, query string, limit int) ([]string, error)

// listWithFallback runs the query cascade: inbox and sent mail inside the
// window, then all mail inside the window, then a small undated inbox slice.
func (s *GmailSource) listWithFallback(ctx context.Context, list listFunc, window time.Duration, limit int) ([]string, bool, error) {
	cutoff := s.now().Add(-window).Format("2006/01/02")

	primary := fmt.Sprintf("(in:inbox OR in:sent) after:%s", cutoff)
	ids, err := list(ctx, primary, limit)
	if err != nil {
		return nil, false, err
	}
	if len(ids) > 0 {
		return ids, false, nil
	}

	relaxed := fmt.Sprintf("after:%s", cutoff)
	ids, err = list(ctx, relaxed, limit)
	if err != nil {
		return nil, false, err
	}
	if len(ids) > 0 {
		return ids, false, nil
	}

	staleLimit := limit
	if staleLimit > staleFallbackLimit {
		staleLimit = staleFallbackLimit
	}
	s.logger.Warn("no messages in window, falling back to undated inbox query",
		"cutoff", cutoff,
		"limit", staleLimit)
	ids, err = list(ctx, "in:inbox", staleLimit)
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

// list runs one messages.list call with retry.
func (s *GmailSource) list(ctx context.Context, svc *gmail.Service, query string, limit int) ([]string, error) {
	var ids []string
	err := common.WithRetry(ctx, func() error {
		resp, err := svc.Users.Messages.List("me").
			Q(query).
			MaxResults(int64(limit)).
			Context(ctx).
			Do()
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}

		ids = ids[:0]
		for _, ref := range resp.Messages {
			ids = append(ids, ref.Id)
		}
		return nil
	}, s.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: query %q: %v", common.ErrMailboxFetch, query, err)
	}
	return ids, nil
}

// hydrate fetches full messages with bounded concurrency. A message that
// fails to hydrate is dropped; the rest of the batch proceeds.
func (s *GmailSource) hydrate(ctx context.Context, svc *gmail.Service, ids []string) []model.Message {
	slots := make([]*model.Message, len(ids))

	var wg sync.WaitGroup
	sem := make(chan struct{}, hydrateWorkers)

	for i, id := range ids {
		wg.Add(1)
		go func(idx int, messageID string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			full, err := svc.Users.Messages.Get("me", messageID).
				Format("full").
				Context(ctx).
				Do()
			if err != nil {
				s.logger.Warn("failed to hydrate message, dropping it",
					"message_id", messageID,
					"error", err)
				return
			}

			msg := parseMessage(full, s.now())
			slots[idx] = &msg
		}(i, id)
	}
	wg.Wait()

	messages := make([]model.Message, 0, len(ids))
	for _, msg := range slots {
		if msg != nil {
			messages = append(messages, *msg)
		}
	}
	return messages
}
