package notifier

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/logger"
)

// DefaultPause is the wait between consecutive posts
const DefaultPause = 2 * time.Second

// ErrMissingCredentials is returned when a Twitter credential is unset
var ErrMissingCredentials = errors.New("missing required Twitter credentials in environment variables")

// statusUpdater is satisfied by *twitter.StatusService
type statusUpdater interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error)
}

// TwitterNotifier posts events to Twitter
type TwitterNotifier struct {
	statuses statusUpdater
	pause    time.Duration
	sleep    func(time.Duration)
}

// NewTwitterNotifier creates a new Twitter notifier using environment variables
// Required environment variables:
// - TWITTER_API_KEY
// - TWITTER_API_SECRET
// - TWITTER_ACCESS_TOKEN
// - TWITTER_ACCESS_SECRET
func NewTwitterNotifier() (*TwitterNotifier, error) {
	apiKey := os.Getenv("TWITTER_API_KEY")
	apiSecret := os.Getenv("TWITTER_API_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessSecret := os.Getenv("TWITTER_ACCESS_SECRET")

	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, ErrMissingCredentials
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return &TwitterNotifier{
		statuses: client.Statuses,
		pause:    DefaultPause,
		sleep:    time.Sleep,
	}, nil
}

// Notify posts one status per event, pausing between posts
func (n *TwitterNotifier) Notify(events []*event.Event) error {
	for i, evt := range events {
		post := formatPost(evt)

		if _, _, err := n.statuses.Update(post, nil); err != nil {
			return fmt.Errorf("posting event %s: %w", evt.ID, err)
		}

		logger.Info("Posted event", logger.Fields{
			"event_id": evt.ID,
			"venue":    evt.VenueID,
		})

		if i < len(events)-1 && n.pause > 0 {
			n.sleep(n.pause)
		}
	}

	return nil
}
