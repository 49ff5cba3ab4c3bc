// File: internal/schedule/client.go
// Description: Thin client for the VULCAN mobile API consumed downstream of
// the token exchange. It needs exactly what the exchange produces, the
// {jwt, tenant} pair, and trusts the REST base URL the register call returns.
package schedule

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/config"
	"github.com/artgru/eduvulcan-for-ha/internal/token"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const apiDateFormat = "2006-01-02"

// SessionInfo is the registered session state needed for schedule queries.
type SessionInfo struct {
	RestURL   string
	PupilID   int
	PupilName string
	UnitName  string
}

// Lesson is one schedule entry.
type Lesson struct {
	Date     string `json:"Date"`
	Position int    `json:"Position"`
	TimeSlot string `json:"TimeSlot"`
	Subject  string `json:"Subject"`
	Teacher  string `json:"Teacher"`
	Room     string `json:"Room"`
}

// envelope is the mobile API's response wrapper.
type envelope struct {
	Status struct {
		Code    int    `json:"Code"`
		Message string `json:"Message"`
	} `json:"Status"`
	Envelope jsoniter.RawMessage `json:"Envelope"`
}

// Client talks to the mobile API on behalf of one registered device.
type Client struct {
	baseURL     string
	deviceOS    string
	deviceModel string
	hc          *retryablehttp.Client
	log         *zap.Logger
}

// NewClient creates a Client from the schedule configuration.
func NewClient(cfg config.ScheduleConfig, logger *zap.Logger) *Client {
	log := logger.Named("schedule")

	hc := retryablehttp.NewClient()
	hc.RetryMax = 2
	hc.HTTPClient.Timeout = cfg.RequestTimeout
	hc.Logger = nil

	return &Client{
		baseURL:     cfg.BaseURL,
		deviceOS:    cfg.DeviceOS,
		deviceModel: cfg.DeviceModel,
		hc:          hc,
		log:         log,
	}
}

// Register exchanges the token record for a device session. The returned
// SessionInfo carries the unit's REST base URL, which all later queries use.
func (c *Client) Register(ctx context.Context, rec token.Record) (*SessionInfo, error) {
	body := map[string]any{
		"OS":          c.deviceOS,
		"DeviceModel": c.deviceModel,
		"Tokens":      []string{rec.JWT},
		"Tenant":      rec.Tenant,
	}
	url := fmt.Sprintf("%s/%s/api/mobile/register/jwt", c.baseURL, rec.Tenant)

	var account struct {
		Unit struct {
			Name    string `json:"Name"`
			RestURL string `json:"RestURL"`
		} `json:"Unit"`
		Pupil struct {
			ID        int    `json:"Id"`
			FirstName string `json:"FirstName"`
		} `json:"Pupil"`
	}
	if err := c.do(ctx, http.MethodPost, url, body, &account); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	if account.Unit.RestURL == "" {
		return nil, fmt.Errorf("registration returned no REST URL")
	}

	c.log.Info("Registered device session.",
		zap.String("pupil", account.Pupil.FirstName),
		zap.String("unit", account.Unit.Name))

	return &SessionInfo{
		RestURL:   account.Unit.RestURL,
		PupilID:   account.Pupil.ID,
		PupilName: account.Pupil.FirstName,
		UnitName:  account.Unit.Name,
	}, nil
}

// Schedule returns lessons in the inclusive date range, sorted by day and
// slot position.
func (c *Client) Schedule(ctx context.Context, si *SessionInfo, from, to time.Time) ([]Lesson, error) {
	url := fmt.Sprintf("%s/mobile/schedule/byPupil?pupilId=%d&dateFrom=%s&dateTo=%s",
		si.RestURL, si.PupilID, from.Format(apiDateFormat), to.Format(apiDateFormat))

	var lessons []Lesson
	if err := c.do(ctx, http.MethodGet, url, nil, &lessons); err != nil {
		return nil, fmt.Errorf("schedule query failed: %w", err)
	}

	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].Date != lessons[j].Date {
			return lessons[i].Date < lessons[j].Date
		}
		return lessons[i].Position < lessons[j].Position
	})
	return lessons, nil
}

// do issues one API call and decodes the envelope into out.
func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Status.Code != 0 {
		return fmt.Errorf("api error %d: %s", env.Status.Code, env.Status.Message)
	}
	if out != nil {
		if err := json.Unmarshal(env.Envelope, out); err != nil {
			return fmt.Errorf("failed to decode envelope: %w", err)
		}
	}
	return nil
}

// SchoolYearStart returns September 1st of the school year containing today.
func SchoolYearStart(today time.Time) time.Time {
	year := today.Year()
	if today.Month() < time.September {
		year--
	}
	return time.Date(year, time.September, 1, 0, 0, 0, 0, today.Location())
}

// GroupByDay buckets lessons by date, preserving the input's lesson order
// within each day. The returned slice of days is sorted.
func GroupByDay(lessons []Lesson) ([]string, map[string][]Lesson) {
	byDay := make(map[string][]Lesson)
	for _, l := range lessons {
		byDay[l.Date] = append(byDay[l.Date], l)
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	return days, byDay
}
