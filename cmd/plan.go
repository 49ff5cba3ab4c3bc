// File: cmd/plan.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/authflow"
	"github.com/artgru/eduvulcan-for-ha/internal/browser"
	"github.com/artgru/eduvulcan-for-ha/internal/fetcher"
	"github.com/artgru/eduvulcan-for-ha/internal/observability"
	"github.com/artgru/eduvulcan-for-ha/internal/prompt"
	"github.com/artgru/eduvulcan-for-ha/internal/schedule"
	"github.com/artgru/eduvulcan-for-ha/internal/token"
	"github.com/artgru/eduvulcan-for-ha/internal/tokencache"
)

const dateFormat = "2006-01-02"

var (
	planFromFlag       string
	planToFlag         string
	planSchoolYearFlag bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the pupil's lesson schedule for a date range.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		cfg := appConfig
		ctx := cmd.Context()

		from, to, err := planRange(time.Now())
		if err != nil {
			return err
		}

		login, password, err := prompt.Credentials(loginFlag, passwordFlag)
		if err != nil {
			return err
		}
		cred := authflow.Credential{Login: login, Password: password}

		manager := browser.NewManager(cfg.Browser, logger)
		defer manager.Shutdown()

		flow := authflow.New(cfg.Portal.LoginURL, cfg.Flow, logger)
		cache := tokencache.New(cfg.Cache.Path, logger)
		runner := fetcher.NewBrowserRunner(manager, flow, logger)
		f := fetcher.New(cache, runner, logger)
		client := schedule.NewClient(cfg.Schedule, logger)

		rec, err := f.GetToken(ctx, cred)
		if err != nil {
			return err
		}

		si, err := registerWithRelogin(ctx, client, f, cache, cred, rec, logger)
		if err != nil {
			return err
		}

		lessons, err := client.Schedule(ctx, si, from, to)
		if err != nil {
			return err
		}

		printPlan(si, lessons, from, to)
		return nil
	},
}

// registerWithRelogin registers the token with the mobile API. A cached token
// the portal still serves but the API rejects gets one fresh-login retry.
func registerWithRelogin(ctx context.Context, client *schedule.Client, f *fetcher.Fetcher, cache *tokencache.Cache, cred authflow.Credential, rec token.Record, logger *zap.Logger) (*schedule.SessionInfo, error) {
	si, err := client.Register(ctx, rec)
	if err == nil {
		return si, nil
	}

	logger.Warn("Registration rejected the token; discarding it and logging in again.", zap.Error(err))
	if invErr := cache.Invalidate(); invErr != nil {
		logger.Warn("Failed to discard rejected token.", zap.Error(invErr))
	}

	rec, err = f.GetToken(ctx, cred)
	if err != nil {
		return nil, err
	}
	return client.Register(ctx, rec)
}

// planRange resolves the date-range flags against today.
func planRange(today time.Time) (time.Time, time.Time, error) {
	if planSchoolYearFlag {
		return schedule.SchoolYearStart(today), today, nil
	}

	from := today
	if planFromFlag != "" {
		var err error
		from, err = time.Parse(dateFormat, planFromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: use YYYY-MM-DD", planFromFlag)
		}
	}

	to := from
	if planToFlag != "" {
		var err error
		to, err = time.Parse(dateFormat, planToFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: use YYYY-MM-DD", planToFlag)
		}
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must not be before --from")
	}
	return from, to, nil
}

func printPlan(si *schedule.SessionInfo, lessons []schedule.Lesson, from, to time.Time) {
	fmt.Printf("Pupil: %s\nSchool: %s\nRange: %s to %s\n\n",
		si.PupilName, si.UnitName, from.Format(dateFormat), to.Format(dateFormat))

	if len(lessons) == 0 {
		fmt.Println("No lessons in the given range.")
		return
	}

	days, byDay := schedule.GroupByDay(lessons)
	for _, day := range days {
		fmt.Printf("== %s ==\n", day)
		for _, l := range byDay[day] {
			subject, teacher, room := l.Subject, l.Teacher, l.Room
			if subject == "" {
				subject = "?"
			}
			if teacher == "" {
				teacher = "?"
			}
			if room == "" {
				room = "?"
			}
			fmt.Printf("%s | %s | %s | room %s\n", l.TimeSlot, subject, teacher, room)
		}
		fmt.Println()
	}
}

func init() {
	planCmd.Flags().StringVar(&planFromFlag, "from", "", "range start, YYYY-MM-DD (default today)")
	planCmd.Flags().StringVar(&planToFlag, "to", "", "range end, YYYY-MM-DD (default same as --from)")
	planCmd.Flags().BoolVar(&planSchoolYearFlag, "school-year", false, "use the current school year (Sept 1 to today)")
	planCmd.Flags().StringVarP(&loginFlag, "login", "l", "", "portal login (e-mail); prompted when omitted")
	planCmd.Flags().StringVarP(&passwordFlag, "password", "p", "", "portal password; prompted when omitted")
	rootCmd.AddCommand(planCmd)
}
