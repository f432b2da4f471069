package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rsilvagit/tutorfind/internal/cache"
	"github.com/rsilvagit/tutorfind/internal/filter"
	"github.com/rsilvagit/tutorfind/internal/metrics"
	"github.com/rsilvagit/tutorfind/internal/output"
)

type searchOptions struct {
	query          string
	genders        []string
	nearMe         bool
	trainingCenter bool
	favorite       bool
	history        bool
	minRating      string
	maxRating      string
	method         string
	courseType     string
	grade          string
	minPrice       string
	maxPrice       string

	user   string
	format string
	notify bool
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Filter listings once and print the matches",
		Example: `  tutorfind search math
  tutorfind search --gender female --max-price 60
  tutorfind search --course-type academics --grade "Grade 5" --format json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && opts.query == "" {
				opts.query = strings.Join(args, " ")
			}
			return a.runSearch(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.query, "query", "q", "", "Free text matched against name, courses, grades, school and bio")
	f.StringSliceVarP(&opts.genders, "gender", "g", nil, "Gender: male, female (repeatable)")
	f.BoolVar(&opts.nearMe, "near-me", false, "Only listings in the configured near location")
	f.BoolVar(&opts.trainingCenter, "training-center", false, "Only training centers")
	f.BoolVar(&opts.favorite, "favorite", false, "Only favorites (needs --user and Redis)")
	f.BoolVar(&opts.history, "history", false, "Only listings from earlier text searches")
	f.StringVar(&opts.minRating, "min-rating", "", "Minimum rating, 0 to 5")
	f.StringVar(&opts.maxRating, "max-rating", "", "Maximum rating, 0 to 5")
	f.StringVar(&opts.method, "method", "", "Learning method: online, in-person, hybrid")
	f.StringVar(&opts.courseType, "course-type", "", "Course type: academics, certifications")
	f.StringVar(&opts.grade, "grade", "", "Grade band such as \"Grade 5\", applied with --course-type academics")
	f.StringVar(&opts.minPrice, "min-price", "", "Minimum hourly price")
	f.StringVar(&opts.maxPrice, "max-price", "", "Maximum hourly price")
	f.StringVar(&opts.user, "user", "", "User UUID whose favorites and history apply")
	f.StringVarP(&opts.format, "format", "o", "table", "Output format: table or json")
	f.BoolVar(&opts.notify, "notify", false, "Also send results to the configured Telegram and Discord targets")

	return cmd
}

// values renders the flags as the query parameters FromValues understands,
// so the CLI and the HTTP API share one parsing path.
func (o *searchOptions) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			v.Set(key, val)
		}
	}
	setFlag := func(key string, on bool) {
		if on {
			v.Set(key, "1")
		}
	}

	set(filter.ParamQuery, o.query)
	for _, g := range o.genders {
		v.Add(filter.ParamGender, g)
	}
	setFlag(filter.ParamNearMe, o.nearMe)
	setFlag(filter.ParamTrainingCenter, o.trainingCenter)
	setFlag(filter.ParamFavorite, o.favorite)
	setFlag(filter.ParamHistory, o.history)
	set(filter.ParamMinRating, o.minRating)
	set(filter.ParamMaxRating, o.maxRating)
	set(filter.ParamMethod, o.method)
	set(filter.ParamCourseType, o.courseType)
	set(filter.ParamGrade, o.grade)
	set(filter.ParamMinPrice, o.minPrice)
	set(filter.ParamMaxPrice, o.maxPrice)
	return v
}

func (a *app) runSearch(cmd *cobra.Command, opts *searchOptions) error {
	var primary output.ResultWriter
	switch opts.format {
	case "table":
		primary = output.NewConsolePrinter(cmd.OutOrStdout())
	case "json":
		primary = output.NewJSONWriter(cmd.OutOrStdout())
	default:
		return fmt.Errorf("unknown output format %q", opts.format)
	}

	if opts.user != "" {
		if _, err := uuid.Parse(opts.user); err != nil {
			return fmt.Errorf("invalid --user %q: %w", opts.user, err)
		}
	}

	ctx := cmd.Context()
	listings, rdb, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	var prefs *cache.Preferences
	if rdb != nil {
		defer rdb.Close()
		if opts.user != "" {
			prefs = cache.NewPreferences(rdb)
			if err := prefs.Apply(ctx, opts.user, listings); err != nil {
				return err
			}
		}
	} else if opts.user != "" {
		a.log.Warn("--user ignored, redis is not configured")
	}

	c := filter.FromValues(opts.values(), a.cfg.Search.NearLocation)
	matches, err := filter.Apply(listings, &c)
	if err != nil {
		return err
	}
	metrics.FilterPasses.WithLabelValues("cli").Inc()
	metrics.FilterMatches.WithLabelValues("cli").Observe(float64(len(matches)))

	if c.Query != "" {
		marked := filter.RecordSearchHits(listings, c.Query)
		metrics.SearchHitsRecorded.Add(float64(len(marked)))
		if prefs != nil && len(marked) > 0 {
			if err := prefs.RecordHits(ctx, opts.user, marked); err != nil {
				a.log.Warn("persisting search history failed", zap.Error(err))
			}
		}
	}

	if err := primary.WriteListings(matches); err != nil {
		return err
	}
	if opts.format == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d listing(s) found.\n", len(matches))
	}

	if opts.notify {
		for _, w := range a.notifiers() {
			if err := w.WriteListings(matches); err != nil {
				a.log.Error("sending results failed", zap.Error(err))
			}
		}
	}
	return nil
}

func (a *app) notifiers() []output.ResultWriter {
	var writers []output.ResultWriter
	n := a.cfg.Notify
	if n.TelegramToken != "" && n.TelegramChatID != "" {
		writers = append(writers, output.NewTelegramWriter(n.TelegramToken, n.TelegramChatID))
	}
	if n.DiscordWebhook != "" {
		writers = append(writers, output.NewDiscordWriter(n.DiscordWebhook))
	}
	if len(writers) == 0 {
		a.log.Warn("--notify set but no Telegram or Discord target is configured")
	}
	return writers
}
