package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsilvagit/tutorfind/internal/cache"
	"github.com/rsilvagit/tutorfind/internal/filter"
	"github.com/rsilvagit/tutorfind/internal/output"
	"github.com/rsilvagit/tutorfind/internal/search"
)

func newWatchCmd(a *app) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Filter interactively, one key=value change per line",
		Long: `watch reads criteria changes from stdin, one per line, and prints the
matches after each change. Keys are the HTTP query parameters:

  q=math            free text, debounced
  min_price=40      range bounds (min_/max_rating, min_/max_price), debounced
  gender=female     selects (gender, method, course_type, grade)
  near_me=1         toggles (near_me, training_center, favorite, history)
  gender=           an empty value clears the key
  reset             clears every key
  quit              exits`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, user)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User UUID whose favorites and history apply")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, user string) error {
	ctx := cmd.Context()
	listings, rdb, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := output.NewConsolePrinter(out)
	opts := search.Options{
		TextDebounce:  a.cfg.Search.TextDebounce,
		RangeDebounce: a.cfg.Search.RangeDebounce,
		OnResult: func(r search.Result) {
			fmt.Fprintf(out, "\n#%d: %d match(es)\n", r.Seq, len(r.Listings))
			_ = printer.WriteListings(r.Listings)
		},
		User:   user,
		Logger: a.log,
	}
	if rdb != nil {
		defer rdb.Close()
		if user != "" {
			prefs := cache.NewPreferences(rdb)
			if err := prefs.Apply(ctx, user, listings); err != nil {
				return err
			}
			opts.History = prefs
		}
	}

	sess := search.NewSession(listings, opts)
	defer sess.Close()

	settle := 2 * max(a.cfg.Search.TextDebounce, a.cfg.Search.RangeDebounce)
	return watchLoop(cmd.InOrStdin(), cmd.ErrOrStderr(), sess, a.cfg.Search.NearLocation, settle)
}

// watchLoop feeds criteria changes read from in to sess. On end of input it
// waits up to settle for a pass still in its debounce window or running.
func watchLoop(in io.Reader, errOut io.Writer, sess *search.Session, nearLocation string, settle time.Duration) error {
	values := url.Values{}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "reset":
			values = url.Values{}
			sess.Update(filter.FromValues(values, nearLocation), search.InputSelect)
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok {
			fmt.Fprintf(errOut, "expected key=value, got %q\n", line)
			continue
		}
		kind, known := inputKind(key)
		if !known {
			fmt.Fprintf(errOut, "unknown key %q\n", key)
			continue
		}

		if val = strings.TrimSpace(val); val == "" {
			values.Del(key)
		} else {
			values.Set(key, val)
		}
		sess.Update(filter.FromValues(values, nearLocation), kind)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("watch: reading input: %w", err)
	}

	deadline := time.Now().Add(settle)
	for sess.Pending() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func inputKind(key string) (search.InputKind, bool) {
	switch key {
	case filter.ParamQuery:
		return search.InputText, true
	case filter.ParamMinRating, filter.ParamMaxRating, filter.ParamMinPrice, filter.ParamMaxPrice:
		return search.InputRange, true
	case filter.ParamNearMe, filter.ParamTrainingCenter, filter.ParamFavorite, filter.ParamHistory:
		return search.InputToggle, true
	case filter.ParamGender, filter.ParamMethod, filter.ParamCourseType, filter.ParamGrade:
		return search.InputSelect, true
	}
	return 0, false
}
