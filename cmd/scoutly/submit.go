package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/models"
	"scoutly/internal/submit/geolocation"
	"scoutly/internal/submit/session"
	"scoutly/internal/submit/signals"

	"github.com/spf13/cobra"
)

type submitOptions struct {
	photo      string
	useCamera  bool
	lat, lon   float64
	contractor []string
	realEstate []string
	occupancy  string
	notes      string
}

func newSubmitCmd(appRef func() *app) *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Walk a property submission through every step and commit it",
		Example: `  scoutly submit --photo house.jpg --lat 40.6084 --lon -75.3781 \
    --contractor "Roof Damage" --realestate "Appears Vacant" --occupancy Vacant`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			user, err := currentUser(cmd, a)
			if err != nil {
				return err
			}

			var locator fixedLocator
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				locator.pos = &geolocation.Position{Latitude: opts.lat, Longitude: opts.lon}
			}

			sess := session.New(user, stillCamera{path: opts.photo}, locator, a.committer, a.log)
			defer sess.Close()

			rec, err := runSubmission(cmd, sess, opts)
			if err != nil {
				return a.fail("submit", scoutFacing(err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Submitted %s\n", session.DisplayID(rec))
			_, err = sess.Leave(cmd.Context())
			if err != nil {
				return a.fail("submit", err)
			}
			return printJSON(out, rec)
		},
	}

	cmd.Flags().StringVar(&opts.photo, "photo", "", "Image file of the property")
	cmd.Flags().BoolVar(&opts.useCamera, "camera", false, "Capture the image through the camera path instead of a file pick")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Latitude reported by the device")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "Longitude reported by the device")
	cmd.Flags().StringSliceVar(&opts.contractor, "contractor", nil, "Contractor signals")
	cmd.Flags().StringSliceVar(&opts.realEstate, "realestate", nil, "Real estate signals")
	cmd.Flags().StringVar(&opts.occupancy, "occupancy", "", "Occupied, Vacant or Unsure")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "Free-text notes")
	_ = cmd.MarkFlagRequired("photo")
	return cmd
}

func runSubmission(cmd *cobra.Command, sess *session.Session, opts submitOptions) (*models.SubmissionRecord, error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	progress(out, sess)
	if opts.useCamera {
		if err := sess.StartCamera(ctx); err != nil {
			return nil, err
		}
		if err := sess.Capture(ctx); err != nil {
			return nil, err
		}
	} else {
		data, contentType, err := readPhoto(opts.photo)
		if err != nil {
			return nil, err
		}
		if err := sess.SelectFile(filepath.Base(opts.photo), contentType, data); err != nil {
			return nil, err
		}
	}
	if _, err := sess.Next(ctx); err != nil {
		return nil, err
	}

	progress(out, sess)
	if _, err := sess.Next(ctx); err != nil {
		if locErr := sess.LocationErr(); locErr != nil {
			return nil, locErr
		}
		return nil, err
	}

	progress(out, sess)
	for _, sig := range opts.contractor {
		if _, err := sess.ToggleSignal(signals.Contractor, sig); err != nil {
			return nil, err
		}
	}
	for _, sig := range opts.realEstate {
		if _, err := sess.ToggleSignal(signals.RealEstate, sig); err != nil {
			return nil, err
		}
	}
	if _, err := sess.Next(ctx); err != nil {
		return nil, err
	}

	progress(out, sess)
	if err := sess.SetOccupancy(models.OccupancyStatus(opts.occupancy)); err != nil {
		return nil, err
	}
	if err := sess.SetNotes(opts.notes); err != nil {
		return nil, err
	}
	if _, err := sess.Next(ctx); err != nil {
		return nil, err
	}

	progress(out, sess)
	return sess.Submit(ctx)
}

func progress(w io.Writer, sess *session.Session) {
	step := sess.Step()
	if cur, total, pct, ok := step.Progress(); ok {
		fmt.Fprintf(w, "Step %d of %d (%d%%): %s\n", cur, total, pct, step)
	}
}

func readPhoto(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read photo: %w", err)
	}
	return data, http.DetectContentType(data), nil
}

// scoutFacing turns step guard and vocabulary rejections into validation
// errors so their reason reaches the scout.
func scoutFacing(err error) error {
	for _, target := range []error{
		session.ErrStepBlocked,
		session.ErrInvalidTransition,
		signals.ErrUnknownSignal,
	} {
		if errors.Is(err, target) {
			return apperrors.NewValidationError(err.Error())
		}
	}
	return err
}
