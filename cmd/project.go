package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/meridies/eventbid/internal/cli"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/store"
)

// scenario holds the sales figures shared by project, export and tui.
type scenario struct {
	full         int
	partial      int
	feast        int
	bedsTop      int
	bedsBottom   int
	attendance   int
	partialShare float64
	feastRate    float64
	lodgingRate  float64
	mode         string

	flags *pflag.FlagSet
}

var countFlags = []string{"full", "partial", "feast", "beds-top", "beds-bottom"}

func (s *scenario) register(fs *pflag.FlagSet) {
	s.flags = fs
	fs.IntVar(&s.full, "full", 0, "Full-price attendees")
	fs.IntVar(&s.partial, "partial", 0, "Daytrip attendees")
	fs.IntVar(&s.feast, "feast", 0, "Feast tickets sold")
	fs.IntVar(&s.bedsTop, "beds-top", 0, "Top bunks sold")
	fs.IntVar(&s.bedsBottom, "beds-bottom", 0, "Bottom bunks sold")
	fs.IntVar(&s.attendance, "attendance", -1, "Derive sales from this attendance (default the bid's expected attendance)")
	fs.Float64Var(&s.partialShare, "partial-share", -1, "Share of attendees on daytrip tickets (default from config)")
	fs.Float64Var(&s.feastRate, "feast-rate", -1, "Share of attendees buying feast (default from config)")
	fs.Float64Var(&s.lodgingRate, "lodging-rate", -1, "Share of attendees buying a bed (default from config)")
	fs.StringVar(&s.mode, "mode", "", "Expense column: projected or actual (default from config)")
}

// explicit reports whether any sales count was given on the command line.
func (s *scenario) explicit() bool {
	for _, name := range countFlags {
		if s.flags.Changed(name) {
			return true
		}
	}
	return false
}

// inputs builds the projection inputs. Explicit counts are used as given;
// otherwise sales are derived from attendance and the take rates.
func (s *scenario) inputs(b model.BidRecord) (projection.Inputs, error) {
	modeName := s.mode
	if modeName == "" {
		modeName = cfg.Projection.Mode
	}
	mode, err := model.ParseMode(modeName)
	if err != nil {
		return projection.Inputs{}, err
	}

	if s.explicit() {
		return projection.Inputs{
			AttendeesFull:    s.full,
			AttendeesPartial: s.partial,
			FeastCount:       s.feast,
			BedsTopSold:      s.bedsTop,
			BedsBottomSold:   s.bedsBottom,
			Mode:             mode,
		}, nil
	}

	attendance := b.ExpectedAttendance
	if s.flags.Changed("attendance") {
		attendance = s.attendance
	}
	rate := func(flag string, v, fallback float64) float64 {
		if s.flags.Changed(flag) {
			return v
		}
		return fallback
	}
	return projection.InputsFromRates(b, attendance,
		rate("partial-share", s.partialShare, cfg.Projection.PartialShare),
		rate("feast-rate", s.feastRate, cfg.Projection.FeastRate),
		rate("lodging-rate", s.lodgingRate, cfg.Projection.LodgingRate),
		mode,
	)
}

var projectScenario scenario

var projectCmd = &cobra.Command{
	Use:   "project KEY",
	Short: "Project gate, feast and bed finances for a sales scenario",
	Long: "Project a bid's finances. Give sales counts explicitly, or let them be\n" +
		"derived from the expected attendance and the configured take rates.\n\n" +
		"  eventbid project barony--spring-war --full 180 --partial 40 --feast 90\n" +
		"  eventbid project barony--spring-war --attendance 250 --mode actual",
	Args: cobra.ExactArgs(1),
	RunE: runProject,
}

func init() {
	projectScenario.register(projectCmd.Flags())
	projectCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the inputs and report as JSON")
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), args[0], func(_ store.Store, sess *session.Session) error {
		in, err := projectScenario.inputs(sess.Bid())
		if err != nil {
			return err
		}
		r, err := sess.Project(in)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(struct {
				Key    string            `json:"key"`
				Inputs projection.Inputs `json:"inputs"`
				Report projection.Report `json:"report"`
			}{sess.Key(), in, r})
		}

		b := sess.Bid()
		fmt.Println()
		fmt.Print(cli.RenderTitle(fmt.Sprintf("%s  %s", b.GroupName, b.EventName)))
		fmt.Printf("  Scenario: %d full, %d daytrip, %d feast, %d top and %d bottom bunks (%s costs)\n",
			in.AttendeesFull, in.AttendeesPartial, in.FeastCount, in.BedsTopSold, in.BedsBottomSold, in.Mode)
		fmt.Println()
		fmt.Print(cli.RenderReport(r))
		return nil
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
