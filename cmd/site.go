package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridies/eventbid/internal/cli"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/sites"
	"github.com/meridies/eventbid/internal/store"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Browse and apply site profiles",
}

var siteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List built-in and saved site profiles",
	Args:    cobra.NoArgs,
	RunE:    runSiteList,
}

var siteShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show the fields a site profile sets",
	Args:  cobra.ExactArgs(1),
	RunE:  runSiteShow,
}

var siteApplyCmd = &cobra.Command{
	Use:   "apply KEY NAME",
	Short: "Copy a site profile's fields onto a bid",
	Args:  cobra.ExactArgs(2),
	RunE:  runSiteApply,
}

var siteSaveCmd = &cobra.Command{
	Use:   "save KEY",
	Short: "Save a bid's site fields as a reusable profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runSiteSave,
}

func init() {
	siteListCmd.Flags().BoolVar(&flagJSON, "json", false, "Print JSON")
	siteShowCmd.Flags().BoolVar(&flagJSON, "json", false, "Print JSON")

	siteCmd.AddCommand(siteListCmd, siteShowCmd, siteApplyCmd, siteSaveCmd)
	rootCmd.AddCommand(siteCmd)
}

func runSiteList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	list, err := sites.NewCatalog(st).List(ctx)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(list)
	}

	t := cli.Table{Title: "Site Profiles", Headers: []string{"Site", "Address", "Source"}}
	for _, e := range list {
		address := "-"
		if e.Profile.SiteAddress != nil {
			address = *e.Profile.SiteAddress
		}
		t.Rows = append(t.Rows, []string{e.Profile.Name(), address, string(e.Source)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(t))
	return nil
}

func runSiteShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	e, err := sites.NewCatalog(st).Get(ctx, args[0])
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(e)
	}

	// Render through a blank bid so only the fields the profile sets show up.
	b := model.ApplyProfile(model.BidRecord{}, e.Profile)
	t := cli.Table{
		Title:   fmt.Sprintf("%s (%s)", e.Profile.Name(), e.Source),
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Address", cli.FormatOr(b.SiteAddress, "-")},
			{"Parking spaces", cli.FormatNumber(int64(b.ParkingSpaces))},
			{"Bathrooms", cli.FormatNumber(int64(b.BathroomsCount))},
			{"Kitchen", cli.FormatOr(b.KitchenSize, "-")},
			{"Camping", campingSummary(b)},
		},
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(t))
	return nil
}

func runSiteApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withSession(ctx, args[0], func(st store.Store, sess *session.Session) error {
		e, err := sites.NewCatalog(st).Get(ctx, args[1])
		if err != nil {
			return err
		}
		if err := sess.Apply(session.ApplyProfile(e.Profile)); err != nil {
			return err
		}
		fmt.Printf("  Applied %s\n", e.Profile.Name())
		return saveAndReport(cmd, sess, false)
	})
}

func runSiteSave(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withSession(ctx, args[0], func(st store.Store, sess *session.Session) error {
		p := model.ProfileFromBid(sess.Bid())
		v, err := sites.NewCatalog(st).Save(ctx, p, store.AnyVersion)
		if err != nil {
			return err
		}
		fmt.Printf("  Saved site profile %s (v%d)\n", p.Name(), v)
		return nil
	})
}
