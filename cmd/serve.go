package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/server"
)

var (
	flagServeAddr   string
	flagServeEvents int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bid HTTP API",
	Long: "Serve bids, projections, exports and site profiles over HTTP from the\n" +
		"configured store. Stops on SIGINT or SIGTERM.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().IntVar(&flagServeEvents, "events-buffer", 200, "Change events kept for /v1/events replay")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}
	opts, err := projectionOptions()
	if err != nil {
		return err
	}
	mode, err := model.ParseMode(cfg.Projection.Mode)
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	srv := server.New(server.Config{
		Addr:         addr,
		Driver:       cfg.Store.Driver,
		EventsBuffer: flagServeEvents,
		Projection:   opts,
		Rates: server.Rates{
			PartialShare: cfg.Projection.PartialShare,
			FeastRate:    cfg.Projection.FeastRate,
			LodgingRate:  cfg.Projection.LodgingRate,
			Mode:         mode,
		},
	}, st, log)

	return srv.Run(ctx)
}
