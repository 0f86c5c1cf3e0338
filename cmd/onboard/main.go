package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"DriverOnboard/config"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/notify"
)

func main() {
	a := &app{notifier: notify.NewWriter(os.Stderr), out: "text"}

	root := &cobra.Command{
		Use:           "onboard",
		Short:         "Driver onboarding client",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(logger.CLI)
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&config.Cfg.BackendURL, "backend-url", config.Cfg.BackendURL, "Backend base URL (env BACKEND_URL)")
	root.PersistentFlags().StringVar(&config.Cfg.StoreDriver, "store", config.Cfg.StoreDriver, "Local store: bolt|memory|redis (env STORE_DRIVER)")
	root.PersistentFlags().StringVar(&config.Cfg.StorePath, "state", config.Cfg.StorePath, "Database file for the bolt store (env STORE_PATH)")
	root.PersistentFlags().StringVar(&a.out, "out", a.out, "Output format: text|json")

	root.AddCommand(
		healthCmd(a),
		sendOTPCmd(a),
		verifyOTPCmd(a),
		launchCmd(a),
		statusCmd(a),
		showCmd(a),
		draftsCmd(a),
		saveCmd(a),
		submitCmd(a),
		driverCmd(a),
		reuploadCmd(a),
		reuploadPairCmd(a),
		refreshCmd(a),
		logoutCmd(a),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		// PersistentPostRun 在出错时不会执行
		a.close()
		notify.Error(context.Background(), a.notifier, err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
