package cmd

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/dmaitland/salespipe/actions"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a web service to launch and monitor ELT jobs",
	Long: `Start a web service to launch and monitor ELT jobs.
POST /jobs launches the configured job; GET /jobs lists jobs and
GET /jobs/{jobId}/stats and /jobs/{jobId}/status report on them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serveConfig.StackDumpOnPanic = stackDumpOnPanic
		eltConfig.StackDumpOnPanic = stackDumpOnPanic
		eltConfig.LogLevel = serveConfig.LogLevel
		eltConfig.StatsDumpFrequencySeconds = serveConfig.StatsDumpFrequencySeconds
		serveConfig.EltConfig = &eltConfig
		return actions.RunWebServer(&serveConfig)
	},
}

var serveConfig = actions.WebServerConfig{
	LogLevel:                  "info",
	Scheme:                    "http",
	Addr:                      net.IP{0, 0, 0, 0},
	Port:                      8080,
	StatsDumpFrequencySeconds: 5,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().SortFlags = false
	serveCmd.Flags().IPVarP(&serveConfig.Addr, "address", "a", net.IP{0, 0, 0, 0}, "Address to listen on")
	switches.addFlag(serveCmd, &serveConfig.Port, "port", "8080", false, "")
	switches.addFlag(serveCmd, &serveConfig.LogLevel, "log-level", "info", false, "")
	switches.addFlag(serveCmd, &serveConfig.StatsDumpFrequencySeconds, "stats", "5", false, "")
	// The served job shares the elt command's flag set via the environment.
	switches.addFlag(serveCmd, &eltConfig.NumOrders, "num-orders", "500", false, "")
	switches.addFlag(serveCmd, &eltConfig.CsvFileNamePrefix, "csv-prefix", "sales_orders", false, "")
	switches.addFlag(serveCmd, &eltConfig.BucketName, "s3-bucket", "", true, "")
	switches.addFlag(serveCmd, &eltConfig.BucketPrefix, "s3-prefix", "", false, "")
	switches.addFlag(serveCmd, &eltConfig.BucketRegion, "s3-region", "", true, "")
	switches.addFlag(serveCmd, &eltConfig.StageName, "stage", "", true, "")
	switches.addFlag(serveCmd, &eltConfig.TargetDsn, "target-dsn", "", true, "")
	switches.addFlag(serveCmd, &eltConfig.OrdersTable, "orders-table", "sales_orders", false, "")
	switches.addFlag(serveCmd, &eltConfig.CategoryTable, "category-table", "sales_orders_categorised", false, "")
	switches.addFlag(serveCmd, &eltConfig.CustomerTotalsTable, "customer-table", "customer_totals", false, "")
	switches.addFlag(serveCmd, &eltConfig.ProcedureName, "procedure-name", "insert_order", false, "")
	switches.addFlag(serveCmd, &eltConfig.AppendTarget, "append", "true", false, "")
}
