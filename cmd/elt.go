package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmaitland/salespipe/actions"
	c "github.com/dmaitland/salespipe/constants"
)

// eltCmd represents the elt command.
var eltCmd = &cobra.Command{
	Use:   "elt",
	Short: "Generate sales orders, stage them in S3 and load them into Snowflake",
	Long: `Generate synthetic sales orders, write them to CSV, upload the files to an
S3 bucket, COPY INTO a Snowflake table via an external stage and then run SQL
transforms to categorise orders and total spend per customer.

All flags can be supplied via environment variables using prefix ` + c.EnvVarPrefix + `_
e.g. ` + c.EnvVarPrefix + `_S3_BUCKET for --s3-bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEltJob()
	},
}

var eltConfig = actions.EltConfig{}

func runEltJob() error {
	eltConfig.StackDumpOnPanic = stackDumpOnPanic
	return actions.RunSalesOrdersElt(&eltConfig)
}

func init() {
	rootCmd.AddCommand(eltCmd)
	eltCmd.Flags().SortFlags = false
	switches.addFlag(eltCmd, &eltConfig.NumOrders, "num-orders", strconv.Itoa(c.OrderCountDefault), false, "")
	switches.addFlag(eltCmd, &eltConfig.Seed, "seed", "0", false, "")
	switches.addFlag(eltCmd, &eltConfig.OutputDir, "output-dir", "", false, "")
	switches.addFlag(eltCmd, &eltConfig.CsvFileNamePrefix, "csv-prefix", "sales_orders", false, "")
	switches.addFlag(eltCmd, &eltConfig.CsvMaxFileRows, "csv-rows", "0", false, "")
	switches.addFlag(eltCmd, &eltConfig.CsvGzip, "csv-gzip", "false", false, "")
	switches.addFlag(eltCmd, &eltConfig.KeepLocalFiles, "keep-local-files", "false", false, "")
	switches.addFlag(eltCmd, &eltConfig.BucketName, "s3-bucket", "", true, "")
	switches.addFlag(eltCmd, &eltConfig.BucketPrefix, "s3-prefix", "", false, "")
	switches.addFlag(eltCmd, &eltConfig.BucketRegion, "s3-region", "", true, "")
	switches.addFlag(eltCmd, &eltConfig.StageName, "stage", "", true, "")
	switches.addFlag(eltCmd, &eltConfig.TargetDsn, "target-dsn", "", true, "")
	switches.addFlag(eltCmd, &eltConfig.OrdersTable, "orders-table", "sales_orders", false, "")
	switches.addFlag(eltCmd, &eltConfig.CategoryTable, "category-table", "sales_orders_categorised", false, "")
	switches.addFlag(eltCmd, &eltConfig.CustomerTotalsTable, "customer-table", "customer_totals", false, "")
	switches.addFlag(eltCmd, &eltConfig.ProcedureName, "procedure-name", "insert_order", false, "")
	switches.addFlag(eltCmd, &eltConfig.AppendTarget, "append", "true", false, "")
	switches.addFlag(eltCmd, &eltConfig.ExecuteDDL, "execute-ddl", "false", false, "")
	switches.addFlag(eltCmd, &eltConfig.ExportConfigType, "output", "", false, "")
	switches.addFlag(eltCmd, &eltConfig.LogLevel, "log-level", "info", false, "")
	switches.addFlag(eltCmd, &eltConfig.StatsDumpFrequencySeconds, "stats", "5", false, "")
}
