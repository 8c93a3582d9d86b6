package cmd

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/helper"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"num-orders": cliFlag{name: "num-orders", shortHand: "n",
		desc: "Number of synthetic sales orders to generate"},
	"seed": cliFlag{name: "seed", shortHand: "e",
		desc: "Seed for the synthetic data generator (use 0 for random data per run)"},
	"output-dir": cliFlag{name: "output-dir", shortHand: "D",
		desc: "Local directory for staged CSV files (leave blank to use OS temp space)"},
	"csv-prefix": cliFlag{name: "csv-prefix", shortHand: "c",
		desc: "The name prefix for CSV files generated and staged in the S3 bucket"},
	"csv-rows": cliFlag{name: "csv-rows", shortHand: "r",
		desc: "Max number of rows to store in a single CSV file (0 for unlimited)"},
	"csv-gzip": cliFlag{name: "csv-gzip", shortHand: "z",
		desc: "Gzip the staged CSV files (the warehouse auto-detects compression)"},
	"keep-local-files": cliFlag{name: "keep-local-files", shortHand: "k",
		desc: "Keep the local CSV files after they are uploaded to S3"},
	"s3-bucket": cliFlag{name: "s3-bucket", shortHand: "b",
		desc: "AWS S3 bucket name in which to stage CSV files \n" +
			"(set AWS environment variables for access)"},
	"s3-prefix": cliFlag{name: "s3-prefix", shortHand: "P",
		desc: "AWS S3 bucket prefix"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "AWS S3 bucket region"},
	"stage": cliFlag{name: "stage", shortHand: "s",
		desc: "The external Snowflake stage name that reads the S3 bucket"},
	"target-dsn": cliFlag{name: "target-dsn", shortHand: "t",
		desc: "Snowflake DSN of the form \n" +
			"snowflake://<user>:<password>@<account>/<database>/<schema>"},
	"orders-table": cliFlag{name: "orders-table", shortHand: "T",
		desc: "The [schema.]table to load raw sales orders into"},
	"category-table": cliFlag{name: "category-table", shortHand: "C",
		desc: "The [schema.]table rebuilt with orders bucketed by amount"},
	"customer-table": cliFlag{name: "customer-table", shortHand: "M",
		desc: "The [schema.]table rebuilt with order counts and spend per customer"},
	"procedure-name": cliFlag{name: "procedure-name", shortHand: "p",
		desc: "Name of the stored procedure created to insert single orders"},
	"append": cliFlag{name: "append", shortHand: "A",
		desc: "Append to the orders table (the default) instead of deleting existing rows first.\n" +
			"When append is false, COPY INTO statements include FORCE=TRUE to reload data files;\n" +
			"when append is true, the effect of COPY INTO depends on the load history"},
	"execute-ddl": cliFlag{name: "execute-ddl", shortHand: "d",
		desc: "Create the orders table first if it does not exist"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the job definition instead of running it"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\""},
	"stats": cliFlag{name: "stats", shortHand: "L",
		desc: "Number of seconds between dumping step statistics (use 0 to disable)"},
	"port": cliFlag{name: "port", shortHand: "w",
		desc: "Port to listen on"},
}

// addFlag adds a flag to cobra.Command c, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map, cliFlags.
// The default value is fetched from environment variable SP_<NAME> if set, else the supplied
// defaultValue is applied, so every flag can be driven by the environment instead of the CLI.
// The flag is marked as required in Cobra based on the value of required.
// Supply a value for desc2 to append to the existing description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue) // get the cliFlag details, with defaults taken from the environment or the supplied defaultValue
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
		if sw.val != "" { // if there is a value via the environment or default...
			mustSetFlag(c.Flags(), sw.name, sw.val)
		}
	case *bool:
		defaultBool := strings.ToLower(sw.val) == "true"
		c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
		// Signal that the flag was set so defaults take effect.
		if defaultBool {
			mustSetFlag(c.Flags(), sw.name, "true")
		} else {
			mustSetFlag(c.Flags(), sw.name, "false")
		}
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		if sw.val != "" {
			mustSetFlag(c.Flags(), sw.name, sw.val)
		}
	case *int64:
		defaultInt, err := strconv.ParseInt(sw.val, 10, 64)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		c.Flags().Int64VarP(p, sw.name, sw.shortHand, defaultInt, desc)
		if sw.val != "" {
			mustSetFlag(c.Flags(), sw.name, sw.val)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required { // if the flag is required...
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment,
// or uses the supplied defaultValue in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string) cliFlag {
	s, ok := switches[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	s.val = helper.ReadValueFromEnvWithDefault(flagNameToEnvVar(name), defaultValue)
	return s
}

// flagNameToEnvVar will form a sanitised environment variable name using constants.EnvVarPrefix.
func flagNameToEnvVar(name string) string {
	return constants.EnvVarPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
