package cmd

import (
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	c "github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/helper"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2024-11-18T00:00+0000"
	stackDumpOnPanic bool
	lambdaMode       bool // true if os env var constants.EnvVarLambdaMode is set
)

var rootCmd = &cobra.Command{
	Use: "sp",
	Long: `SalesPipe is a small ELT utility for the synthetic sales orders demo dataset.
It generates fake sales orders, stages them as CSV files in S3, loads them
into a Snowflake table via an external stage and then runs SQL transforms
to categorise orders and total spend per customer. Start an HTTP server to
launch and monitor jobs via a RESTful API.`,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
	setupLambdaMode()
}

// setupLambdaMode enables lambda execution based on the environment so the
// same binary can run as an AWS Lambda handler without CLI args.
func setupLambdaMode() {
	mode, _ := helper.GetEnvVar(c.EnvVarLambdaMode, false)
	lambdaMode = strings.ToLower(mode) == "true" || strings.ToLower(mode) == "1"
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if lambdaMode { // if we should handle lambda execution...
		lambda.Start(func() error { return runEltJob() })
	} else { // else we're using CLI args and flags via Cobra...
		if err := rootCmd.Execute(); err != nil {
			// Execute() prints the error.
			os.Exit(1)
		}
	}
}
