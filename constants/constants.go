package constants

const (
	ChanSize                     = 20000
	StatsCaptureFrequencySeconds = 5
	TimeFormatYearSeconds        = "20060102T150405" // used for human readable file names
	TimeFormatYearSecondsRegex   = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	TimeFormatCalendarDate       = "2006-01-02" // CSV and warehouse DATE rendering
	EnvVarPrefix                 = "SP"         // prefix for environment variables when flags are unset
	EnvVarLambdaMode             = EnvVarPrefix + "_LAMBDA"

	// Synthetic order defaults matching the warehouse table schema.
	OrderFieldId           = "order_id"
	OrderFieldCustomerName = "customer_name"
	OrderFieldAmount       = "order_amount"
	OrderFieldDate         = "order_date"
	OrderFieldProduct      = "product"
	OrderCountDefault      = 500
	OrderAmountMin         = 10.0
	OrderAmountMax         = 1000.0
	OrderDateWindowDays    = 30

	ConnectionTypeSnowflake = "snowflake"
	ConnectionTypeS3        = "s3"
)

// OrderCsvHeader is the CSV column ordering expected by the warehouse load.
var OrderCsvHeader = []string{
	OrderFieldId,
	OrderFieldCustomerName,
	OrderFieldAmount,
	OrderFieldDate,
	OrderFieldProduct,
}
