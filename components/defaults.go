package components

// Default field names are used by components to know the names of input and output fields.
var Defaults = struct {
	ChanField4CSVFileName  string // the map key that contains CSV file names produced by the CSV writer.
	ChanField4FileName     string // the map key that contains the file name staged in the S3 bucket.
	ChanField4SqlQuery     string // the map key that contains a SQL statement to execute.
	ChanField4RowsAffected string // the map key populated with the number of rows affected by a SQL statement.
	ChanField4StatementTag string // the map key naming the pipeline step a SQL statement belongs to.
}{
	ChanField4CSVFileName:  "#CSVFileName",
	ChanField4FileName:     "#DataFileName",
	ChanField4SqlQuery:     "#SqlQuery",
	ChanField4RowsAffected: "#SqlRowsAffected",
	ChanField4StatementTag: "#SqlStatementTag",
}
