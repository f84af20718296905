package jobimport

import "strings"

const TemplateFilename = "job_import_template.csv"

// TemplateCSV is a header-only file listing the required columns.
func TemplateCSV() string {
	return strings.Join(RequiredColumns, ",") + "\n"
}
