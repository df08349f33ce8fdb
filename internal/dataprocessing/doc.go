// Package dataprocessing turns time-tracking exports into raw capacity rows.
//
// An input goes through three steps:
//
//  1. Sniff classifies it as delimited text, spreadsheet or MIME/HTML table
//     by running an ordered list of detection strategies.
//  2. The extractor of that format infers the date, hours, identity and
//     forecast columns and produces RawCapacityRow values plus warnings.
//  3. BuildRecords validates each raw row once and derives its capacity.
//
//	pipeline := dataprocessing.NewPipeline(logger, config.DefaultSampleRows)
//	extraction, err := pipeline.Extract(ctx, "export.csv", data, dataprocessing.ExtractOptions{})
//	if err != nil {
//	    return err
//	}
//	var warnings dataprocessing.Warnings
//	warnings.Append(extraction.Warnings...)
//	records := dataprocessing.BuildRecords(extraction.Rows, &warnings)
//
// A single bad row never fails an extraction: it is skipped and reported as
// a warning. Structural problems are errors matching ErrEmptyInput,
// ErrUnreadableSpreadsheet, ErrColumnNotIdentified or ErrNoUsableRows.
package dataprocessing
