// Package exporter writes pipeline outputs as CSV reports: the derived
// price table and the long-form correlation matrix. Files are written with
// a UTF-8 BOM so Excel opens them correctly.
package exporter
